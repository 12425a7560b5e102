package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const maxBodySize = 32 << 20

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s: %s", e.Code, e.URL, e.Body)
}

func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}

type HTTPClient interface {
	// GetBytes performs a GET request and returns the body of a 2xx response
	GetBytes(ctx context.Context, url string) ([]byte, error)

	// PostJSON marshals payload and posts it, returning the response body
	PostJSON(ctx context.Context, url string, payload interface{}) ([]byte, error)
}

type Options struct {
	Timeout time.Duration
	// MaxRetryElapsed bounds retries of network errors and 5xx responses; zero disables retrying.
	MaxRetryElapsed time.Duration
	UserAgent       string
}

type RealHTTPClient struct {
	client *http.Client
	opts   Options
}

func NewHTTPClient(opts Options) *RealHTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ringstats/1.0"
	}
	return &RealHTTPClient{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

func (c *RealHTTPClient) GetBytes(ctx context.Context, url string) ([]byte, error) {
	return c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}

func (c *RealHTTPClient) PostJSON(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

func (c *RealHTTPClient) doWithRetry(ctx context.Context, newRequest func() (*http.Request, error)) ([]byte, error) {
	var respBody []byte

	operation := func() error {
		req, err := newRequest()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				zap.L().Warn("failed to close response body", zap.Error(err), zap.String("url", req.URL.String()))
			}
		}()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode >= 500 {
			zap.L().Warn("server error, retrying", zap.Int("status", resp.StatusCode), zap.String("url", req.URL.String()))
			return &StatusError{Code: resp.StatusCode, URL: req.URL.String(), Body: truncate(body)}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backoff.Permanent(&StatusError{Code: resp.StatusCode, URL: req.URL.String(), Body: truncate(body)})
		}

		respBody = body
		return nil
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if c.opts.MaxRetryElapsed > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = 500 * time.Millisecond
		exp.MaxInterval = 5 * time.Second
		exp.MaxElapsedTime = c.opts.MaxRetryElapsed
		exp.RandomizationFactor = 0.5
		b = exp
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return respBody, nil
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
