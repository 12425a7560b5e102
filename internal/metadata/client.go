package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/config"
	"github.com/ringops/ringstats/internal/httpclient"
	"github.com/ringops/ringstats/internal/metrics"
)

var ErrNotMinted = errors.New("item not minted")

type Attribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

type Document struct {
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
}

type Client interface {
	Get(ctx context.Context, id catalog.ItemID) (*Document, error)
}

type DefaultClient struct {
	http    httpclient.HTTPClient
	baseURL string
}

func NewClient(http httpclient.HTTPClient, baseURL string) *DefaultClient {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &DefaultClient{http: http, baseURL: baseURL}
}

func NewClientFromConfig(http httpclient.HTTPClient) *DefaultClient {
	return NewClient(http, config.Get().MetadataApiUrlOrDefault())
}

// Get returns ErrNotMinted on 404; any other failure is transient.
func (c *DefaultClient) Get(ctx context.Context, id catalog.ItemID) (*Document, error) {
	body, err := c.http.GetBytes(ctx, c.baseURL+id.String())
	if httpclient.IsStatus(err, http.StatusNotFound) {
		metrics.MetadataCallsTotal.WithLabelValues("not_minted").Inc()
		return nil, ErrNotMinted
	}
	if err != nil {
		metrics.MetadataCallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to fetch metadata for %s: %w", id, err)
	}

	var doc Document
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		metrics.MetadataCallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to decode metadata for %s: %w", id, err)
	}
	metrics.MetadataCallsTotal.WithLabelValues("ok").Inc()
	return &doc, nil
}
