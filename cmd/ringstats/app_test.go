package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ringops/ringstats/internal/config"
	"github.com/ringops/ringstats/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyServer answers 503 to the first n requests and 200 afterwards.
func flakyServer(t *testing.T, n int32) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= n {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"1"}`))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestNewHTTPClients_APIClientRetriesServerErrors(t *testing.T) {
	server, calls := flakyServer(t, 2)
	api, _ := newHTTPClients(config.Config{})

	body, err := api.GetBytes(context.Background(), server.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"1"}`, string(body))
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestNewHTTPClients_WebhookClientDoesNotRetry(t *testing.T) {
	server, calls := flakyServer(t, 2)
	_, webhook := newHTTPClients(config.Config{})

	_, err := webhook.PostJSON(context.Background(), server.URL, map[string]string{"content": "hi"})
	require.Error(t, err)
	assert.True(t, httpclient.IsStatus(err, http.StatusServiceUnavailable))
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestNewHTTPClients_RetryCanBeDisabled(t *testing.T) {
	server, calls := flakyServer(t, 2)
	api, _ := newHTTPClients(config.Config{HttpRetryMaxElapsed: "0"})

	_, err := api.GetBytes(context.Background(), server.URL)
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}
