package handlers

import (
	"net/http"

	"github.com/ringops/ringstats/internal/reconcile"
)

type StatusResponse struct {
	Status  string             `json:"status"`
	LastRun *reconcile.Summary `json:"lastRun"`
}

// LastRunFunc returns the most recent reconciliation summary, or nil before the first run.
type LastRunFunc func() *reconcile.Summary

func StatusGetHandler(r *http.Request, lastRun LastRunFunc) (StatusResponse, error) {
	resp := StatusResponse{Status: "OK"}
	if lastRun != nil {
		resp.LastRun = lastRun()
	}
	return resp, nil
}
