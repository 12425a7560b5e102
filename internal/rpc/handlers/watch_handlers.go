package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/watch"
)

// WatchList is the slice of the watcher the API exposes.
type WatchList interface {
	Add(ctx context.Context, id catalog.ItemID) error
	SetMonitor(ctx context.Context, id catalog.ItemID, on bool) error
	Page(ctx context.Context, page, pageSize int) (int, []*watch.Entry, error)
}

type WatchResponse struct {
	PaginatedResponse
	Data []*watch.Entry `json:"data"`
}

type WatchRequest struct {
	ItemID string `json:"itemId"`
	// Monitor is "ON" or "OFF". Empty adds the item.
	Monitor string `json:"monitor"`
}

func WatchGetHandler(r *http.Request, list WatchList) (WatchResponse, error) {
	page, pageSize, _ := ExtractPagination(r)

	total, entries, err := list.Page(r.Context(), page, pageSize)
	if err != nil {
		return WatchResponse{}, err
	}

	resp := WatchResponse{
		PaginatedResponse: PaginatedResponse{
			Page:     page,
			PageSize: pageSize,
		},
		Data: entries,
	}
	resp.ReturnPaginatedData(r, total)
	return resp, nil
}

func WatchPostHandler(r *http.Request, list WatchList) (map[string]string, error) {
	var req WatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, BadRequest("invalid body: %v", err)
	}
	id, err := catalog.ParseItemID(req.ItemID)
	if err != nil {
		return nil, BadRequest("%v", err)
	}

	switch req.Monitor {
	case "":
		err = list.Add(r.Context(), id)
	case watch.MonitorOn, watch.MonitorOff:
		err = list.SetMonitor(r.Context(), id, req.Monitor == watch.MonitorOn)
	default:
		return nil, BadRequest("monitor must be %s or %s", watch.MonitorOn, watch.MonitorOff)
	}
	if errors.Is(err, watch.ErrNotFound) {
		return nil, NotFound("item %s is not on the watch list", id)
	}
	if err != nil {
		return nil, err
	}
	return map[string]string{"itemId": id.String(), "status": "OK"}, nil
}
