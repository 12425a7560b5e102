package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/table"
)

type ItemsResponse struct {
	PaginatedResponse
	Category string          `json:"category"`
	Data     []*table.Record `json:"data"`
}

func ItemsGetHandler(r *http.Request, store table.Store, categories []catalog.Category) (interface{}, error) {
	// /api/v1/items/life => parts = ["api","v1","items","life"]
	// /api/v1/items/life/1000000006671 => parts = ["api","v1","items","life","1000000006671"]
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 || parts[3] == "" {
		return categories, nil
	}

	category, ok := catalog.FindCategory(categories, parts[3])
	if !ok {
		return nil, NotFound("unknown category %q", parts[3])
	}

	if len(parts) > 4 {
		return ItemGetHandler(r, store, category, parts[4])
	}
	return ItemsGetListHandler(r, store, category)
}

func ItemsGetListHandler(r *http.Request, store table.Store, category catalog.Category) (ItemsResponse, error) {
	page, pageSize, _ := ExtractPagination(r)

	total, rows, err := store.Page(r.Context(), category, page, pageSize)
	if err != nil {
		return ItemsResponse{}, err
	}

	resp := ItemsResponse{
		PaginatedResponse: PaginatedResponse{
			Page:     page,
			PageSize: pageSize,
		},
		Category: category.Name,
		Data:     rows,
	}
	resp.ReturnPaginatedData(r, total)
	return resp, nil
}

func ItemGetHandler(r *http.Request, store table.Store, category catalog.Category, rawID string) (*table.Record, error) {
	id, err := catalog.ParseItemID(rawID)
	if err != nil {
		return nil, BadRequest("%v", err)
	}
	if !category.Contains(id) {
		return nil, NotFound("item %s is not in category %s", id, category.Name)
	}

	row, err := store.Row(r.Context(), id)
	if errors.Is(err, table.ErrNotFound) {
		return nil, NotFound("item %s not found", id)
	}
	return row, err
}
