package table

import (
	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/db"
)

const (
	ColumnItemID           = "item_id"
	ColumnName             = "name"
	ColumnUpdatedAt        = "updated_at"
	ColumnMintDate         = "mint_date"
	ColumnInitiatorAddress = "initiator_address"
)

// Header is the canonical column order of a category table.
var Header = func() []string {
	h := []string{ColumnItemID, ColumnName}
	h = append(h, catalog.Traits...)
	return append(h, ColumnUpdatedAt, ColumnMintDate, ColumnInitiatorAddress)
}()

var headerSet = func() map[string]bool {
	m := make(map[string]bool, len(Header))
	for _, c := range Header {
		m[c] = true
	}
	return m
}()

func IsColumn(name string) bool {
	return headerSet[name]
}

type Record struct {
	ItemID           catalog.ItemID    `json:"itemId"`
	Category         string            `json:"category"`
	Seq              int               `json:"seq"`
	Name             string            `json:"name"`
	Stats            map[string]string `json:"stats"`
	UpdatedAt        string            `json:"updatedAt"`
	MintDate         string            `json:"mintDate"`
	InitiatorAddress string            `json:"initiatorAddress"`
}

func NewRecord() *Record {
	return &Record{Stats: make(map[string]string, len(catalog.Traits))}
}

// HasStats reports whether any stat cell is filled.
func (r *Record) HasStats() bool {
	for _, trait := range catalog.Traits {
		if r.Stats[trait] != "" {
			return true
		}
	}
	return false
}

func (r *Record) HasProvenance() bool {
	return r.MintDate != "" && r.InitiatorAddress != ""
}

// Complete rows need no explorer or metadata calls.
func (r *Record) Complete() bool {
	return r.HasStats() && r.HasProvenance()
}

func (r *Record) Cell(column string) (string, bool) {
	switch column {
	case ColumnItemID:
		return r.ItemID.String(), true
	case ColumnName:
		return r.Name, true
	case ColumnUpdatedAt:
		return r.UpdatedAt, true
	case ColumnMintDate:
		return r.MintDate, true
	case ColumnInitiatorAddress:
		return r.InitiatorAddress, true
	}
	if catalog.IsTrait(column) {
		return r.Stats[column], true
	}
	return "", false
}

// Values renders the record in Header order.
func (r *Record) Values() []string {
	values := make([]string, len(Header))
	for i, column := range Header {
		values[i], _ = r.Cell(column)
	}
	return values
}

func (r *Record) ScanRow(scanner db.RowScanner) error {
	if r.Stats == nil {
		r.Stats = make(map[string]string, len(catalog.Traits))
	}
	var id string
	traitValues := make([]string, len(catalog.Traits))

	dest := []interface{}{&id, &r.Category, &r.Seq, &r.Name}
	for i := range traitValues {
		dest = append(dest, &traitValues[i])
	}
	dest = append(dest, &r.UpdatedAt, &r.MintDate, &r.InitiatorAddress)

	if err := scanner.Scan(dest...); err != nil {
		return err
	}
	r.ItemID = catalog.ItemID(id)
	for i, trait := range catalog.Traits {
		r.Stats[trait] = traitValues[i]
	}
	return nil
}
