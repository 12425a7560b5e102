package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ringops/ringstats/internal/catalog"
	"go.uber.org/zap"
)

// Record holds the allow-listed stats of one item, values already rendered as cell strings.
type Record struct {
	ItemID catalog.ItemID
	Name   string
	Stats  map[string]string
}

type Fetcher interface {
	FetchMetadata(ctx context.Context, ids []catalog.ItemID) []Record
}

type DefaultFetcher struct {
	client Client
}

func NewFetcher(client Client) *DefaultFetcher {
	return &DefaultFetcher{client: client}
}

// FetchMetadata walks ids in order. Unminted and failing ids are skipped; the first
// document with no populated allow-listed stat ends the walk.
func (f *DefaultFetcher) FetchMetadata(ctx context.Context, ids []catalog.ItemID) []Record {
	var records []Record
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		doc, err := f.client.Get(ctx, id)
		if errors.Is(err, ErrNotMinted) {
			zap.L().Info("No metadata for item, skipping", zap.String("itemId", id.String()))
			continue
		}
		if err != nil {
			zap.L().Warn("Failed to fetch metadata, skipping", zap.String("itemId", id.String()), zap.Error(err))
			continue
		}

		record, populated := ToRecord(id, doc)
		if !populated {
			zap.L().Info("All stats empty, stopping metadata fetch", zap.String("itemId", id.String()))
			break
		}
		records = append(records, record)
	}
	return records
}

// ToRecord filters doc to the stat allow-list. populated is false when every kept value is blank.
func ToRecord(id catalog.ItemID, doc *Document) (record Record, populated bool) {
	record = Record{ItemID: id, Name: doc.Name, Stats: make(map[string]string)}
	for _, attr := range doc.Attributes {
		if !catalog.IsTrait(attr.TraitType) {
			continue
		}
		value := ValueString(attr.Value)
		if value != "" {
			populated = true
		}
		record.Stats[attr.TraitType] = value
	}

	if level, ok := record.Stats[catalog.TraitLevel]; ok && isUnsetLevel(level) {
		record.Stats[catalog.TraitLevel] = catalog.LevelPlaceholder
	}
	return record, populated
}

func isUnsetLevel(level string) bool {
	return level == "" || level == "0" || level == catalog.LevelPlaceholder
}

// ValueString renders an attribute value as a cell. Numbers never use exponent notation.
func ValueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := val.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
