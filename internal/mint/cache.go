package mint

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/ringops/ringstats/internal/catalog"
	"go.uber.org/zap"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendSqlite = "sqlite"
	CacheBackendBadger = "badger"
)

// CacheEntry is the durable record of one resolved mint.
type CacheEntry struct {
	ItemID    catalog.ItemID `json:"itemId"`
	MintDate  string         `json:"mintDate"`
	Initiator string         `json:"initiatorAddress"`
	TxHash    string         `json:"txHash"`
	UpdatedAt string         `json:"updatedAt"`
}

// Complete reports whether the entry can short-circuit resolution.
func (e CacheEntry) Complete() bool {
	return e.MintDate != "" && e.Initiator != ""
}

type ProvenanceCache interface {
	Get(ctx context.Context, id catalog.ItemID) (CacheEntry, bool, error)
	Put(ctx context.Context, entry CacheEntry) error
}

// NewProvenanceCache builds the configured backend. Durable backends are fronted by an in-process cache.
func NewProvenanceCache(backend string, sqlDB *sql.DB, badgerDB *badger.DB) (ProvenanceCache, error) {
	switch backend {
	case CacheBackendMemory:
		return NewMemoryCache(), nil
	case CacheBackendSqlite, "":
		if sqlDB == nil {
			return nil, fmt.Errorf("sqlite cache backend requires a database")
		}
		return NewLayeredCache(NewMemoryCache(), NewSqliteCache(sqlDB)), nil
	case CacheBackendBadger:
		if badgerDB == nil {
			return nil, fmt.Errorf("badger cache backend requires a database")
		}
		return NewLayeredCache(NewMemoryCache(), NewBadgerCache(badgerDB)), nil
	default:
		return nil, fmt.Errorf("unknown mint cache backend %q", backend)
	}
}

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[catalog.ItemID]CacheEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[catalog.ItemID]CacheEntry)}
}

func (m *MemoryCache) Get(_ context.Context, id catalog.ItemID) (CacheEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	return entry, ok, nil
}

func (m *MemoryCache) Put(_ context.Context, entry CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ItemID] = entry
	return nil
}

type LayeredCache struct {
	front ProvenanceCache
	back  ProvenanceCache
}

func NewLayeredCache(front, back ProvenanceCache) *LayeredCache {
	return &LayeredCache{front: front, back: back}
}

func (l *LayeredCache) Get(ctx context.Context, id catalog.ItemID) (CacheEntry, bool, error) {
	if entry, ok, err := l.front.Get(ctx, id); err == nil && ok {
		return entry, true, nil
	}
	entry, ok, err := l.back.Get(ctx, id)
	if err != nil || !ok {
		return CacheEntry{}, false, err
	}
	if err := l.front.Put(ctx, entry); err != nil {
		zap.L().Warn("Failed to warm front cache", zap.String("itemId", id.String()), zap.Error(err))
	}
	return entry, true, nil
}

func (l *LayeredCache) Put(ctx context.Context, entry CacheEntry) error {
	if err := l.back.Put(ctx, entry); err != nil {
		return err
	}
	return l.front.Put(ctx, entry)
}
