package mint

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/ringops/ringstats/internal/catalog"
)

const txCachePrefix = "ringstats:txCache:"

type BadgerCache struct {
	mu sync.RWMutex
	db *badger.DB
}

func NewBadgerCache(db *badger.DB) *BadgerCache {
	return &BadgerCache{db: db}
}

func (b *BadgerCache) Get(_ context.Context, id catalog.ItemID) (CacheEntry, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var entry CacheEntry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeCacheKey(id))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(val, &entry)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, err
	}
	return entry, true, nil
}

func (b *BadgerCache) Put(_ context.Context, entry CacheEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	val, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(encodeCacheKey(entry.ItemID), val)
	})
}

func encodeCacheKey(id catalog.ItemID) []byte {
	return []byte(txCachePrefix + id.String())
}
