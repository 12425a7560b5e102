package mint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/db"
)

// SqliteCache persists entries in the tx_cache table next to the item records.
type SqliteCache struct {
	db *sql.DB
}

func NewSqliteCache(db *sql.DB) *SqliteCache {
	return &SqliteCache{db: db}
}

func (s *SqliteCache) Get(ctx context.Context, id catalog.ItemID) (CacheEntry, bool, error) {
	return getCacheEntry(ctx, s.db, id)
}

func (s *SqliteCache) Put(ctx context.Context, entry CacheEntry) error {
	_, err := db.TxRunner(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, putCacheEntry(ctx, tx, entry)
	})
	return err
}

func getCacheEntry(ctx context.Context, q db.QueryRunner, id catalog.ItemID) (CacheEntry, bool, error) {
	e := CacheEntry{ItemID: id}
	err := q.QueryRowContext(ctx,
		`SELECT mint_date, initiator_address, tx_hash, updated_at FROM tx_cache WHERE item_id = ?`,
		id.String(),
	).Scan(&e.MintDate, &e.Initiator, &e.TxHash, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("failed to read tx cache for %s: %w", id, err)
	}
	return e, true, nil
}

func putCacheEntry(ctx context.Context, q db.QueryRunner, e CacheEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO tx_cache (item_id, mint_date, initiator_address, tx_hash, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			mint_date = excluded.mint_date,
			initiator_address = excluded.initiator_address,
			tx_hash = excluded.tx_hash,
			updated_at = excluded.updated_at`,
		e.ItemID.String(), e.MintDate, e.Initiator, e.TxHash, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write tx cache for %s: %w", e.ItemID, err)
	}
	return nil
}
