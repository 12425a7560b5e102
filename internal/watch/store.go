package watch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/db"
)

const (
	MonitorOn       = "ON"
	MonitorOff      = "OFF"
	StatusConfirmed = "confirmed"
)

var ErrNotFound = errors.New("watch entry not found")

type Entry struct {
	ItemID      catalog.ItemID `json:"itemId"`
	Monitor     string         `json:"monitor"`
	Status      string         `json:"status"`
	ConfirmedAt string         `json:"confirmedAt"`
	CreatedAt   string         `json:"createdAt"`
}

func (e *Entry) ScanRow(scanner db.RowScanner) error {
	var id string
	if err := scanner.Scan(&id, &e.Monitor, &e.Status, &e.ConfirmedAt, &e.CreatedAt); err != nil {
		return err
	}
	e.ItemID = catalog.ItemID(id)
	return nil
}

// Pending entries are still monitored and not yet confirmed.
func (e *Entry) Pending() bool {
	return e.Monitor == MonitorOn && e.Status != StatusConfirmed
}

type Store interface {
	Add(ctx context.Context, id catalog.ItemID, createdAt string) error
	SetMonitor(ctx context.Context, id catalog.ItemID, on bool) error
	List(ctx context.Context) ([]*Entry, error)
	Page(ctx context.Context, page, pageSize int) (total int, entries []*Entry, err error)
	MarkConfirmed(ctx context.Context, id catalog.ItemID, confirmedAt string) error
}

type SqliteStore struct {
	db *sql.DB
}

func NewSqliteStore(db *sql.DB) *SqliteStore {
	return &SqliteStore{db: db}
}

const selectEntriesQuery = `SELECT item_id, monitor, status, confirmed_at, created_at FROM watch_list`

// Add starts monitoring id. Re-adding a confirmed entry re-arms it.
func (s *SqliteStore) Add(ctx context.Context, id catalog.ItemID, createdAt string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watch_list (item_id, monitor, status, confirmed_at, created_at)
		VALUES (?, 'ON', '', '', ?)
		ON CONFLICT(item_id) DO UPDATE SET monitor = 'ON', status = '', confirmed_at = ''`,
		id.String(), createdAt)
	if err != nil {
		return fmt.Errorf("failed to add %s to watch list: %w", id, err)
	}
	return nil
}

func (s *SqliteStore) SetMonitor(ctx context.Context, id catalog.ItemID, on bool) error {
	monitor := MonitorOff
	if on {
		monitor = MonitorOn
	}
	res, err := s.db.ExecContext(ctx, `UPDATE watch_list SET monitor = ? WHERE item_id = ?`, monitor, id.String())
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

func (s *SqliteStore) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectEntriesQuery+` ORDER BY created_at ASC, item_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return db.ScanAll(rows, func() *Entry { return &Entry{} })
}

func (s *SqliteStore) Page(ctx context.Context, page, pageSize int) (int, []*Entry, error) {
	return db.GetPaginatedResponseForQuery(
		ctx,
		"watch_list",
		s.db,
		selectEntriesQuery,
		db.QueryOptions{Page: page, PageSize: pageSize, Direction: db.QueryDirectionAsc},
		[]string{"created_at", "item_id"},
		nil,
		func() *Entry { return &Entry{} },
	)
}

// MarkConfirmed flips the entry to confirmed and stops monitoring it.
func (s *SqliteStore) MarkConfirmed(ctx context.Context, id catalog.ItemID, confirmedAt string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE watch_list SET monitor = 'OFF', status = ?, confirmed_at = ? WHERE item_id = ?`,
		StatusConfirmed, confirmedAt, id.String())
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id catalog.ItemID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
