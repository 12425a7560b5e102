package table

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/db"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("record not found")

type Store interface {
	InitCategory(ctx context.Context, category catalog.Category, n int) (created int, err error)
	Rows(ctx context.Context, category catalog.Category) ([]*Record, error)
	Page(ctx context.Context, category catalog.Category, page, pageSize int) (total int, rows []*Record, err error)
	Row(ctx context.Context, id catalog.ItemID) (*Record, error)
	Cell(ctx context.Context, id catalog.ItemID, column string) (string, error)
	WriteStats(ctx context.Context, id catalog.ItemID, name string, stats map[string]string, updatedAt string) error
	WriteProvenance(ctx context.Context, id catalog.ItemID, mintDate, initiator string) error
	ExportCSV(ctx context.Context, category catalog.Category, w io.Writer) error
}

type SqliteStore struct {
	db *sql.DB
}

func NewSqliteStore(db *sql.DB) *SqliteStore {
	return &SqliteStore{db: db}
}

const recordsTable = "item_records"

var selectColumns = func() string {
	cols := []string{"item_id", "category", "seq", "name"}
	for _, trait := range catalog.Traits {
		cols = append(cols, quote(trait))
	}
	cols = append(cols, "updated_at", "mint_date", "initiator_address")
	return strings.Join(cols, ", ")
}()

var selectRecordsQuery = "SELECT " + selectColumns + " FROM " + recordsTable

func quote(column string) string {
	return `"` + column + `"`
}

// InitCategory creates blank rows 1..n for the category. Existing rows are left alone.
func (s *SqliteStore) InitCategory(ctx context.Context, category catalog.Category, n int) (int, error) {
	rows := make([][]interface{}, 0, n)
	for _, id := range category.Range(n) {
		rows = append(rows, []interface{}{id.String(), category.Prefix, id.Seq()})
	}

	created, err := db.TxRunner(ctx, s.db, func(tx *sql.Tx) (int, error) {
		return insertIgnore(ctx, tx, recordsTable, []string{"item_id", "category", "seq"}, rows)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to initialise category %s: %w", category.Name, err)
	}
	if created > 0 {
		zap.L().Info("Initialised category rows",
			zap.String("category", category.Name),
			zap.String("prefix", category.Prefix),
			zap.Int("created", created),
		)
	}
	return created, nil
}

func (s *SqliteStore) Rows(ctx context.Context, category catalog.Category) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecordsQuery+" WHERE category = ? ORDER BY seq ASC", category.Prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return db.ScanAll(rows, NewRecord)
}

func (s *SqliteStore) Page(ctx context.Context, category catalog.Category, page, pageSize int) (int, []*Record, error) {
	return db.GetPaginatedResponseForQuery(
		ctx,
		recordsTable,
		s.db,
		selectRecordsQuery,
		db.QueryOptions{Where: "category = ?", Page: page, PageSize: pageSize, Direction: db.QueryDirectionAsc},
		[]string{"seq"},
		[]interface{}{category.Prefix},
		NewRecord,
	)
}

func (s *SqliteStore) Row(ctx context.Context, id catalog.ItemID) (*Record, error) {
	record := NewRecord()
	err := record.ScanRow(s.db.QueryRowContext(ctx, selectRecordsQuery+" WHERE item_id = ?", id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SqliteStore) Cell(ctx context.Context, id catalog.ItemID, column string) (string, error) {
	if !IsColumn(column) {
		return "", fmt.Errorf("unknown column %q", column)
	}
	record, err := s.Row(ctx, id)
	if err != nil {
		return "", err
	}
	value, _ := record.Cell(column)
	return value, nil
}

// WriteStats overwrites the name, every stat cell and the updated timestamp. Provenance cells are untouched.
func (s *SqliteStore) WriteStats(ctx context.Context, id catalog.ItemID, name string, stats map[string]string, updatedAt string) error {
	columns := []string{"item_id", "category", "seq", "name"}
	values := []interface{}{id.String(), id.Prefix(), id.Seq(), name}
	updates := []string{"name = excluded.name"}
	for _, trait := range catalog.Traits {
		columns = append(columns, quote(trait))
		values = append(values, stats[trait])
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", quote(trait), quote(trait)))
	}
	columns = append(columns, "updated_at")
	values = append(values, updatedAt)
	updates = append(updates, "updated_at = excluded.updated_at")

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(item_id) DO UPDATE SET %s",
		recordsTable,
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
		strings.Join(updates, ", "),
	)
	_, err := db.TxRunner(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, query, values...)
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("failed to write stats for %s: %w", id, err)
	}
	return nil
}

// WriteProvenance fills blank provenance cells only.
func (s *SqliteStore) WriteProvenance(ctx context.Context, id catalog.ItemID, mintDate, initiator string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE item_records SET
			mint_date = CASE WHEN mint_date = '' THEN ? ELSE mint_date END,
			initiator_address = CASE WHEN initiator_address = '' THEN ? ELSE initiator_address END
		WHERE item_id = ?`, mintDate, initiator, id.String())
	if err != nil {
		return fmt.Errorf("failed to write provenance for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SqliteStore) ExportCSV(ctx context.Context, category catalog.Category, w io.Writer) error {
	records, err := s.Rows(ctx, category)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, record := range records {
		if err := cw.Write(record.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
