package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const defaultBatchSize = 100

// insertIgnore inserts rows in batches inside tx, skipping rows whose key already exists.
// It returns how many rows were actually created.
func insertIgnore(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]interface{}) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("no columns given for %s", table)
	}

	placeholders := "(" + strings.Repeat("?, ", len(columns)-1) + "?)"
	created := 0

	for i := 0; i < len(rows); i += defaultBatchSize {
		end := i + defaultBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		values := []interface{}{}
		batchPlaceholders := []string{}

		for _, row := range rows[i:end] {
			if len(row) != len(columns) {
				return created, fmt.Errorf("row has %d values, want %d", len(row), len(columns))
			}
			values = append(values, row...)
			batchPlaceholders = append(batchPlaceholders, placeholders)
		}

		query := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES %s",
			table, strings.Join(columns, ", "), strings.Join(batchPlaceholders, ", "))

		res, err := tx.ExecContext(ctx, query, values...)
		if err != nil {
			return created, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return created, err
		}
		created += int(n)
	}
	return created, nil
}
