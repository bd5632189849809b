package storage

import (
	"context"
	"fmt"
	"strings"
)

// batchSize bounds rows per INSERT so the statement stays well under
// PostgreSQL's 65535 bind-parameter limit.
const batchSize = 500

// bulkInsert writes rows into table with multi-row INSERT statements of at
// most batchSize rows each and returns the number of rows written.
func bulkInsert(ctx context.Context, db DBTX, table string, columns []string, rows [][]any) (int64, error) {
	var total int64
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := insertBatch(ctx, db, table, columns, rows[start:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func insertBatch(ctx context.Context, db DBTX, table string, columns []string, batch [][]any) (int64, error) {
	width := len(columns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*width)

	for idx, row := range batch {
		if len(row) != width {
			return 0, fmt.Errorf("%s: row %d has %d values, want %d", table, idx, len(row), width)
		}
		placeholders := make([]string, width)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", idx*width+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ", "), strings.Join(valueStrings, ","))

	res, err := db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return 0, fmt.Errorf("%s: insert batch: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return int64(len(batch)), nil
	}
	return n, nil
}
