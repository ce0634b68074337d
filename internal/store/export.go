package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// ExportCSV writes every record of a table to w as CSV, column headers
// first. An empty table produces only the header row. The table name is
// validated against the schema before interpolation.
func (s *Store) ExportCSV(ctx context.Context, table string, w io.Writer) error {
	ok, err := s.tableExists(ctx, table)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("export: unknown table %q", table)
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT * FROM %s ORDER BY id ASC`, table))
	if err != nil {
		return fmt.Errorf("export %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("export %s: columns: %w", table, err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("export %s: write header: %w", table, err)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	record := make([]string, len(cols))
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("export %s: scan: %w", table, err)
		}
		for i, v := range values {
			record[i] = csvField(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export %s: write row: %w", table, err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("export %s: iterate: %w", table, err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export %s: flush: %w", table, err)
	}
	return nil
}

// csvField renders one scanned SQLite value for CSV output. NULL becomes
// the empty string.
func csvField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
