// Package storage implements the collaborator contracts the controllers are
// written against: list queries, single-row fetches and conditional
// mutations over a dbx.DBTX, with driver errors mapped to a structured
// taxonomy instead of message sniffing.
package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Record is one row scanned into a column-name keyed map. Column values keep
// the driver's Go types except []byte, which is converted to string so that
// text columns behave the same across drivers.
type Record map[string]any

// Has reports whether the column is present.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String returns the value as a string. ok is false when the column is
// absent, NULL or not string-shaped.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	default:
		return "", false
	}
}

// Bool returns the value as a bool. ok is false when the column is absent,
// NULL or not boolean.
func (r Record) Bool(key string) (bool, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Int returns the value as an int, accepting the integer widths drivers
// commonly produce.
func (r Record) Int(key string) (int, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// Time returns the value as a time.Time.
func (r Record) Time(key string) (time.Time, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// scanRecords drains rows into Records using the result's column names.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	out := []Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		rec := make(Record, len(cols))
		for i, c := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[c] = v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
