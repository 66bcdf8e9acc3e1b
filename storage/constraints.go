package storage

import (
	"context"
	"fmt"

	"github.com/bsnacks000/pgdal/dbx"
)

// UniqueConstraint is one named unique constraint and the columns it covers.
type UniqueConstraint struct {
	Name    string
	Columns []string
}

// ConstraintIndex is an immutable snapshot of unique-constraint metadata
// keyed by table name. Load it once at startup and thread it explicitly to
// whatever needs it; it is never mutated after LoadConstraintIndex returns.
type ConstraintIndex struct {
	byTable map[string][]UniqueConstraint
}

// Unique returns the unique constraints declared on table, in constraint
// then ordinal order. The returned slice must not be modified.
func (ix *ConstraintIndex) Unique(table string) []UniqueConstraint {
	return ix.byTable[table]
}

// Columns returns the columns of one named constraint on table.
func (ix *ConstraintIndex) Columns(table, constraint string) ([]string, bool) {
	for _, uc := range ix.byTable[table] {
		if uc.Name == constraint {
			return uc.Columns, true
		}
	}
	return nil, false
}

// Tables returns the number of tables with at least one unique constraint.
func (ix *ConstraintIndex) Tables() int {
	return len(ix.byTable)
}

const uniqueConstraintQuery = `
	SELECT tc.table_name, tc.constraint_name, kcu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
	  ON tc.constraint_name = kcu.constraint_name
	 AND tc.table_schema = kcu.table_schema
	WHERE tc.constraint_type = 'UNIQUE' AND tc.table_schema = $1
	ORDER BY tc.table_name, tc.constraint_name, kcu.ordinal_position
`

// LoadConstraintIndex introspects information_schema for the unique
// constraints of one schema and returns the immutable snapshot.
func LoadConstraintIndex(ctx context.Context, db dbx.DBTX, schema string) (*ConstraintIndex, error) {
	if schema == "" {
		schema = "public"
	}

	rows, err := db.QueryContext(ctx, uniqueConstraintQuery, schema)
	if err != nil {
		return nil, fmt.Errorf("load constraints: %w", err)
	}
	defer rows.Close()

	byTable := map[string][]UniqueConstraint{}
	for rows.Next() {
		var table, constraint, column string
		if err := rows.Scan(&table, &constraint, &column); err != nil {
			return nil, fmt.Errorf("load constraints: %w", err)
		}

		ucs := byTable[table]
		if n := len(ucs); n > 0 && ucs[n-1].Name == constraint {
			ucs[n-1].Columns = append(ucs[n-1].Columns, column)
		} else {
			ucs = append(ucs, UniqueConstraint{Name: constraint, Columns: []string{column}})
		}
		byTable[table] = ucs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load constraints: %w", err)
	}

	return &ConstraintIndex{byTable: byTable}, nil
}
