package storage

import (
	"context"
	"fmt"

	"github.com/bsnacks000/pgdal/dbx"
)

// Store executes app-supplied SQL against a dbx.DBTX. Bind it to a
// transaction handle so a request's fetch and conditional mutation observe
// the same snapshot.
type Store struct {
	db dbx.DBTX
}

// New constructs a Store bound to the given DBTX.
func New(db dbx.DBTX) *Store {
	return &Store{db: db}
}

// List runs a read query and returns all rows in result order. When the
// caller selected filter.TotalCount each record carries the pre-pagination
// total under "total_count".
func (s *Store) List(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Detail runs a read query expected to match at most one row. Zero rows
// yields ErrNotFound.
func (s *Store) Detail(ctx context.Context, query string, args ...any) (Record, error) {
	recs, err := s.List(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

// Mutate runs an INSERT/UPDATE/DELETE with a RETURNING clause and returns
// the affected row. Zero rows returned yields ErrNoRowsAffected — for a
// version-tag-guarded statement that is the lost race, for a plain delete a
// missing row. Integrity violations come back as *ConstraintError.
func (s *Store) Mutate(ctx context.Context, query string, args ...any) (Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, classify(err)
	}
	if len(recs) == 0 {
		return nil, ErrNoRowsAffected
	}
	return recs[0], nil
}
