// Package controller glues app-supplied SQL statements to the pagination
// and optimistic-concurrency machinery.
//
// Entities declare what they support by implementing capability interfaces:
// a read-only view implements ListQueryable and DetailQueryable and nothing
// else, a fully CRUD-able table implements all six. Each controller maps
// storage outcomes to the fixed apierr status/message pairs; unrecognized
// storage errors pass through wrapped for the app to render as 500.
//
// Controllers take a *storage.Store bound to the request transaction. The
// library never opens transactions of its own — run the whole request flow
// inside one dbx.WithTx call so the guard's fetch and conditional mutation
// share a snapshot.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bsnacks000/pgdal/apierr"
	"github.com/bsnacks000/pgdal/paging"
	"github.com/bsnacks000/pgdal/storage"
	"github.com/bsnacks000/pgdal/web"
)

// ListQueryable supplies the list statement for an entity. The statement's
// select list must include filter.TotalCount when results are paginated.
type ListQueryable interface {
	ListStmt(ctx *web.ListContext) (string, []any, error)
}

// DetailQueryable supplies the single-row fetch statement.
type DetailQueryable interface {
	DetailStmt(ctx *web.DetailContext) (string, []any, error)
}

// VersionQueryable supplies the fetch statement run before a guarded
// mutation. It must select the version field and any soft-delete field.
type VersionQueryable interface {
	VersionStmt(ctx *web.UpdateContext) (string, []any, error)
}

// Creatable supplies the INSERT ... RETURNING statement.
type Creatable interface {
	InsertStmt(ctx *web.CreateContext) (string, []any, error)
}

// Updateable supplies the UPDATE ... RETURNING statement. For guarded
// updates the WHERE clause must match ctx.Etag.CurrentTag() and SET the
// version field to ctx.Etag.NewTag.
type Updateable interface {
	UpdateStmt(ctx *web.UpdateContext) (string, []any, error)
}

// Deleteable supplies the DELETE ... RETURNING statement for hard deletes.
type Deleteable interface {
	DeleteStmt(ctx *web.DetailContext) (string, []any, error)
}

// List runs a list query and assembles the paginated view. Anchor is
// forwarded to the paginator to emit relative next links ("" keeps the full
// URL).
type List struct {
	Q      ListQueryable
	Anchor string
}

func (c List) Query(ctx context.Context, store *storage.Store, lctx *web.ListContext) (paging.ListView, error) {
	query, args, err := c.Q.ListStmt(lctx)
	if err != nil {
		return paging.ListView{}, fmt.Errorf("list stmt: %w", err)
	}

	recs, err := store.List(ctx, query, args...)
	if err != nil {
		return paging.ListView{}, err
	}

	return paging.Assemble(recs, lctx.URL, lctx.Params.Offset, lctx.Params.Limit, c.Anchor)
}

// Detail fetches one resource. A missing row is 404 and, when
// SoftDeleteField is set, a logically deleted row is 410.
type Detail struct {
	Q               DetailQueryable
	SoftDeleteField string
}

func (c Detail) Query(ctx context.Context, store *storage.Store, dctx *web.DetailContext) (storage.Record, error) {
	query, args, err := c.Q.DetailStmt(dctx)
	if err != nil {
		return nil, fmt.Errorf("detail stmt: %w", err)
	}

	rec, err := store.Detail(ctx, query, args...)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apierr.NotFound()
		}
		return nil, err
	}

	if c.SoftDeleteField != "" {
		if deleted, ok := rec.Bool(c.SoftDeleteField); ok && deleted {
			return nil, apierr.Gone()
		}
	}

	return rec, nil
}

// VersionDetail is phase one of the optimistic-concurrency guard: fetch the
// row (404), check soft delete (410), then run the If-Match comparison via
// the context's etag handler (428/412). On success the handler holds the
// observed tag for the conditional mutation's WHERE clause.
type VersionDetail struct {
	Q               VersionQueryable
	SoftDeleteField string
}

func (c VersionDetail) Query(ctx context.Context, store *storage.Store, uctx *web.UpdateContext) (storage.Record, error) {
	query, args, err := c.Q.VersionStmt(uctx)
	if err != nil {
		return nil, fmt.Errorf("version stmt: %w", err)
	}

	rec, err := store.Detail(ctx, query, args...)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apierr.NotFound()
		}
		return nil, err
	}

	if c.SoftDeleteField != "" {
		if deleted, ok := rec.Bool(c.SoftDeleteField); ok && deleted {
			return nil, apierr.Gone()
		}
	}

	if err := uctx.Etag.SetCurrent(uctx.Headers, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// Create inserts a resource. Unique violations render as 409 naming the
// violated constraint's columns from the Constraints snapshot; other
// constraint kinds are a plain 409 "Conflict.".
type Create struct {
	Q           Creatable
	Constraints *storage.ConstraintIndex
}

func (c Create) Create(ctx context.Context, store *storage.Store, cctx *web.CreateContext) (storage.Record, error) {
	query, args, err := c.Q.InsertStmt(cctx)
	if err != nil {
		return nil, fmt.Errorf("insert stmt: %w", err)
	}

	rec, err := store.Mutate(ctx, query, args...)
	if err != nil {
		return nil, c.mapConstraint(err)
	}
	return rec, nil
}

func (c Create) mapConstraint(err error) error {
	var ce *storage.ConstraintError
	if !errors.As(err, &ce) {
		return err
	}
	if ce.Kind() == storage.ConstraintUnique && c.Constraints != nil {
		if cols, ok := c.Constraints.Columns(ce.Table, ce.Constraint); ok {
			return apierr.Conflict(fmt.Sprintf("Conflict. Duplicate value for (%s).", strings.Join(cols, ", ")))
		}
	}
	return apierr.Conflict("")
}

// Update is phase two of the guard: the conditional mutation. Zero rows
// affected means another writer won the race between the version fetch and
// this statement, reported as 409 "Stale Data.". Constraint violations map
// to 409 as for Create.
type Update struct {
	Q           Updateable
	Constraints *storage.ConstraintIndex
}

func (c Update) Update(ctx context.Context, store *storage.Store, uctx *web.UpdateContext) (storage.Record, error) {
	query, args, err := c.Q.UpdateStmt(uctx)
	if err != nil {
		return nil, fmt.Errorf("update stmt: %w", err)
	}

	rec, err := store.Mutate(ctx, query, args...)
	if err != nil {
		if errors.Is(err, storage.ErrNoRowsAffected) {
			return nil, apierr.StaleData()
		}
		return nil, (Create{Constraints: c.Constraints}).mapConstraint(err)
	}
	return rec, nil
}

// Delete hard-deletes a resource; a missing row is 404. Soft deletes are an
// Update with app SQL setting the flag, not a Delete.
type Delete struct {
	Q Deleteable
}

func (c Delete) Delete(ctx context.Context, store *storage.Store, dctx *web.DetailContext) error {
	query, args, err := c.Q.DeleteStmt(dctx)
	if err != nil {
		return fmt.Errorf("delete stmt: %w", err)
	}

	if _, err := store.Mutate(ctx, query, args...); err != nil {
		if errors.Is(err, storage.ErrNoRowsAffected) {
			return apierr.NotFound()
		}
		return err
	}
	return nil
}
