// Package pgtest provides postgres test fixtures: scratch-database
// create/drop, goose migrations over an embedded FS, and per-test
// transactions that always roll back for isolation.
package pgtest

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// CreateDatabase connects with adminDSN (a DSN pointing at the maintenance
// "postgres" database) and creates name from template. An empty template
// defaults to template1. Postgres only; identifiers are interpolated, so
// only pass trusted names.
func CreateDatabase(ctx context.Context, adminDSN, name, template string) error {
	if template == "" {
		template = "template1"
	}

	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer db.Close()

	stmt := fmt.Sprintf(`CREATE DATABASE %q ENCODING 'utf8' TEMPLATE %s`, name, template)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

// DropDatabase terminates remaining backends on name and drops it.
func DropDatabase(ctx context.Context, adminDSN, name string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer db.Close()

	terminate := `
		SELECT pg_terminate_backend(pg_stat_activity.pid)
		FROM pg_stat_activity
		WHERE pg_stat_activity.datname = $1
		AND pid <> pg_backend_pid()
	`
	if _, err := db.ExecContext(ctx, terminate, name); err != nil {
		return fmt.Errorf("terminate backends for %s: %w", name, err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(`DROP DATABASE IF EXISTS %q`, name)); err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}
	return nil
}
