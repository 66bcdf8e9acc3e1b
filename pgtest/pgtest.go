package pgtest

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"testing"

	"github.com/bsnacks000/pgdal/dbx"
	"github.com/pressly/goose/v3"
)

// EnvDSN is the environment variable consulted by DSNFromEnv.
const EnvDSN = "PGDAL_TEST_DSN"

// DSNFromEnv returns the integration-test DSN or skips the test when unset.
func DSNFromEnv(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set, skipping integration test", EnvDSN)
	}
	return dsn
}

// DB wraps a test database handle.
type DB struct {
	*sql.DB
}

// New opens and pings dsn, failing the test on error. The handle is closed
// automatically at cleanup.
func New(t *testing.T, dsn string) *DB {
	t.Helper()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open %s: %v", dsn, err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.PingContext(context.Background()); err != nil {
		t.Fatalf("ping %s: %v", dsn, err)
	}
	return &DB{DB: db}
}

// MigrateUp runs the goose migrations found in fsys/dir against the test
// database.
func (d *DB) MigrateUp(t *testing.T, fsys fs.FS, dir string) {
	t.Helper()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("pgx"); err != nil {
		t.Fatalf("set dialect: %v", err)
	}
	if err := goose.UpContext(context.Background(), d.DB, dir); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
}

// WithRollback runs fn inside a transaction that is always rolled back,
// so tests never leak rows into each other.
func (d *DB) WithRollback(t *testing.T, fn func(tx dbx.DBTX)) {
	t.Helper()

	tx, err := d.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	fn(tx)
}
