// Package bulk moves large record batches in and out of postgres via COPY.
//
// Loading follows a staging-table-then-merge pattern: create a temp table
// (on commit drop), COPY raw rows into it, optionally run a post-copy
// statement such as an index build, then merge into the destination table.
// A Script runs an ordered list of such operations on its own native pgx
// connection inside one transaction; the first failure rolls back
// everything, so a load is applied completely or not at all.
//
// Exporting is the mirror: COPY a query's result straight to an io.Writer.
package bulk

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bsnacks000/pgdal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultTimeout bounds a single statement when the op does not set its own.
const DefaultTimeout = 10 * time.Second

// Conn is the slice of a postgres connection the ops need. Implemented by
// the native pgx adapter used in Script.Run; tests supply fakes.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyIn(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error)
	CopyOut(ctx context.Context, w io.Writer, sql string) (pgconn.CommandTag, error)
}

// Op is one step of a bulk script. The returned status is the command tag
// text, for logging only.
type Op interface {
	Execute(ctx context.Context, conn Conn) (string, error)
}

// CopyFormat selects the wire format of a COPY.
type CopyFormat string

const (
	FormatText   CopyFormat = "text"
	FormatCSV    CopyFormat = "csv"
	FormatBinary CopyFormat = "binary"
)

func copyOptions(f CopyFormat) string {
	if f == "" || f == FormatText {
		return ""
	}
	return fmt.Sprintf(" WITH (FORMAT %s)", f)
}

// Column is one column definition of a staging table. Postfix carries
// anything after the type, e.g. "not null".
type Column struct {
	Name    string
	Type    string
	Postfix string
}

func (c Column) String() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", c.Name, c.Type, c.Postfix))
}

// Columns renders a comma-separated column definition list.
type Columns []Column

func (cs Columns) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Stmt executes one SQL statement with a per-op timeout.
type Stmt struct {
	SQL     string
	Args    []any
	Timeout time.Duration
}

func (s Stmt) Execute(ctx context.Context, conn Conn) (string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tag, err := conn.Exec(ctx, s.SQL, s.Args...)
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

// TempTable creates a transaction-scoped staging table.
type TempTable struct {
	Name    string
	Cols    Columns
	Timeout time.Duration
}

func (t TempTable) Execute(ctx context.Context, conn Conn) (string, error) {
	stmt := Stmt{
		SQL:     fmt.Sprintf("create temp table %s (%s) on commit drop", t.Name, t.Cols),
		Timeout: t.Timeout,
	}
	return stmt.Execute(ctx, conn)
}

// Load is the staging-table-then-merge pipeline: create the staging table,
// COPY Source into it, optionally run PostCopy (e.g. an index build to
// speed the merge), then run Target to move rows into the destination.
type Load struct {
	Tmp      TempTable
	Source   io.Reader
	Format   CopyFormat
	PostCopy *Stmt
	Target   Stmt
}

func (l Load) Execute(ctx context.Context, conn Conn) (string, error) {
	statuses := make([]string, 0, 4)

	status, err := l.Tmp.Execute(ctx, conn)
	if err != nil {
		return "", fmt.Errorf("create staging table: %w", err)
	}
	statuses = append(statuses, status)

	copySQL := fmt.Sprintf("COPY %s FROM STDIN%s", l.Tmp.Name, copyOptions(l.Format))
	tag, err := conn.CopyIn(ctx, l.Source, copySQL)
	if err != nil {
		return "", fmt.Errorf("copy into staging table: %w", err)
	}
	statuses = append(statuses, tag.String())

	if l.PostCopy != nil {
		status, err = l.PostCopy.Execute(ctx, conn)
		if err != nil {
			return "", fmt.Errorf("post-copy: %w", err)
		}
		statuses = append(statuses, status)
	}

	status, err = l.Target.Execute(ctx, conn)
	if err != nil {
		return "", fmt.Errorf("merge into target: %w", err)
	}
	statuses = append(statuses, status)

	return strings.Join(statuses, "\n"), nil
}

// Export streams a query's result to Output via COPY TO STDOUT.
type Export struct {
	Query  string
	Output io.Writer
	Format CopyFormat
}

func (e Export) Execute(ctx context.Context, conn Conn) (string, error) {
	copySQL := fmt.Sprintf("COPY (%s) TO STDOUT%s", e.Query, copyOptions(e.Format))
	tag, err := conn.CopyOut(ctx, e.Output, copySQL)
	if err != nil {
		return "", fmt.Errorf("copy out: %w", err)
	}
	return tag.String(), nil
}

// Script runs Ops in order on one dedicated native connection, inside one
// transaction. The connection is independent of any application pool.
type Script struct {
	URL string
	Ops []Op
	Log logging.Logger
}

func (s *Script) logger() logging.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logging.NewNoopLogger()
}

// Run connects, begins a transaction, executes every op and commits. The
// first op error aborts the transaction; nothing is partially applied.
func (s *Script) Run(ctx context.Context) error {
	log := s.logger()

	conn, err := pgx.Connect(ctx, s.URL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	pc := &pgxConn{tx: tx, pg: conn.PgConn()}
	for i, op := range s.Ops {
		status, err := op.Execute(ctx, pc)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("bulk op %d: %w", i, err)
		}
		log.Info(ctx, "bulk op complete", "op", i, "status", status)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// pgxConn adapts a pgx transaction plus the underlying PgConn to the Conn
// slice. COPY runs through the low-level protocol on the same connection,
// so it participates in the transaction.
type pgxConn struct {
	tx pgx.Tx
	pg *pgconn.PgConn
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.tx.Exec(ctx, sql, args...)
}

func (c *pgxConn) CopyIn(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error) {
	return c.pg.CopyFrom(ctx, r, sql)
}

func (c *pgxConn) CopyOut(ctx context.Context, w io.Writer, sql string) (pgconn.CommandTag, error) {
	return c.pg.CopyTo(ctx, w, sql)
}
