package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned by Detail when the query matched no row.
	ErrNotFound = errors.New("not found")

	// ErrNoRowsAffected is returned by Mutate when the statement returned no
	// row, i.e. its WHERE clause matched nothing. For tag-guarded updates
	// this is the lost write-write race.
	ErrNoRowsAffected = errors.New("no rows affected")
)

// ConstraintKind classifies an integrity constraint violation.
type ConstraintKind int

const (
	ConstraintOther ConstraintKind = iota
	ConstraintUnique
	ConstraintForeignKey
	ConstraintNotNull
	ConstraintCheck
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintUnique:
		return "unique"
	case ConstraintForeignKey:
		return "foreign key"
	case ConstraintNotNull:
		return "not null"
	case ConstraintCheck:
		return "check"
	default:
		return "other"
	}
}

// ConstraintError is a structured integrity-constraint violation. Callers
// branch on Kind and the constraint/table names rather than parsing driver
// message text.
type ConstraintError struct {
	Code       string
	Constraint string
	Table      string
	Column     string
	Detail     string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation (%s) on %q: %s", e.Kind(), e.Constraint, e.Detail)
}

// Kind maps the SQLSTATE code to a ConstraintKind.
func (e *ConstraintError) Kind() ConstraintKind {
	switch e.Code {
	case pgerrcode.UniqueViolation:
		return ConstraintUnique
	case pgerrcode.ForeignKeyViolation:
		return ConstraintForeignKey
	case pgerrcode.NotNullViolation:
		return ConstraintNotNull
	case pgerrcode.CheckViolation:
		return ConstraintCheck
	default:
		return ConstraintOther
	}
}

// classify converts recognized driver errors into the storage taxonomy and
// wraps everything else.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return &ConstraintError{
			Code:       pgErr.Code,
			Constraint: pgErr.ConstraintName,
			Table:      pgErr.TableName,
			Column:     pgErr.ColumnName,
			Detail:     pgErr.Detail,
		}
	}
	return fmt.Errorf("db error: %w", err)
}
