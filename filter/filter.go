// Package filter composes parameterized WHERE clauses declaratively.
//
// A filter set is built once per entity from typed accessors: each clause
// names a column and a function extracting the corresponding value from the
// request's parameter struct. Applicability is the accessor's ok result, so
// an unset query parameter simply contributes no condition. Conditions use
// "?" placeholders and are rebound to $1..$n when the statement is built.
package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Accessor extracts a filter value from a parameter struct. Return ok=false
// to skip the clause for this request.
type Accessor[P any] func(p P) (value any, ok bool)

// Clause contributes zero or one condition to a Builder.
type Clause[P any] interface {
	Apply(p P, b *Builder)
}

type clause[P any] struct {
	column string
	op     string
	get    Accessor[P]
}

func (c clause[P]) Apply(p P, b *Builder) {
	v, ok := c.get(p)
	if !ok {
		return
	}
	b.Where(fmt.Sprintf("%s %s ?", c.column, c.op), v)
}

// Eq filters column = value.
func Eq[P any](column string, get Accessor[P]) Clause[P] {
	return clause[P]{column: column, op: "=", get: get}
}

// Ge filters column >= value.
func Ge[P any](column string, get Accessor[P]) Clause[P] {
	return clause[P]{column: column, op: ">=", get: get}
}

// Le filters column <= value.
func Le[P any](column string, get Accessor[P]) Clause[P] {
	return clause[P]{column: column, op: "<=", get: get}
}

// Gt filters column > value.
func Gt[P any](column string, get Accessor[P]) Clause[P] {
	return clause[P]{column: column, op: ">", get: get}
}

// Lt filters column < value.
func Lt[P any](column string, get Accessor[P]) Clause[P] {
	return clause[P]{column: column, op: "<", get: get}
}

type containsClause[P any] struct {
	column string
	get    Accessor[P]
}

func (c containsClause[P]) Apply(p P, b *Builder) {
	v, ok := c.get(p)
	if !ok {
		return
	}
	b.Where(fmt.Sprintf("%s LIKE ?", c.column), fmt.Sprintf("%%%v%%", v))
}

// Contains filters column LIKE %value%.
func Contains[P any](column string, get Accessor[P]) Clause[P] {
	return containsClause[P]{column: column, get: get}
}

// Set is an ordered collection of clauses for one parameter type.
type Set[P any] struct {
	clauses []Clause[P]
}

// NewSet builds a Set from clauses; application order follows declaration order.
func NewSet[P any](clauses ...Clause[P]) *Set[P] {
	return &Set[P]{clauses: clauses}
}

// Apply runs every clause against p, appending conditions to b.
func (s *Set[P]) Apply(p P, b *Builder) {
	for _, c := range s.clauses {
		c.Apply(p, b)
	}
}

// Builder accumulates conditions and the statement tail. Zero value is ready
// to use.
type Builder struct {
	conds   []string
	args    []any
	orderBy string
	limit   int
	offset  int
}

// Where appends one condition written with "?" placeholders.
func (b *Builder) Where(cond string, args ...any) {
	b.conds = append(b.conds, cond)
	b.args = append(b.args, args...)
}

// OrderBy sets the ORDER BY expression, e.g. "id" or "name DESC, id".
func (b *Builder) OrderBy(expr string) { b.orderBy = expr }

// Limit sets the LIMIT; emitted only when > 0.
func (b *Builder) Limit(n int) { b.limit = n }

// Offset sets the OFFSET; emitted only when > 0.
func (b *Builder) Offset(n int) { b.offset = n }

// Build appends WHERE/ORDER BY/LIMIT/OFFSET to the base statement and
// rebinds "?" placeholders to $1..$n in order.
func (b *Builder) Build(base string) (string, []any) {
	var sb strings.Builder
	sb.WriteString(base)

	if len(b.conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.conds, " AND "))
	}
	if b.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy)
	}

	args := make([]any, len(b.args))
	copy(args, b.args)

	if b.limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, b.limit)
	}
	if b.offset > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, b.offset)
	}

	return Rebind(sb.String()), args
}

// Rebind converts "?" placeholders to postgres-style $1..$n. Exposed for
// statements assembled outside a Builder, e.g. dynamic UPDATE set lists.
func Rebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// ByID appends the canonical primary-key condition.
func ByID(b *Builder, column string, id any) {
	b.Where(fmt.Sprintf("%s = ?", column), id)
}

// TotalCount renders the window-count select-list expression list
// statements need for pagination, e.g. "count(book.id) over () AS total_count".
func TotalCount(col string) string {
	return fmt.Sprintf("count(%s) over () AS total_count", col)
}
