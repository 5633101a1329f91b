// Package sqlstore holds the SQL shared by the relational backends.
// Queries are built with squirrel so the same code serves SQLite's "?"
// placeholders and PostgreSQL's "$1" placeholders.
package sqlstore

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/aanand-mishra/student-results/internal/types"
)

// Table is the name of the students table.
const Table = "students"

// Columns lists the selected columns in Scan order.
var Columns = []string{"id", "name", "section", "marks", "grade"}

// Query is a built statement ready for Exec/Query.
type Query struct {
	SQL  string
	Args []any
}

// Builder produces the statements of one SQL dialect.
type Builder struct {
	sb squirrel.StatementBuilderType

	// orderBy keeps List in insertion order.
	orderBy string
}

// SQLite returns a builder for SQLite ("?" placeholders, rowid order).
func SQLite() Builder {
	return Builder{
		sb:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		orderBy: "rowid ASC",
	}
}

// Postgres returns a builder for PostgreSQL ("$n" placeholders, created_at order).
func Postgres() Builder {
	return Builder{
		sb:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		orderBy: "created_at ASC, id ASC",
	}
}

// List selects every record in insertion order.
func (b Builder) List() (Query, error) {
	return build("list students", b.sb.Select(Columns...).From(Table).OrderBy(b.orderBy))
}

// Get selects one record by id.
func (b Builder) Get(id string) (Query, error) {
	return build("get student", b.sb.Select(Columns...).
		From(Table).
		Where(squirrel.Eq{"id": id}).
		Limit(1))
}

// Insert stores s under the given id.
func (b Builder) Insert(id string, s types.Student) (Query, error) {
	return build("insert student", b.sb.Insert(Table).
		Columns(Columns...).
		Values(id, s.Name, s.Section, s.Marks, s.Grade))
}

// Update replaces every field of the record with the given id.
func (b Builder) Update(id string, s types.Student) (Query, error) {
	return build("update student", b.sb.Update(Table).
		SetMap(map[string]any{
			"name":    s.Name,
			"section": s.Section,
			"marks":   s.Marks,
			"grade":   s.Grade,
		}).
		Where(squirrel.Eq{"id": id}))
}

// Delete removes the record with the given id.
func (b Builder) Delete(id string) (Query, error) {
	return build("delete student", b.sb.Delete(Table).Where(squirrel.Eq{"id": id}))
}

func build(op string, s squirrel.Sqlizer) (Query, error) {
	sql, args, err := s.ToSql()
	if err != nil {
		return Query{}, fmt.Errorf("%s: build sql: %w", op, err)
	}
	return Query{SQL: sql, Args: args}, nil
}

// Scanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanStudent reads one row selected with Columns.
func ScanStudent(row Scanner) (types.Student, error) {
	var s types.Student
	err := row.Scan(&s.ID, &s.Name, &s.Section, &s.Marks, &s.Grade)
	return s, err
}
