// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. That makes it a good fit for a development stand-in of the students collection.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-results/internal/storage"
	"github.com/aanand-mishra/student-results/internal/storage/sqlstore"
	"github.com/aanand-mishra/student-results/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// Schema:
//
//	id: opaque text id assigned on create (a UUID)
//	name: student's full name
//	section: class section, e.g. 3CA
//	marks: 0..100, may carry decimals
//	grade: A..F, chosen independently of marks
const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id      TEXT PRIMARY KEY,
		name    TEXT NOT NULL,
		section TEXT NOT NULL,
		marks   REAL NOT NULL,
		grade   TEXT NOT NULL
	)
`

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
	q  sqlstore.Builder
}

// New opens the SQLite database at path, creates the students table if
// it does not already exist, and returns a ready-to-use *SQLite.
func New(path string) (*SQLite, error) {
	// sql.Open does NOT open a real connection yet; it just validates
	// the driver name and data source name (DSN).
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent, so it runs on every startup.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db, q: sqlstore.SQLite()}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// List returns all rows in insertion (rowid) order.
//
// Query returns a cursor (*sql.Rows); always defer rows.Close() to
// release the connection, and check rows.Err() after the loop.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) List(ctx context.Context) ([]types.Student, error) {
	q, err := s.q.List()
	if err != nil {
		return nil, err
	}

	rows, err := s.Db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("List: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := sqlstore.ScanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows iteration: %w", err)
	}

	return students, nil
}

// Get fetches exactly one row matched by id.
func (s *SQLite) Get(ctx context.Context, id string) (types.Student, error) {
	q, err := s.q.Get(id)
	if err != nil {
		return types.Student{}, err
	}

	// QueryRow surfaces "nothing matched" only when Scan is called.
	student, err := sqlstore.ScanStudent(s.Db.QueryRowContext(ctx, q.SQL, q.Args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("Get: scan: %w", err)
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Create inserts a new row under a fresh UUID.
//
// The statement is built with placeholders, so user input is sent as
// data and never spliced into the SQL text.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Create(ctx context.Context, student types.Student) (types.Student, error) {
	id := uuid.NewString()

	q, err := s.q.Insert(id, student)
	if err != nil {
		return types.Student{}, err
	}

	if _, err := s.Db.ExecContext(ctx, q.SQL, q.Args...); err != nil {
		return types.Student{}, fmt.Errorf("Create: exec: %w", err)
	}

	student.ID = id
	return student, nil
}

// Update replaces a row and re-reads it so the caller sees exactly what is stored.
func (s *SQLite) Update(ctx context.Context, id string, student types.Student) (types.Student, error) {
	q, err := s.q.Update(id, student)
	if err != nil {
		return types.Student{}, err
	}

	res, err := s.Db.ExecContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return types.Student{}, fmt.Errorf("Update: exec: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return types.Student{}, err
	}

	return s.Get(ctx, id)
}

// Delete removes a row by id.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	q, err := s.q.Delete(id)
	if err != nil {
		return err
	}

	res, err := s.Db.ExecContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return fmt.Errorf("Delete: exec: %w", err)
	}
	return requireAffected(res)
}

// Close closes the underlying database handle.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
