// Package postgres provides a PostgreSQL implementation of
// storage.Storage on top of a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/student-results/internal/storage"
	"github.com/aanand-mishra/student-results/internal/storage/sqlstore"
	"github.com/aanand-mishra/student-results/internal/types"
)

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		section    TEXT NOT NULL,
		marks      DOUBLE PRECISION NOT NULL,
		grade      TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// Postgres stores records in a students table.
type Postgres struct {
	pool *pgxpool.Pool
	q    sqlstore.Builder
}

// New connects to dsn, checks the connection and creates the table.
func New(ctx context.Context, dsn string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: create table: %w", err)
	}

	return &Postgres{pool: pool, q: sqlstore.Postgres()}, nil
}

// List returns every row ordered by creation time.
func (p *Postgres) List(ctx context.Context) ([]types.Student, error) {
	q, err := p.q.List()
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("error querying students: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		s, err := sqlstore.ScanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}

	return students, nil
}

// Get fetches one row by id. pgx.ErrNoRows becomes storage.ErrNotFound.
func (p *Postgres) Get(ctx context.Context, id string) (types.Student, error) {
	q, err := p.q.Get(id)
	if err != nil {
		return types.Student{}, err
	}

	s, err := sqlstore.ScanStudent(p.pool.QueryRow(ctx, q.SQL, q.Args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("error getting student by id: %w", err)
	}
	return s, nil
}

// Create inserts a new row under a fresh UUID.
func (p *Postgres) Create(ctx context.Context, student types.Student) (types.Student, error) {
	id := uuid.NewString()

	q, err := p.q.Insert(id, student)
	if err != nil {
		return types.Student{}, err
	}

	if _, err := p.pool.Exec(ctx, q.SQL, q.Args...); err != nil {
		return types.Student{}, fmt.Errorf("error creating student: %w", err)
	}

	student.ID = id
	return student, nil
}

// Update replaces a row and re-reads it so the caller sees exactly what is stored.
func (p *Postgres) Update(ctx context.Context, id string, student types.Student) (types.Student, error) {
	q, err := p.q.Update(id, student)
	if err != nil {
		return types.Student{}, err
	}

	tag, err := p.pool.Exec(ctx, q.SQL, q.Args...)
	if err != nil {
		return types.Student{}, fmt.Errorf("error updating student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.Student{}, storage.ErrNotFound
	}

	return p.Get(ctx, id)
}

// Delete removes a row by id.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	q, err := p.q.Delete(id)
	if err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx, q.SQL, q.Args...)
	if err != nil {
		return fmt.Errorf("error deleting student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Close closes every connection in the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
