// Package storage defines the Storage interface, a contract that any
// backend of the students store must satisfy.
//
// WHY AN INTERFACE?
// ─────────────────
// The HTTP handlers should not know or care where records live. By
// depending only on this interface:
//
//   - Switching backends = pick another driver in the config file.
//     memory, sqlite and postgres all satisfy Storage.
//
//   - Writing tests = pass the memory backend. No database needed.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-results/internal/types"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("student not found")

// Storage is the persistence contract of the students collection.
// Ids are opaque strings assigned by the backend on Create.
type Storage interface {
	// List returns every record in insertion order.
	// Returns an empty slice (not nil) if there are none.
	List(ctx context.Context) ([]types.Student, error)

	// Get fetches one record, or ErrNotFound.
	Get(ctx context.Context, id string) (types.Student, error)

	// Create stores a new record under a fresh id and returns it.
	// Any id on the input is ignored.
	Create(ctx context.Context, student types.Student) (types.Student, error)

	// Update replaces every field of the record stored under id and
	// returns the stored result, or ErrNotFound.
	Update(ctx context.Context, id string, student types.Student) (types.Student, error)

	// Delete removes a record permanently, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases the backend's resources.
	Close() error
}
