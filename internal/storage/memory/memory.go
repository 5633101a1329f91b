// Package memory provides an in-process implementation of
// storage.Storage. Records live only as long as the process does.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-results/internal/storage"
	"github.com/aanand-mishra/student-results/internal/types"
)

// Memory keeps records in a map plus a slice that remembers insertion order.
// It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	byID  map[string]types.Student
	order []string
	newID func() string
}

// New returns an empty store that assigns random UUIDs.
func New() *Memory {
	return &Memory{
		byID:  make(map[string]types.Student),
		newID: uuid.NewString,
	}
}

// List returns every record in insertion order.
func (m *Memory) List(_ context.Context) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, 0, len(m.order))
	for _, id := range m.order {
		students = append(students, m.byID[id])
	}
	return students, nil
}

// Get returns the record stored under id, or storage.ErrNotFound.
func (m *Memory) Get(_ context.Context, id string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byID[id]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	return s, nil
}

// Create stores student under a fresh UUID and returns it with that id.
func (m *Memory) Create(_ context.Context, student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	student.ID = m.newID()
	m.byID[student.ID] = student
	m.order = append(m.order, student.ID)
	return student, nil
}

// Update replaces the record stored under id, keeping its position.
func (m *Memory) Update(_ context.Context, id string, student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return types.Student{}, storage.ErrNotFound
	}

	student.ID = id
	m.byID[id] = student
	return student, nil
}

// Delete removes the record stored under id, or returns storage.ErrNotFound.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return storage.ErrNotFound
	}

	delete(m.byID, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op; there is nothing to release.
func (m *Memory) Close() error {
	return nil
}
