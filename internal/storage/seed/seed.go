// Package seed fills an empty students store from a YAML fixture so a
// freshly started development store has something to show.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/aanand-mishra/student-results/internal/storage"
	"github.com/aanand-mishra/student-results/internal/types"
)

// Fixture is the file layout:
//
//	students:
//	  - name: Ann
//	    section: 3CA
//	    marks: 95
//	    grade: A
type Fixture struct {
	Students []Record `yaml:"students"`
}

// Record is one fixture entry.
type Record struct {
	Name    string  `yaml:"name"`
	Section string  `yaml:"section"`
	Marks   float64 `yaml:"marks"`
	Grade   string  `yaml:"grade"`
}

// Load reads and validates the fixture at path.
func Load(path string) ([]types.Student, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a fixture document.
func Parse(raw []byte) ([]types.Student, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}

	v := validator.New()
	students := make([]types.Student, 0, len(f.Students))
	for i, r := range f.Students {
		s := types.Student{Name: r.Name, Section: r.Section, Marks: r.Marks, Grade: r.Grade}
		if err := v.Struct(s); err != nil {
			return nil, fmt.Errorf("seed: record %d: %w", i, err)
		}
		students = append(students, s)
	}
	return students, nil
}

// Apply creates every record in store, but only when the store is empty.
// It returns how many records were created.
func Apply(ctx context.Context, store storage.Storage, students []types.Student) (int, error) {
	existing, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: list: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("store already holds records, skipping seed", slog.Int("count", len(existing)))
		return 0, nil
	}

	for i, s := range students {
		if _, err := store.Create(ctx, s); err != nil {
			return i, fmt.Errorf("seed: create %q: %w", s.Name, err)
		}
	}
	return len(students), nil
}
