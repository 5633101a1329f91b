// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// the store client, the presenters, the controller and the store
// handlers can all import types without depending on each other.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Closed sets offered by the form's dropdowns.
const (
	Section3CA = "3CA"
	Section3CB = "3CB"
	Section3CC = "3CC"

	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"
	GradeF = "F"

	DefaultSection = Section3CA
	DefaultGrade   = GradeA
)

// Sections returns the selectable sections in display order.
func Sections() []string {
	return []string{Section3CA, Section3CB, Section3CC}
}

// Grades returns the selectable grades in display order.
func Grades() []string {
	return []string{GradeA, GradeB, GradeC, GradeD, GradeF}
}

// Student represents one student's persisted evaluation record.
//
// Struct tags serve two purposes:
//
//  1. json:"..."      controls how the field appears on the wire.
//     The id is omitted on create so the store assigns one.
//
//  2. validate:"..."  rules checked by the go-playground/validator
//     package, both by the store when a record arrives and by the
//     client when a record comes back from the store.
//
// Grade is chosen by the user and is deliberately not derived from Marks.
type Student struct {
	ID      string  `json:"id,omitempty"`
	Name    string  `json:"name"    validate:"required,min=2"`
	Section string  `json:"section" validate:"required,oneof=3CA 3CB 3CC"`
	Marks   float64 `json:"marks"   validate:"gte=0,lte=100"`
	Grade   string  `json:"grade"   validate:"required,oneof=A B C D F"`
}

// wireStudent is the loosely-typed shape accepted from a store.
// Schemaless stores hand back numeric ids and, when the record was
// created from an HTML form, marks encoded as a string.
type wireStudent struct {
	ID      json.RawMessage `json:"id"`
	Name    string          `json:"name"`
	Section string          `json:"section"`
	Marks   json.RawMessage `json:"marks"`
	Grade   string          `json:"grade"`
}

// UnmarshalJSON is the parse boundary for records coming off the wire.
// A record whose id or marks cannot be read as the declared type fails
// here instead of travelling through the application half-filled.
func (s *Student) UnmarshalJSON(data []byte) error {
	var w wireStudent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	id, err := decodeID(w.ID)
	if err != nil {
		return fmt.Errorf("student id: %w", err)
	}

	marks, err := decodeMarks(w.Marks)
	if err != nil {
		return fmt.Errorf("student marks: %w", err)
	}

	*s = Student{
		ID:      id,
		Name:    w.Name,
		Section: w.Section,
		Marks:   marks,
		Grade:   w.Grade,
	}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}

	return "", fmt.Errorf("unsupported value %s", string(raw))
}

func decodeMarks(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errors.New("missing value")
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unsupported value %s", string(raw))
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}

// Draft is the raw candidate held by the add/edit form.
// Every field is text, exactly as typed; it only becomes a Student
// once the form validator has accepted it.
type Draft struct {
	Name    string `json:"name"`
	Section string `json:"section"`
	Marks   string `json:"marks"`
	Grade   string `json:"grade"`
}

// NewDraft returns the blank form used when adding a student.
func NewDraft() Draft {
	return Draft{
		Section: DefaultSection,
		Grade:   DefaultGrade,
	}
}

// DraftFrom pre-fills the form with an existing record for editing.
func DraftFrom(s Student) Draft {
	return Draft{
		Name:    s.Name,
		Section: s.Section,
		Marks:   FormatMarks(s.Marks),
		Grade:   s.Grade,
	}
}

// Student converts an accepted draft into a record ready to persist.
// It returns an error only if Marks does not parse, which cannot happen
// for a draft that passed validation.
func (d Draft) Student() (Student, error) {
	marks, err := strconv.ParseFloat(strings.TrimSpace(d.Marks), 64)
	if err != nil {
		return Student{}, fmt.Errorf("draft marks: %w", err)
	}

	return Student{
		Name:    strings.TrimSpace(d.Name),
		Section: d.Section,
		Marks:   marks,
		Grade:   d.Grade,
	}, nil
}

// FormatMarks renders marks without trailing zeros: 95, 72.5.
func FormatMarks(marks float64) string {
	return strconv.FormatFloat(marks, 'f', -1, 64)
}
