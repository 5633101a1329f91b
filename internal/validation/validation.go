// Package validation implements the advisory, client-side checks the
// add/edit form runs before anything is sent to the store.
package validation

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-results/internal/types"
)

// Form field names used as keys in Errors.
const (
	FieldName    = "name"
	FieldSection = "section"
	FieldMarks   = "marks"
	FieldGrade   = "grade"
)

// Messages shown next to the offending field.
const (
	MsgNameRequired = "Name is required"
	MsgNameTooShort = "Name must be at least 2 characters"
	MsgMarksMissing = "Marks is required"
	MsgMarksRange   = "Marks must be between 0 and 100"
)

var validate = validator.New()

// Errors maps a form field to its error message.
// An empty Errors means the draft is acceptable.
type Errors map[string]string

// Valid reports whether no field failed.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Clear drops the error for one field. The form calls this as soon as
// the user edits that field; it is not re-checked until the next submit.
func (e Errors) Clear(field string) {
	delete(e, field)
}

// Error joins the messages in field order so Errors can travel as an error.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e[f])
	}
	return strings.Join(msgs, ", ")
}

// Validate checks a candidate record and returns one message per failing field.
// Section and grade come from closed dropdowns and are not checked here.
func Validate(d types.Draft) Errors {
	errs := Errors{}

	if msg := checkName(d.Name); msg != "" {
		errs[FieldName] = msg
	}
	if msg := checkMarks(d.Marks); msg != "" {
		errs[FieldMarks] = msg
	}

	return errs
}

func checkName(raw string) string {
	name := strings.TrimSpace(raw)
	if validate.Var(name, "required") != nil {
		return MsgNameRequired
	}
	// min on a string counts runes, so "Zoë" is three characters.
	if validate.Var(name, "min=2") != nil {
		return MsgNameTooShort
	}
	return ""
}

func checkMarks(raw string) string {
	marks := strings.TrimSpace(raw)
	if validate.Var(marks, "required") != nil {
		return MsgMarksMissing
	}

	n, err := strconv.ParseFloat(marks, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return MsgMarksRange
	}
	if validate.Var(n, "gte=0,lte=100") != nil {
		return MsgMarksRange
	}
	return ""
}
