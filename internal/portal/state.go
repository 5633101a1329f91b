package portal

import (
	"maps"
	"slices"

	"github.com/aanand-mishra/student-results/internal/presenter"
	"github.com/aanand-mishra/student-results/internal/types"
	"github.com/aanand-mishra/student-results/internal/validation"
)

// View is the screen the portal is showing.
type View string

const (
	ViewList    View = "list"
	ViewAdd     View = "add"
	ViewEdit    View = "edit"
	ViewDetails View = "details"
)

// NoticeKind tells the UI how to style a notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the blocking message shown after an action settles.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// State is everything the portal knows. The controller hands out copies;
// callers may read them freely but changes only happen through the
// controller's transitions.
type State struct {
	View View

	// Records is a cache of the store, filled by Load and reconciled
	// after each successful write. It is not authoritative.
	Records []types.Student

	// Selected is the record being edited or viewed.
	Selected *types.Student

	Draft  types.Draft
	Errors validation.Errors
	Query  presenter.Query

	// Loading is set while a load, submit or delete is in flight.
	Loading bool

	Notice *Notice
}

func initialState() State {
	return State{
		View:    ViewList,
		Records: []types.Student{},
		Draft:   types.NewDraft(),
		Errors:  validation.Errors{},
		Query:   presenter.DefaultQuery(),
	}
}

// clone deep-copies the parts of State that are reference types.
func (s State) clone() State {
	out := s
	out.Records = slices.Clone(s.Records)
	out.Errors = maps.Clone(s.Errors)
	if s.Selected != nil {
		sel := *s.Selected
		out.Selected = &sel
	}
	if s.Notice != nil {
		n := *s.Notice
		out.Notice = &n
	}
	return out
}

// List derives the visible list page from the current state.
func (s State) List() presenter.ListView {
	return presenter.Present(s.Records, s.Query)
}

// Detail derives the details card of the selected record.
func (s State) Detail() (presenter.Detail, bool) {
	if s.Selected == nil {
		return presenter.Detail{}, false
	}
	return presenter.Describe(*s.Selected), true
}
