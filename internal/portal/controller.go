// Package portal implements the application controller: it owns the
// portal's state and moves it between the list, add, edit and details
// views in response to user actions, calling the store for reads and
// writes along the way.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aanand-mishra/student-results/internal/presenter"
	"github.com/aanand-mishra/student-results/internal/types"
	"github.com/aanand-mishra/student-results/internal/validation"
)

var (
	// ErrBusy is returned while another load, submit or delete is in flight.
	ErrBusy = errors.New("another operation is in progress")

	// ErrInvalidTransition is returned for an action the current view does not offer.
	ErrInvalidTransition = errors.New("action not available in the current view")

	// ErrUnknownRecord is returned when an id is not in the loaded collection.
	ErrUnknownRecord = errors.New("student is not in the loaded list")

	// ErrUnknownField is returned by ChangeField for a name the form does not have.
	ErrUnknownField = errors.New("unknown form field")
)

// Notice texts.
const (
	MsgLoadFailed   = "Failed to load students. Make sure the student store is running."
	MsgAdded        = "Student added successfully!"
	MsgUpdated      = "Student updated successfully!"
	MsgSubmitFailed = "Operation failed. Try again."
	MsgDeleted      = "Student deleted successfully!"
	MsgDeleteFailed = "Delete failed. Try again."
)

// Store is the subset of the record store client the controller needs.
type Store interface {
	ListAll(ctx context.Context) ([]types.Student, error)
	Create(ctx context.Context, s types.Student) (types.Student, error)
	Update(ctx context.Context, id string, s types.Student) (types.Student, error)
	Remove(ctx context.Context, id string) (bool, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for action diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// Controller is the single owner of State.
//
// The mutex only guards reads and writes of state. It is never held
// across a store call; the Loading flag is what keeps a second write
// from starting while one is in flight.
type Controller struct {
	store Store
	log   *slog.Logger

	mu          sync.Mutex
	state       State
	subscribers []func(State)
}

// New returns a controller on the list view with nothing loaded.
func New(store Store, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		log:   slog.Default(),
		state: initialState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to receive every new state after a transition.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Load re-fetches the whole collection, replacing the cached copy.
func (c *Controller) Load(ctx context.Context) (State, error) {
	if err := c.begin(ViewList); err != nil {
		return c.Snapshot(), err
	}

	records, err := c.store.ListAll(ctx)

	return c.finish(func(s *State) error {
		if err != nil {
			c.log.Error("loading students failed", slog.String("error", err.Error()))
			s.Notice = &Notice{Kind: NoticeError, Message: MsgLoadFailed}
			return err
		}

		s.Records = records
		s.Query.Page = clampPage(s.Records, s.Query)
		s.Notice = &Notice{Kind: NoticeSuccess, Message: fmt.Sprintf("Loaded %d students", len(records))}
		return nil
	})
}

// AddNew opens an empty form.
func (c *Controller) AddNew() (State, error) {
	return c.transition(func(s *State) error {
		if err := s.expect(ViewList); err != nil {
			return err
		}
		s.View = ViewAdd
		s.Selected = nil
		s.Draft = types.NewDraft()
		s.Errors = validation.Errors{}
		return nil
	})
}

// Edit opens the form pre-filled with the record stored under id.
func (c *Controller) Edit(id string) (State, error) {
	return c.transition(func(s *State) error {
		if err := s.expect(ViewList); err != nil {
			return err
		}
		rec, ok := s.find(id)
		if !ok {
			return ErrUnknownRecord
		}
		s.View = ViewEdit
		s.Selected = &rec
		s.Draft = types.DraftFrom(rec)
		s.Errors = validation.Errors{}
		return nil
	})
}

// View opens the details card of the record stored under id.
func (c *Controller) View(id string) (State, error) {
	return c.transition(func(s *State) error {
		if err := s.expect(ViewList); err != nil {
			return err
		}
		rec, ok := s.find(id)
		if !ok {
			return ErrUnknownRecord
		}
		s.View = ViewDetails
		s.Selected = &rec
		return nil
	})
}

// ChangeField records one edit to the form and optimistically clears
// that field's error. The field is re-checked on the next submit.
func (c *Controller) ChangeField(field, value string) (State, error) {
	return c.transition(func(s *State) error {
		if err := s.expect(ViewAdd, ViewEdit); err != nil {
			return err
		}
		switch field {
		case validation.FieldName:
			s.Draft.Name = value
		case validation.FieldSection:
			s.Draft.Section = value
		case validation.FieldMarks:
			s.Draft.Marks = value
		case validation.FieldGrade:
			s.Draft.Grade = value
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		s.Errors.Clear(field)
		return nil
	})
}

// Submit validates the draft and, if it passes, creates (add view) or
// fully replaces (edit view) the record in the store. An invalid draft
// never reaches the store; the returned error is the validation.Errors.
func (c *Controller) Submit(ctx context.Context, draft types.Draft) (State, error) {
	var (
		view   View
		target string
	)

	c.mu.Lock()
	if err := c.state.expect(ViewAdd, ViewEdit); err != nil {
		c.mu.Unlock()
		return c.Snapshot(), err
	}
	if c.state.Loading {
		c.mu.Unlock()
		return c.Snapshot(), ErrBusy
	}

	c.state.Draft = draft
	errs := validation.Validate(draft)
	c.state.Errors = errs
	if !errs.Valid() {
		c.mu.Unlock()
		return c.publish(), errs
	}

	record, err := draft.Student()
	if err != nil {
		c.mu.Unlock()
		return c.publish(), err
	}

	view = c.state.View
	if view == ViewEdit && c.state.Selected != nil {
		target = c.state.Selected.ID
	}
	c.state.Loading = true
	c.mu.Unlock()
	c.publish()

	var saved types.Student
	if view == ViewAdd {
		saved, err = c.store.Create(ctx, record)
	} else {
		saved, err = c.store.Update(ctx, target, record)
	}

	return c.finish(func(s *State) error {
		if err != nil {
			c.log.Error("saving student failed",
				slog.String("view", string(view)),
				slog.String("id", target),
				slog.String("error", err.Error()))
			s.Notice = &Notice{Kind: NoticeError, Message: MsgSubmitFailed}
			return err
		}

		if view == ViewAdd {
			s.Records = append(s.Records, saved)
			s.Notice = &Notice{Kind: NoticeSuccess, Message: MsgAdded}
		} else {
			s.Records = replaceByID(s.Records, saved)
			s.Notice = &Notice{Kind: NoticeSuccess, Message: MsgUpdated}
		}
		s.toList()
		return nil
	})
}

// Cancel leaves the form, discarding the draft.
func (c *Controller) Cancel() (State, error) {
	return c.transition(func(s *State) error {
		if err := s.expect(ViewAdd, ViewEdit); err != nil {
			return err
		}
		if s.Loading {
			return ErrBusy
		}
		s.toList()
		return nil
	})
}

// Back leaves the details card.
func (c *Controller) Back() (State, error) {
	return c.transition(func(s *State) error {
		if err := s.expect(ViewDetails); err != nil {
			return err
		}
		s.toList()
		return nil
	})
}

// Delete removes the record from the store and, once the store has
// confirmed, from the cached collection. Confirmation is the caller's job.
func (c *Controller) Delete(ctx context.Context, id string) (State, error) {
	if err := c.begin(ViewList); err != nil {
		return c.Snapshot(), err
	}

	_, err := c.store.Remove(ctx, id)

	return c.finish(func(s *State) error {
		if err != nil {
			c.log.Error("deleting student failed", slog.String("id", id), slog.String("error", err.Error()))
			s.Notice = &Notice{Kind: NoticeError, Message: MsgDeleteFailed}
			return err
		}

		s.Records = slices.DeleteFunc(s.Records, func(r types.Student) bool { return r.ID == id })
		s.Query.Page = clampPage(s.Records, s.Query)
		s.Notice = &Notice{Kind: NoticeSuccess, Message: MsgDeleted}
		return nil
	})
}

// SetSearch changes the name search and returns to the first page.
func (c *Controller) SetSearch(term string) State {
	st, _ := c.transition(func(s *State) error {
		if s.Query.Search != term {
			s.Query.Search = term
			s.Query.Page = 1
		}
		return nil
	})
	return st
}

// SetSection changes the section filter and returns to the first page.
func (c *Controller) SetSection(section string) State {
	if section == "" {
		section = presenter.AllSections
	}
	st, _ := c.transition(func(s *State) error {
		if s.Query.Section != section {
			s.Query.Section = section
			s.Query.Page = 1
		}
		return nil
	})
	return st
}

// SetSort changes the sort key. The page is kept.
func (c *Controller) SetSort(key string) State {
	st, _ := c.transition(func(s *State) error {
		s.Query.Sort = key
		return nil
	})
	return st
}

// SetPage moves to page, clamped to the pages that exist.
func (c *Controller) SetPage(page int) State {
	st, _ := c.transition(func(s *State) error {
		s.Query.Page = page
		s.Query.Page = clampPage(s.Records, s.Query)
		return nil
	})
	return st
}

// NextPage moves one page forward, stopping at the last page.
func (c *Controller) NextPage() State {
	st, _ := c.transition(func(s *State) error {
		s.Query.Page++
		s.Query.Page = clampPage(s.Records, s.Query)
		return nil
	})
	return st
}

// PrevPage moves one page back, stopping at the first page.
func (c *Controller) PrevPage() State {
	st, _ := c.transition(func(s *State) error {
		s.Query.Page--
		s.Query.Page = clampPage(s.Records, s.Query)
		return nil
	})
	return st
}

// DismissNotice acknowledges the current notice.
func (c *Controller) DismissNotice() State {
	st, _ := c.transition(func(s *State) error {
		s.Notice = nil
		return nil
	})
	return st
}

// transition applies fn under the lock and publishes the result if fn succeeds.
func (c *Controller) transition(fn func(*State) error) (State, error) {
	c.mu.Lock()
	next := c.state.clone()
	if err := fn(&next); err != nil {
		c.mu.Unlock()
		return c.Snapshot(), err
	}
	c.state = next
	c.mu.Unlock()
	return c.publish(), nil
}

// begin takes the loading gate for an action that starts in one of views.
func (c *Controller) begin(views ...View) error {
	c.mu.Lock()
	if err := c.state.expect(views...); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state.Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state.Loading = true
	c.mu.Unlock()

	c.publish()
	return nil
}

// finish applies the outcome of an in-flight action and always releases
// the loading gate, whether the action succeeded or not.
func (c *Controller) finish(apply func(*State) error) (State, error) {
	c.mu.Lock()
	err := apply(&c.state)
	c.state.Loading = false
	c.mu.Unlock()

	return c.publish(), err
}

func (c *Controller) publish() State {
	c.mu.Lock()
	st := c.state.clone()
	subs := slices.Clone(c.subscribers)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(st.clone())
	}
	return st
}

func (s *State) expect(views ...View) error {
	if slices.Contains(views, s.View) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidTransition, s.View)
}

func (s *State) find(id string) (types.Student, bool) {
	i := slices.IndexFunc(s.Records, func(r types.Student) bool { return r.ID == id })
	if i < 0 {
		return types.Student{}, false
	}
	return s.Records[i], true
}

func (s *State) toList() {
	s.View = ViewList
	s.Selected = nil
	s.Draft = types.NewDraft()
	s.Errors = validation.Errors{}
}

func replaceByID(records []types.Student, updated types.Student) []types.Student {
	out := slices.Clone(records)
	for i := range out {
		if out[i].ID == updated.ID {
			out[i] = updated
		}
	}
	return out
}

func clampPage(records []types.Student, q presenter.Query) int {
	matched := presenter.Filter(records, q.Search, q.Section)
	return presenter.ClampPage(q.Page, presenter.TotalPages(len(matched)))
}
