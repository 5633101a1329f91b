// Package web serves the student results portal: a server-rendered
// single page whose content is always re-derived from the controller's
// current state. Every action posts to the server, runs one controller
// transition and redirects back to "/".
package web

import (
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/aanand-mishra/student-results/internal/portal"
	"github.com/aanand-mishra/student-results/internal/presenter"
	"github.com/aanand-mishra/student-results/internal/types"
)

//go:embed templates
var templateFS embed.FS

const appTitle = "Student Evaluation Portal"

// Handler binds HTTP routes to one controller. The portal is a
// single-user application: every browser tab shares that controller.
type Handler struct {
	ctrl *portal.Controller
}

// NewApp builds the fiber application with templates, middleware and routes.
func NewApp(ctrl *portal.Controller) (*fiber.App, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("pageURL", func(page int) string {
		return "/?page=" + strconv.Itoa(page)
	})
	engine.AddFunc("inc", func(n int) int { return n + 1 })
	engine.AddFunc("dec", func(n int) int { return n - 1 })

	// Query and form values end up in the controller's state, which
	// outlives the request, so they must not alias fasthttp's buffers.
	app := fiber.New(fiber.Config{
		Immutable:             true,
		Views:                 engine,
		ViewsLayout:           "layouts/main",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	h := &Handler{ctrl: ctrl}
	h.Register(app)

	return app, nil
}

// Register mounts the portal routes.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/", h.Page)
	app.Post("/load", h.Load)
	app.Post("/notice/dismiss", h.DismissNotice)

	app.Get("/students/new", h.AddNew)
	app.Post("/students", h.Submit)
	app.Post("/students/field", h.ChangeField)
	app.Post("/cancel", h.Cancel)
	app.Post("/back", h.Back)

	app.Get("/students/:id", h.View)
	app.Get("/students/:id/edit", h.Edit)
	app.Get("/students/:id/delete", h.ConfirmDelete)
	app.Post("/students/:id/delete", h.Delete)
}

// Page renders whatever view the controller is on. Query parameters
// search, section, sort and page adjust the list before rendering.
func (h *Handler) Page(c *fiber.Ctx) error {
	params := c.Queries()
	if v, ok := params["search"]; ok {
		h.ctrl.SetSearch(strings.TrimSpace(v))
	}
	if v, ok := params["section"]; ok {
		h.ctrl.SetSection(v)
	}
	if v, ok := params["sort"]; ok {
		h.ctrl.SetSort(v)
	}
	if v, ok := params["page"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			h.ctrl.SetPage(n)
		}
	}

	return h.render(c, h.ctrl.Snapshot())
}

func (h *Handler) render(c *fiber.Ctx, st portal.State) error {
	data := fiber.Map{
		"Title":   appTitle,
		"State":   st,
		"Loading": st.Loading,
		"Notice":  st.Notice,
	}

	switch st.View {
	case portal.ViewAdd, portal.ViewEdit:
		data["Editing"] = st.View == portal.ViewEdit
		data["Draft"] = st.Draft
		data["Errors"] = st.Errors
		data["Sections"] = types.Sections()
		data["Grades"] = types.Grades()
		return c.Render("form", data)

	case portal.ViewDetails:
		detail, ok := st.Detail()
		if !ok {
			return fiber.NewError(fiber.StatusInternalServerError, "no student selected")
		}
		data["Detail"] = detail
		return c.Render("details", data)

	default:
		data["List"] = st.List()
		data["SortKeys"] = []string{presenter.SortByName, presenter.SortByMarks, presenter.SortBySection}
		data["AllSections"] = presenter.AllSections
		return c.Render("list", data)
	}
}

// Load handles POST /load: re-fetch every record from the store.
func (h *Handler) Load(c *fiber.Ctx) error {
	_, err := h.ctrl.Load(c.UserContext())
	return h.settle(c, err)
}

// DismissNotice handles POST /notice/dismiss (the notice's OK button).
func (h *Handler) DismissNotice(c *fiber.Ctx) error {
	h.ctrl.DismissNotice()
	return h.home(c)
}

// AddNew handles GET /students/new: open an empty form.
func (h *Handler) AddNew(c *fiber.Ctx) error {
	_, err := h.ctrl.AddNew()
	return h.settle(c, err)
}

// Edit handles GET /students/:id/edit: open the form pre-filled.
func (h *Handler) Edit(c *fiber.Ctx) error {
	_, err := h.ctrl.Edit(c.Params("id"))
	return h.settle(c, err)
}

// View handles GET /students/:id: open the details card.
func (h *Handler) View(c *fiber.Ctx) error {
	_, err := h.ctrl.View(c.Params("id"))
	return h.settle(c, err)
}

// Submit handles POST /students. The open form decides whether this
// creates or replaces a record.
func (h *Handler) Submit(c *fiber.Ctx) error {
	draft := types.Draft{
		Name:    c.FormValue("name"),
		Section: c.FormValue("section", types.DefaultSection),
		Marks:   c.FormValue("marks"),
		Grade:   c.FormValue("grade", types.DefaultGrade),
	}

	_, err := h.ctrl.Submit(c.UserContext(), draft)
	return h.settle(c, err)
}

// ChangeField handles POST /students/field, sent by the form on every
// edit. It stores the value and drops that field's error message.
//
//	204 No Content: recorded
//	400 Bad Request: unknown field
//	409 Conflict: no form is open
func (h *Handler) ChangeField(c *fiber.Ctx) error {
	_, err := h.ctrl.ChangeField(c.FormValue("field"), c.FormValue("value"))
	switch {
	case err == nil:
		return c.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, portal.ErrUnknownField):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, portal.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}

// Cancel handles POST /cancel: leave the form.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	_, err := h.ctrl.Cancel()
	return h.settle(c, err)
}

// Back handles POST /back: leave the details card.
func (h *Handler) Back(c *fiber.Ctx) error {
	_, err := h.ctrl.Back()
	return h.settle(c, err)
}

// ConfirmDelete asks "Are you sure?" before anything is removed.
func (h *Handler) ConfirmDelete(c *fiber.Ctx) error {
	st := h.ctrl.Snapshot()
	if st.View != portal.ViewList {
		return h.home(c)
	}

	id := c.Params("id")
	for _, r := range st.Records {
		if r.ID == id {
			return c.Render("confirm", fiber.Map{
				"Title":   appTitle,
				"Student": r,
				"Loading": st.Loading,
			})
		}
	}
	return fiber.NewError(fiber.StatusNotFound, portal.ErrUnknownRecord.Error())
}

// Delete handles POST /students/:id/delete, sent from the confirmation page.
func (h *Handler) Delete(c *fiber.Ctx) error {
	_, err := h.ctrl.Delete(c.UserContext(), c.Params("id"))
	return h.settle(c, err)
}

// settle maps a transition's outcome to a response. Store failures and
// validation errors are already recorded in the state as a notice or
// field errors, so they simply redirect back to the page.
func (h *Handler) settle(c *fiber.Ctx, err error) error {
	switch {
	case err == nil:
		return h.home(c)
	case errors.Is(err, portal.ErrBusy):
		return fiber.NewError(fiber.StatusConflict, "Please wait for the current operation to finish.")
	case errors.Is(err, portal.ErrUnknownRecord):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, portal.ErrInvalidTransition):
		slog.Debug("ignored action", slog.String("path", c.Path()), slog.String("error", err.Error()))
		return h.home(c)
	default:
		return h.home(c)
	}
}

func (h *Handler) home(c *fiber.Ctx) error {
	return c.Redirect("/", fiber.StatusSeeOther)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("portal request failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
	}

	return c.Status(code).Render("error", fiber.Map{
		"Title":        appTitle,
		"ErrorCode":    code,
		"ErrorMessage": err.Error(),
	})
}
