// Package student contains the HTTP handlers of the students store,
// the id-addressed JSON collection the portal talks to.
//
// HANDLER PATTERN USED HERE: THE CLOSURE / FACTORY PATTERN
// ────────────────────────────────────────────────────────────
// Each exported function accepts its dependencies (storage) once, at
// route registration, and returns the http.HandlerFunc that serves
// every request:
//
//	r.Post("/", student.New(storage))
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-results/internal/storage"
	"github.com/aanand-mishra/student-results/internal/types"
	"github.com/aanand-mishra/student-results/internal/utils/response"
)

var validate = validator.New()

// Routes mounts the collection handlers on a fresh router:
//
//	GET    /      → list all students
//	POST   /      → create a student
//	GET    /{id}  → get one student
//	PUT    /{id}  → replace a student
//	DELETE /{id}  → delete a student
func Routes(storage storage.Storage) chi.Router {
	r := chi.NewRouter()

	r.Get("/", GetList(storage))
	r.Post("/", New(storage))
	r.Get("/{id}", GetByID(storage))
	r.Put("/{id}", Update(storage))
	r.Delete("/{id}", Delete(storage))

	return r
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students
// Creates a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "name": "Ann", "section": "3CA", "marks": 95, "grade": "A" }
//
// Success response (201 Created), the stored record with its new id:
//
//	{ "id": "6f0c…", "name": "Ann", "section": "3CA", "marks": 95, "grade": "A" }
//
// Error responses:
//
//	400 Bad Request: empty body, malformed JSON, or failed validation
//	500 Internal: storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}

		created, err := storage.Create(r.Context(), student)
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		slog.Info("student created", slog.String("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /students/{id}
//
// Error responses:
//
//	404 Not Found: no student with that id
//	500 Internal: storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := storage.Get(r.Context(), id)
		if err != nil {
			writeStorageError(w, "error getting student", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /students
// Returns a JSON array of every student, in insertion order.
// Returns an empty array [] (not null) when there are no students.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := storage.List(r.Context())
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /students/{id}
// Replaces ALL fields of an existing student; there is no partial update.
// The id in the path wins over any id in the body.
//
// Error responses:
//
//	400 Bad Request: empty body or validation failure
//	404 Not Found: no student with that id
//	500 Internal: storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("updating a student", slog.String("id", id))

		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}

		updated, err := storage.Update(r.Context(), id, student)
		if err != nil {
			writeStorageError(w, "error updating student", id, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /students/{id}
// Success is 204 No Content with an empty body.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := storage.Delete(r.Context(), id); err != nil {
			writeStorageError(w, "error deleting student", id, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// decodeStudent reads and validates the request body. On failure it has
// already written the 400 response and returns false.
func decodeStudent(w http.ResponseWriter, r *http.Request) (types.Student, bool) {
	var student types.Student

	err := json.NewDecoder(r.Body).Decode(&student)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return types.Student{}, false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return types.Student{}, false
	}

	student.Name = strings.TrimSpace(student.Name)

	if err := validate.Struct(student); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
			return types.Student{}, false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return types.Student{}, false
	}

	return student, true
}

func writeStorageError(w http.ResponseWriter, msg, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
		return
	}

	slog.Error(msg, slog.String("id", id), slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}
