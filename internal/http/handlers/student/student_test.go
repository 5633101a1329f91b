package student

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-results/internal/storage/memory"
	"github.com/aanand-mishra/student-results/internal/types"
	"github.com/aanand-mishra/student-results/internal/utils/response"
)

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var r response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return r
}

func TestRoutes_Lifecycle(t *testing.T) {
	t.Parallel()
	h := Routes(memory.New())

	rec := serve(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(t, h, http.MethodPost, "/", `{"name":"  Ann  ","section":"3CA","marks":95,"grade":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created types.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Ann", created.Name)

	rec = serve(t, h, http.MethodPut, "/"+created.ID, `{"id":"ignored","name":"Ann Lee","section":"3CB","marks":"72.5","grade":"B"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated types.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, types.Student{ID: created.ID, Name: "Ann Lee", Section: "3CB", Marks: 72.5, Grade: "B"}, updated)

	rec = serve(t, h, http.MethodGet, "/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got types.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, updated, got)

	rec = serve(t, h, http.MethodDelete, "/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_BadRequests(t *testing.T) {
	t.Parallel()
	h := Routes(memory.New())

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty body", "", "request body is empty"},
		{"malformed json", `{"name":`, ""},
		{"marks not numeric", `{"name":"Ann","section":"3CA","marks":"lots","grade":"A"}`, "marks"},
		{"missing name", `{"section":"3CA","marks":50,"grade":"A"}`, "field Name is required"},
		{"short name", `{"name":" A ","section":"3CA","marks":50,"grade":"A"}`, "field Name must be at least 2 characters"},
		{"marks out of range", `{"name":"Ann","section":"3CA","marks":101,"grade":"A"}`, "field Marks must be at most 100"},
		{"unknown section", `{"name":"Ann","section":"9ZZ","marks":50,"grade":"A"}`, "field Section must be one of [3CA 3CB 3CC]"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, h, http.MethodPost, "/", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			r := decodeError(t, rec)
			assert.Equal(t, response.StatusError, r.Status)
			assert.Contains(t, r.Error, tt.wantErr)
		})
	}
}

func TestRoutes_NotFound(t *testing.T) {
	t.Parallel()
	h := Routes(memory.New())

	rec := serve(t, h, http.MethodPut, "/missing", `{"name":"Ann","section":"3CA","marks":50,"grade":"A"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, h, http.MethodDelete, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, response.StatusError, decodeError(t, rec).Status)
}

type failingStorage struct {
	*memory.Memory
}

func (failingStorage) List(context.Context) ([]types.Student, error) {
	return nil, errors.New("disk on fire")
}

func (failingStorage) Get(context.Context, string) (types.Student, error) {
	return types.Student{}, errors.New("disk on fire")
}

func TestRoutes_StorageFailure(t *testing.T) {
	t.Parallel()
	h := Routes(failingStorage{memory.New()})

	rec := serve(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "disk on fire", decodeError(t, rec).Error)

	rec = serve(t, h, http.MethodGet, "/abc", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
