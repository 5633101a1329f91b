package web

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-results/internal/portal"
	"github.com/aanand-mishra/student-results/internal/storage/memory"
	"github.com/aanand-mishra/student-results/internal/types"
)

// memStore adapts the in-memory backend to the controller's Store.
type memStore struct {
	*memory.Memory
}

func (m memStore) ListAll(ctx context.Context) ([]types.Student, error) {
	return m.List(ctx)
}

func (m memStore) Remove(ctx context.Context, id string) (bool, error) {
	if err := m.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func newApp(t *testing.T, seed ...types.Student) (*fiber.App, memStore) {
	t.Helper()

	store := memStore{memory.New()}
	for _, s := range seed {
		_, err := store.Create(context.Background(), s)
		require.NoError(t, err)
	}

	app, err := NewApp(portal.New(store))
	require.NoError(t, err)
	return app, store
}

func do(t *testing.T, app *fiber.App, method, target string, form url.Values) *http.Response {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func page(t *testing.T, app *fiber.App, target string) string {
	t.Helper()

	resp := do(t, app, http.MethodGet, target, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func assertRedirectHome(t *testing.T, resp *http.Response) {
	t.Helper()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

var (
	ann = types.Student{Name: "Ann Sharma", Section: "3CA", Marks: 95, Grade: "A"}
	bob = types.Student{Name: "Bob Verma", Section: "3CB", Marks: 45, Grade: "F"}
)

func TestPortal_EmptyUntilReload(t *testing.T) {
	t.Parallel()
	app, _ := newApp(t, ann, bob)

	html := page(t, app, "/")
	assert.Contains(t, html, "Student Evaluation Portal")
	assert.Contains(t, html, "No students found")
	assert.NotContains(t, html, "Ann Sharma")

	assertRedirectHome(t, do(t, app, http.MethodPost, "/load", nil))

	html = page(t, app, "/")
	assert.Contains(t, html, "Loaded 2 students")
	assert.Contains(t, html, "Ann Sharma")
	assert.Contains(t, html, "Bob Verma")
	assert.Contains(t, html, "Total Students")
	assert.Contains(t, html, "70.0")

	assertRedirectHome(t, do(t, app, http.MethodPost, "/notice/dismiss", nil))
	assert.NotContains(t, page(t, app, "/"), "Loaded 2 students")
}

func TestPortal_SearchAndFilter(t *testing.T) {
	t.Parallel()
	app, _ := newApp(t, ann, bob)
	assertRedirectHome(t, do(t, app, http.MethodPost, "/load", nil))

	html := page(t, app, "/?search=AN&section=all&sort=marks")
	assert.Contains(t, html, "Ann Sharma")
	assert.NotContains(t, html, "Bob Verma")

	html = page(t, app, "/?search=&section=3CB")
	assert.NotContains(t, html, "Ann Sharma")
	assert.Contains(t, html, "Bob Verma")
	// Stats always cover every record.
	assert.Contains(t, html, "<strong>2</strong> Total Students")
}

func TestPortal_AddWithValidationErrors(t *testing.T) {
	t.Parallel()
	app, store := newApp(t)

	assertRedirectHome(t, do(t, app, http.MethodGet, "/students/new", nil))
	assert.Contains(t, page(t, app, "/"), "Student Name *")

	form := url.Values{"name": {""}, "section": {"3CA"}, "marks": {"150"}, "grade": {"A"}}
	assertRedirectHome(t, do(t, app, http.MethodPost, "/students", form))

	html := page(t, app, "/")
	assert.Contains(t, html, "Name is required")
	assert.Contains(t, html, "Marks must be between 0 and 100")

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	form = url.Values{"name": {"Chitra Rao"}, "section": {"3CC"}, "marks": {"78"}, "grade": {"B"}}
	assertRedirectHome(t, do(t, app, http.MethodPost, "/students", form))

	html = page(t, app, "/")
	assert.Contains(t, html, "Student added successfully!")
	assert.Contains(t, html, "Chitra Rao")

	list, err = store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 78.0, list[0].Marks)
}

func TestPortal_EditAndDetails(t *testing.T) {
	t.Parallel()
	app, store := newApp(t, bob)
	assertRedirectHome(t, do(t, app, http.MethodPost, "/load", nil))

	list, err := store.List(context.Background())
	require.NoError(t, err)
	id := list[0].ID

	assertRedirectHome(t, do(t, app, http.MethodGet, "/students/"+id, nil))
	html := page(t, app, "/")
	assert.Contains(t, html, "Performance Level")
	assert.Contains(t, html, "Needs Improvement")
	assertRedirectHome(t, do(t, app, http.MethodPost, "/back", nil))

	assertRedirectHome(t, do(t, app, http.MethodGet, "/students/"+id+"/edit", nil))
	html = page(t, app, "/")
	assert.Contains(t, html, "Edit Student")
	assert.Contains(t, html, `value="Bob Verma"`)

	form := url.Values{"name": {"Bob Verma"}, "section": {"3CB"}, "marks": {"61"}, "grade": {"C"}}
	assertRedirectHome(t, do(t, app, http.MethodPost, "/students", form))
	assert.Contains(t, page(t, app, "/"), "Student updated successfully!")

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 61.0, got.Marks)
	assert.Equal(t, "C", got.Grade)
}

func TestPortal_Delete(t *testing.T) {
	t.Parallel()
	app, store := newApp(t, ann)
	assertRedirectHome(t, do(t, app, http.MethodPost, "/load", nil))

	list, err := store.List(context.Background())
	require.NoError(t, err)
	id := list[0].ID

	html := page(t, app, "/students/"+id+"/delete")
	assert.Contains(t, html, "Are you sure?")

	assertRedirectHome(t, do(t, app, http.MethodPost, "/students/"+id+"/delete", nil))
	html = page(t, app, "/")
	assert.Contains(t, html, "Student deleted successfully!")
	assert.NotContains(t, html, "Ann Sharma")
}

func TestPortal_UnknownRecord(t *testing.T) {
	t.Parallel()
	app, _ := newApp(t)

	for _, target := range []string{"/students/missing/edit", "/students/missing", "/students/missing/delete"} {
		resp := do(t, app, http.MethodGet, target, nil)
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode, target)
		assert.Contains(t, string(raw), "Error 404", target)
	}
}

func TestPortal_ChangeFieldClearsItsError(t *testing.T) {
	t.Parallel()
	app, _ := newApp(t)

	// No form open yet.
	resp := do(t, app, http.MethodPost, "/students/field", url.Values{"field": {"name"}, "value": {"Ann"}})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	assertRedirectHome(t, do(t, app, http.MethodGet, "/students/new", nil))
	assert.Contains(t, page(t, app, "/"), `fetch("/students/field"`)

	form := url.Values{"name": {""}, "section": {"3CA"}, "marks": {"150"}, "grade": {"A"}}
	assertRedirectHome(t, do(t, app, http.MethodPost, "/students", form))

	resp = do(t, app, http.MethodPost, "/students/field", url.Values{"field": {"name"}, "value": {"Ann"}})
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	html := page(t, app, "/")
	assert.NotContains(t, html, "Name is required")
	assert.Contains(t, html, "Marks must be between 0 and 100")
	assert.Contains(t, html, `value="Ann"`)

	resp = do(t, app, http.MethodPost, "/students/field", url.Values{"field": {"height"}, "value": {"1"}})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPortal_RowNumbersRunAcrossPages(t *testing.T) {
	t.Parallel()

	var seed []types.Student
	for i := 1; i <= 7; i++ {
		seed = append(seed, types.Student{Name: fmt.Sprintf("Student %02d", i), Section: "3CA", Marks: 50, Grade: "C"})
	}
	app, _ := newApp(t, seed...)
	assertRedirectHome(t, do(t, app, http.MethodPost, "/load", nil))

	html := page(t, app, "/?page=2")
	assert.Contains(t, html, "<th>#</th>")
	assert.Contains(t, html, `<td class="row-number">6</td>`)
	assert.Contains(t, html, `<td class="row-number">7</td>`)
	assert.NotContains(t, html, `<td class="row-number">1</td>`)
}

// Values taken from one request must not change when later requests
// reuse the same keep-alive connection.
func TestPortal_StateSurvivesConnectionReuse(t *testing.T) {
	t.Parallel()

	ctrl := portal.New(memStore{memory.New()})
	app, err := NewApp(ctrl)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	base := "http://" + ln.Addr().String()
	client := &http.Client{
		Transport: &http.Transport{MaxIdleConnsPerHost: 1},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	t.Cleanup(client.CloseIdleConnections)

	drain := func(resp *http.Response, err error) {
		t.Helper()
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	drain(client.Get(base + "/?search=annie&sort=marks&section=3CB"))
	drain(client.Get(base + "/students/new"))
	drain(client.PostForm(base+"/students", url.Values{
		"name": {"Zo"}, "section": {"3CB"}, "marks": {"150"}, "grade": {"D"},
	}))

	for i := 0; i < 5; i++ {
		drain(client.Get(base + "/?qqqqqq=ZZZZZ&rrrr=YYYYY"))
		drain(client.PostForm(base+"/notice/dismiss", url.Values{"xxxx": {"QQ"}, "yyyyyy": {"WWW"}}))
	}

	st := ctrl.Snapshot()
	assert.Equal(t, "annie", st.Query.Search)
	assert.Equal(t, "marks", st.Query.Sort)
	assert.Equal(t, "3CB", st.Query.Section)
	assert.Equal(t, types.Draft{Name: "Zo", Section: "3CB", Marks: "150", Grade: "D"}, st.Draft)
}

func TestPortal_StoreDown(t *testing.T) {
	t.Parallel()

	app, err := NewApp(portal.New(downStore{}))
	require.NoError(t, err)

	assertRedirectHome(t, do(t, app, http.MethodPost, "/load", nil))
	assert.Contains(t, page(t, app, "/"), portal.MsgLoadFailed)
}

type downStore struct{}

func (downStore) ListAll(context.Context) ([]types.Student, error) {
	return nil, io.ErrUnexpectedEOF
}

func (downStore) Create(context.Context, types.Student) (types.Student, error) {
	return types.Student{}, io.ErrUnexpectedEOF
}

func (downStore) Update(context.Context, string, types.Student) (types.Student, error) {
	return types.Student{}, io.ErrUnexpectedEOF
}

func (downStore) Remove(context.Context, string) (bool, error) {
	return false, io.ErrUnexpectedEOF
}
