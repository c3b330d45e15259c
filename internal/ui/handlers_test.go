package ui

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "nebula-admin/internal/db"
	"nebula-admin/internal/domain"
	"nebula-admin/internal/middleware"
	"nebula-admin/internal/module"
	"nebula-admin/internal/repository"
	"nebula-admin/internal/session"
	"nebula-admin/internal/upload"
)

type uiFixture struct {
	server  *httptest.Server
	client  *http.Client
	users   *repository.UserRepo
	writeDB *sql.DB
}

func newUIFixture(t *testing.T) *uiFixture {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestDB(t)

	users := repository.NewUserRepo(writeDB)
	_, err := users.Create(context.Background(), "Admin", "admin@example.com", "s3cret-pass", true)
	require.NoError(t, err)

	deps := module.Deps{
		Write:   writeDB,
		Read:    readDB,
		Audit:   repository.NewAuditRepo(writeDB),
		ReqLog:  repository.NewRequestLogRepo(writeDB),
		Schema:  repository.NewSchemaRepo(readDB),
		Uploads: upload.NewStore(t.TempDir()),
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	registry := module.NewRegistry(deps)
	require.NoError(t, registry.Register(&domain.Definition{
		Name:    "posts",
		Title:   "Posts",
		Table:   "posts",
		KeyCol:  "id",
		NameCol: "title",
		TableColumns: []domain.ColumnSpec{
			{Key: "id", Label: "ID"},
			{Key: "title", Label: "Title"},
			{Key: "status", Label: "Status"},
		},
		FormColumns: []domain.ColumnSpec{
			{Key: "title", Label: "Title"},
			{Key: "content", Label: "Content"},
			{Key: "status", Label: "Status"},
		},
		Controls:    map[string]string{"content": "textarea"},
		Validation:  map[string][]string{"title": {"required"}},
		Creatable:   true,
		Editable:    true,
		Destroyable: true,
	}, module.Hooks{}))

	sessions := &session.Manager{Store: session.NewStore(writeDB, 0)}
	h := NewHandler(
		registry,
		users,
		sessions,
		deps.Uploads,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		false,
	)

	r := chi.NewRouter()
	MountRoutes(r, h, middleware.SessionAuth(users, middleware.RedirectToLogin))

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &uiFixture{
		server:  server,
		client:  &http.Client{Jar: jar},
		users:   users,
		writeDB: writeDB,
	}
}

func (f *uiFixture) csrfToken(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(f.server.URL)
	require.NoError(t, err)
	for _, c := range f.client.Jar.Cookies(u) {
		if c.Name == csrfCookieName {
			return c.Value
		}
	}
	t.Fatal("csrf cookie not issued")
	return ""
}

func (f *uiFixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.Get(f.server.URL + path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func (f *uiFixture) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	form.Set("csrf_token", f.csrfToken(t))
	resp, err := f.client.PostForm(f.server.URL+path, form)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

// postMultipart submits a form the way the rendered create/edit pages do,
// with a multipart body carrying the CSRF token as an ordinary field.
func (f *uiFixture) postMultipart(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("csrf_token", f.csrfToken(t)))
	for key, vals := range form {
		for _, v := range vals {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	require.NoError(t, mw.Close())

	resp, err := f.client.Post(f.server.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func (f *uiFixture) login(t *testing.T) {
	t.Helper()
	resp, _ := f.get(t, "/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.post(t, "/login", url.Values{
		"email":    {"admin@example.com"},
		"password": {"s3cret-pass"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Nebula")
}

func TestAnonymousIsRedirectedToLogin(t *testing.T) {
	f := newUIFixture(t)

	resp, body := f.get(t, "/admin/posts")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasSuffix(resp.Request.URL.Path, "/login"))
	assert.Contains(t, body, "Sign in")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newUIFixture(t)
	resp, _ := f.get(t, "/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.post(t, "/login", url.Values{
		"email":    {"admin@example.com"},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasSuffix(resp.Request.URL.Path, "/login"))
	assert.Contains(t, body, "invalid email or password")
}

func TestDashboardListsModules(t *testing.T) {
	f := newUIFixture(t)
	f.login(t)

	resp, body := f.get(t, "/admin")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Posts")
	assert.Contains(t, body, "/admin/posts")
}

func TestModuleIndexRendersTable(t *testing.T) {
	f := newUIFixture(t)
	_, err := f.writeDB.Exec(
		`INSERT INTO posts (title, content, status) VALUES (?, ?, ?)`,
		"First Post", "body", "draft",
	)
	require.NoError(t, err)
	f.login(t)

	resp, body := f.get(t, "/admin/posts")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "module-table")
	assert.Contains(t, body, "Title")
	assert.Contains(t, body, "First Post")
	assert.Contains(t, body, "/admin/posts/new")
}

func TestUnknownModuleIs404(t *testing.T) {
	f := newUIFixture(t)
	f.login(t)

	resp, _ := f.get(t, "/admin/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateUpdateDeleteRoundTrip(t *testing.T) {
	f := newUIFixture(t)
	f.login(t)

	resp, body := f.get(t, "/admin/posts/new")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `name="title"`)

	resp, body = f.post(t, "/admin/posts", url.Values{
		"title":   {"Hello World"},
		"content": {"first body"},
		"status":  {"draft"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasSuffix(resp.Request.URL.Path, "/edit"), "create redirects to the edit screen")
	assert.Contains(t, body, "Hello World")

	editPath := resp.Request.URL.Path
	idPath := strings.TrimSuffix(editPath, "/edit")

	resp, body = f.post(t, idPath, url.Values{
		"title":   {"Hello Again"},
		"content": {"second body"},
		"status":  {"published"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Hello Again")

	resp, body = f.get(t, "/admin/posts")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Hello Again")
	assert.NotContains(t, body, "Hello World")

	resp, body = f.post(t, idPath+"/delete", url.Values{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "Hello Again")
}

func TestCreateAcceptsMultipartSubmission(t *testing.T) {
	f := newUIFixture(t)
	f.login(t)

	resp, body := f.postMultipart(t, "/admin/posts", url.Values{
		"title":   {"Multipart Post"},
		"content": {"sent as multipart"},
		"status":  {"draft"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasSuffix(resp.Request.URL.Path, "/edit"), "create redirects to the edit screen")
	assert.Contains(t, body, "Multipart Post")
}

func TestBuildRequestExposesMultipartFiles(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "With Cover"))
	part, err := mw.CreateFormFile("cover_path", "cover.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/admin/posts", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	h := &Handler{}
	req := h.buildRequest(r)
	assert.Equal(t, "With Cover", req.Form.Get("title"))
	require.Len(t, req.Files, 1)
	assert.Equal(t, "cover_path", req.Files[0].Field)
	assert.Equal(t, "cover.png", req.Files[0].Filename)

	rc, err := req.Files[0].Open()
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(content))
}

func TestCreateValidationFailureRerendersForm(t *testing.T) {
	f := newUIFixture(t)
	f.login(t)

	resp, body := f.post(t, "/admin/posts", url.Values{
		"title":  {""},
		"status": {"draft"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "field-error")
}

func TestLogoutEndsSession(t *testing.T) {
	f := newUIFixture(t)
	f.login(t)

	resp, _ := f.post(t, "/logout", url.Values{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasSuffix(resp.Request.URL.Path, "/login"))

	resp, _ = f.get(t, "/admin")
	assert.True(t, strings.HasSuffix(resp.Request.URL.Path, "/login"))
}
