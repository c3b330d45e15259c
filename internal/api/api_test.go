package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "nebula-admin/internal/db"
	"nebula-admin/internal/domain"
	"nebula-admin/internal/middleware"
	"nebula-admin/internal/module"
	"nebula-admin/internal/repository"
	"nebula-admin/internal/upload"
)

func newAPIServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestDB(t)

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
		Name:   "posts",
		Title:  "Posts",
		Table:  "posts",
		KeyCol: "id",
		TableColumns: []domain.ColumnSpec{
			{Key: "id", Label: "ID"},
			{Key: "title", Label: "Title"},
			{Key: "status", Label: "Status"},
		},
		FormColumns:   []domain.ColumnSpec{{Key: "title", Label: "Title"}},
		SearchColumns: []string{"title"},
		SelectFilters: []domain.SelectFilter{
			{Column: "status", Label: "Status", Options: []domain.SelectOption{
				{Value: "draft", Label: "Draft"},
				{Value: "published", Label: "Published"},
			}},
		},
	}, module.Hooks{}))

	for i, title := range []string{"alpha", "beta", "gamma"} {
		status := "draft"
		if i == 0 {
			status = "published"
		}
		_, err := writeDB.Exec(
			`INSERT INTO posts (title, content, status) VALUES (?, ?, ?)`,
			title, "body", status,
		)
		require.NoError(t, err)
	}

	validator, err := middleware.NewHS256Validator("api-test-secret-with-enough-length")
	require.NoError(t, err)
	token, err := validator.Sign(domain.Principal{ID: 1, Name: "robot", IsAdmin: true}, time.Hour)
	require.NoError(t, err)

	h := NewHandler(registry, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BearerAuth(validator))
		MountRoutes(r, h)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, token
}

func apiGet(t *testing.T, server *httptest.Server, token, path string, out interface{}) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), "GET", server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestAPIRequiresBearerToken(t *testing.T) {
	server, _ := newAPIServer(t)

	resp := apiGet(t, server, "", "/api/modules", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPIListModules(t *testing.T) {
	server, token := newAPIServer(t)

	var body struct {
		Modules []struct {
			Name    string `json:"name"`
			Title   string `json:"title"`
			Tabular bool   `json:"tabular"`
		} `json:"modules"`
	}
	resp := apiGet(t, server, token, "/api/modules", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Modules, 1)
	assert.Equal(t, "posts", body.Modules[0].Name)
	assert.Equal(t, "Posts", body.Modules[0].Title)
	assert.True(t, body.Modules[0].Tabular)
}

type rowsBody struct {
	Module       string           `json:"module"`
	Columns      []string         `json:"columns"`
	Rows         []map[string]any `json:"rows"`
	Page         int              `json:"page"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
}

func TestAPIModuleRows(t *testing.T) {
	server, token := newAPIServer(t)

	var body rowsBody
	resp := apiGet(t, server, token, "/api/modules/posts/rows", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "posts", body.Module)
	assert.Equal(t, []string{"id", "title", "status"}, body.Columns)
	assert.Equal(t, 3, body.TotalResults)
	require.Len(t, body.Rows, 3)
	assert.Equal(t, "gamma", body.Rows[0]["title"], "default order is newest first")
}

func TestAPIModuleRowsSearch(t *testing.T) {
	server, token := newAPIServer(t)

	var body rowsBody
	resp := apiGet(t, server, token, "/api/modules/posts/rows?search=beta", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "beta", body.Rows[0]["title"])
}

func TestAPIModuleRowsSelectFilter(t *testing.T) {
	server, token := newAPIServer(t)

	var body rowsBody
	resp := apiGet(t, server, token, "/api/modules/posts/rows?filter_status=published", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "alpha", body.Rows[0]["title"])
}

func TestAPIModuleRowsOrderingRejectsUnknownColumn(t *testing.T) {
	server, token := newAPIServer(t)

	var body rowsBody
	resp := apiGet(t, server, token, "/api/modules/posts/rows?order_by=bogus_column&sort=desc", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 3, body.TotalResults)
	// Falls back to the default ordering, newest first.
	require.Len(t, body.Rows, 3)
	assert.Equal(t, "gamma", body.Rows[0]["title"])
}

func TestAPIModuleRowsOrdering(t *testing.T) {
	server, token := newAPIServer(t)

	var body rowsBody
	resp := apiGet(t, server, token, "/api/modules/posts/rows?order_by=title&sort=desc", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Rows, 3)
	assert.Equal(t, "gamma", body.Rows[0]["title"])
}

func TestAPIUnknownModuleIs404(t *testing.T) {
	server, token := newAPIServer(t)

	resp := apiGet(t, server, token, "/api/modules/nope/rows", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
