package module

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "nebula-admin/internal/db"
	"nebula-admin/internal/domain"
	"nebula-admin/internal/repository"
	"nebula-admin/internal/session"
	"nebula-admin/internal/upload"
)

func postsDef() *domain.Definition {
	return &domain.Definition{
		Name:    "posts",
		Title:   "Posts",
		Table:   "posts",
		KeyCol:  "id",
		NameCol: "title",
		TableColumns: []domain.ColumnSpec{
			{Key: "id", Label: "ID"},
			{Key: "posts.title", Label: "Title"},
			{Key: "status", Label: "Status"},
			{Key: "created_at", Label: ""},
		},
		FormColumns: []domain.ColumnSpec{
			{Key: "title", Label: "Title"},
			{Key: "content", Label: "Content"},
			{Key: "status", Label: "Status"},
		},
		Validation: map[string][]string{
			"title": {"required", "max_length=200"},
		},
		SearchColumns: []string{"title", "content"},
		SelectFilters: []domain.SelectFilter{
			{Column: "status", Label: "Status", Options: []domain.SelectOption{
				{Value: "draft", Label: "Draft"},
				{Value: "published", Label: "Published"},
			}},
		},
		FilterLinks: []domain.FilterLink{
			{Name: "All", Clause: "1=1"},
			{Name: "Draft", Clause: "status = 'draft'"},
		},
		DateTimeColumn: "created_at",
		ExportCSV:      true,
		Creatable:      true,
		Editable:       true,
		Destroyable:    true,
	}
}

type testEnv struct {
	mod   *Module
	sess  *session.Session
	audit *repository.AuditRepo
	write *sql.DB
}

func newTestEnv(t *testing.T, def *domain.Definition) *testEnv {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestDB(t)

	require.NoError(t, def.Normalize())
	deps := Deps{
		Write:   writeDB,
		Read:    readDB,
		Audit:   repository.NewAuditRepo(writeDB),
		ReqLog:  repository.NewRequestLogRepo(writeDB),
		Schema:  repository.NewSchemaRepo(readDB),
		Uploads: upload.NewStore(t.TempDir()),
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	store := session.NewStore(writeDB, 0)
	sess, err := store.Create(context.Background())
	require.NoError(t, err)

	return &testEnv{
		mod:   New(def, deps, Hooks{}),
		sess:  sess,
		audit: deps.Audit,
		write: writeDB,
	}
}

func (e *testEnv) request(form url.Values, query url.Values) *Request {
	return &Request{
		Method:    "POST",
		URI:       "/admin/posts",
		Query:     query,
		Form:      form,
		Principal: domain.Principal{ID: 1, Name: "admin", IsAdmin: true},
		Session:   e.sess,
	}
}

func (e *testEnv) seedPosts(t *testing.T, n int, status string) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := e.write.Exec(
			`INSERT INTO posts (title, content, status) VALUES (?, ?, ?)`,
			"post "+strings.Repeat("x", i%5), "body", status,
		)
		require.NoError(t, err)
	}
}

func TestStoreValidationFailureInsertsNothing(t *testing.T) {
	env := newTestEnv(t, postsDef())
	ctx := context.Background()

	resp := env.mod.Store(ctx, env.request(url.Values{"title": {""}}, nil))

	view, ok := resp.(CreateView)
	require.True(t, ok, "expected create re-render, got %T", resp)
	assert.True(t, view.Partial)
	assert.NotEmpty(t, view.Data.Errors.FieldErrors("title"))

	var count int
	require.NoError(t, env.write.QueryRow(`SELECT count(*) FROM posts`).Scan(&count))
	assert.Zero(t, count)

	trail, err := env.audit.ListForRow(ctx, "posts", "1", 10)
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestStoreInsertsRowAndAuditTrail(t *testing.T) {
	env := newTestEnv(t, postsDef())
	ctx := context.Background()

	resp := env.mod.Store(ctx, env.request(url.Values{
		"title":   {"Hello"},
		"content": {"Body"},
		"status":  {"draft"},
	}, nil))

	redirect, ok := resp.(Redirect)
	require.True(t, ok, "expected redirect, got %T", resp)
	assert.Equal(t, "/admin/posts/1/edit", redirect.Location)

	var title string
	require.NoError(t, env.write.QueryRow(`SELECT title FROM posts WHERE id = 1`).Scan(&title))
	assert.Equal(t, "Hello", title)

	trail, err := env.audit.ListForRow(ctx, "posts", "1", 10)
	require.NoError(t, err)
	assert.Len(t, trail, 3)
	for _, rec := range trail {
		assert.Equal(t, domain.AuditInsert, rec.Message)
	}
}

func TestUpdateAuditDedup(t *testing.T) {
	env := newTestEnv(t, postsDef())
	ctx := context.Background()
	env.seedPosts(t, 1, "draft")

	form := url.Values{"title": {"Renamed"}, "content": {"body"}, "status": {"draft"}}
	resp := env.mod.Update(ctx, env.request(form, nil), "1")
	_, ok := resp.(Redirect)
	require.True(t, ok, "expected redirect, got %T", resp)

	// Same submission again: values are unchanged, so no new audit rows.
	resp = env.mod.Update(ctx, env.request(form, nil), "1")
	_, ok = resp.(Redirect)
	require.True(t, ok)

	trail, err := env.audit.ListForRow(ctx, "posts", "1", 50)
	require.NoError(t, err)
	fields := map[string]int{}
	for _, rec := range trail {
		fields[rec.Field]++
	}
	assert.Equal(t, 1, fields["title"], "duplicate title write must dedup")
}

func TestMassAssignmentGuard(t *testing.T) {
	def := postsDef()
	// Declared in the form but absent from the live schema.
	def.FormColumns = append(def.FormColumns, domain.ColumnSpec{Key: "ghost_col", Label: "Ghost"})
	env := newTestEnv(t, def)

	cols, err := env.mod.form.filteredColumns(context.Background(), env.request(url.Values{
		"title":     {"x"},
		"evil_col":  {"1"},
		"ghost_col": {"1"},
	}, nil))
	require.NoError(t, err)

	for _, cv := range cols {
		assert.NotEqual(t, "evil_col", cv.Col)
		assert.NotEqual(t, "ghost_col", cv.Col)
	}
}

func TestNullLiteralNormalizes(t *testing.T) {
	env := newTestEnv(t, postsDef())

	cols, err := env.mod.form.filteredColumns(context.Background(), env.request(url.Values{
		"title":   {"x"},
		"content": {"NULL"},
	}, nil))
	require.NoError(t, err)

	byCol := map[string]domain.Value{}
	for _, cv := range cols {
		byCol[cv.Col] = cv.Val
	}
	assert.True(t, byCol["content"].IsNull())
	assert.Equal(t, "x", byCol["title"].Display())
}

func TestPaginationClamp(t *testing.T) {
	env := newTestEnv(t, postsDef())
	ctx := context.Background()
	env.seedPosts(t, 25, "draft")

	resp := env.mod.Index(ctx, env.request(nil, url.Values{"page": {"99"}}))
	view, ok := resp.(IndexView)
	require.True(t, ok, "expected index view, got %T", resp)

	assert.Equal(t, 25, view.Data.TotalResults)
	assert.Equal(t, 3, view.Data.TotalPages) // default limit 10
	assert.Equal(t, 3, view.Data.State.Page)
	assert.Len(t, view.Data.Rows, 5)
}

func TestSearchResetsPageAndPersists(t *testing.T) {
	env := newTestEnv(t, postsDef())
	ctx := context.Background()
	env.seedPosts(t, 30, "draft")

	// Move to page 2 first.
	resp := env.mod.Index(ctx, env.request(nil, url.Values{"page": {"2"}}))
	view := resp.(IndexView)
	assert.Equal(t, 2, view.Data.State.Page)

	// Searching resets to page 1 and persists the term in the session.
	resp = env.mod.Index(ctx, env.request(nil, url.Values{"search": {"post"}}))
	view = resp.(IndexView)
	assert.Equal(t, 1, view.Data.State.Page)
	assert.Equal(t, "post", view.Data.State.SearchTerm)

	// A parameterless follow-up request keeps the stored search.
	resp = env.mod.Index(ctx, env.request(nil, nil))
	view = resp.(IndexView)
	assert.Equal(t, "post", view.Data.State.SearchTerm)
}

func TestSelectFilterSentinelClears(t *testing.T) {
	env := newTestEnv(t, postsDef())
	ctx := context.Background()
	env.seedPosts(t, 3, "draft")
	env.seedPosts(t, 2, "published")

	resp := env.mod.Index(ctx, env.request(nil, url.Values{"filter_status": {"published"}}))
	view := resp.(IndexView)
	assert.Equal(t, 2, view.Data.TotalResults)

	resp = env.mod.Index(ctx, env.request(nil, url.Values{"filter_status": {"NULL"}}))
	view = resp.(IndexView)
	assert.Equal(t, 5, view.Data.TotalResults)
}

func TestFilterLinkSelection(t *testing.T) {
	env := newTestEnv(t, postsDef())
	ctx := context.Background()
	env.seedPosts(t, 3, "draft")
	env.seedPosts(t, 2, "published")

	// First request falls back to the first defined link.
	view := env.mod.Index(ctx, env.request(nil, nil)).(IndexView)
	assert.Equal(t, "All", view.Data.ActiveFilter)
	assert.Equal(t, 5, view.Data.TotalResults)

	view = env.mod.Index(ctx, env.request(nil, url.Values{"filter_link": {"Draft"}})).(IndexView)
	assert.Equal(t, "Draft", view.Data.ActiveFilter)
	assert.Equal(t, 3, view.Data.TotalResults)
}

func TestFilterCountProbe(t *testing.T) {
	env := newTestEnv(t, postsDef())
	ctx := context.Background()
	env.seedPosts(t, 3, "draft")

	resp := env.mod.Index(ctx, env.request(nil, url.Values{"filter_count": {"Draft"}}))
	probe, ok := resp.(CountProbe)
	require.True(t, ok, "expected count probe, got %T", resp)
	assert.Equal(t, "3", probe.Body)

	resp = env.mod.Index(ctx, env.request(nil, url.Values{"filter_count": {"nope"}}))
	probe = resp.(CountProbe)
	assert.Equal(t, "0", probe.Body)
}

func TestCSVExport(t *testing.T) {
	env := newTestEnv(t, postsDef())
	ctx := context.Background()
	env.seedPosts(t, 4, "draft")

	resp := env.mod.Index(ctx, env.request(nil, url.Values{"export_csv": {"1"}}))
	export, ok := resp.(CSVExport)
	require.True(t, ok, "expected CSV export, got %T", resp)
	assert.Equal(t, "posts.csv", export.Filename)

	var sb strings.Builder
	require.NoError(t, export.WriteTo(&sb))
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 5)
	// Blank-labelled created_at is excluded from headers.
	assert.Equal(t, "ID,Title,Status", lines[0])
}

func TestDestroyDeletesAndAudits(t *testing.T) {
	env := newTestEnv(t, postsDef())
	ctx := context.Background()
	env.seedPosts(t, 2, "draft")

	resp := env.mod.Destroy(ctx, env.request(nil, nil), "1")
	view, ok := resp.(IndexView)
	require.True(t, ok, "expected index partial, got %T", resp)
	assert.True(t, view.Partial)
	assert.Equal(t, 1, view.Data.TotalResults)

	trail, err := env.audit.ListForRow(ctx, "posts", "1", 10)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.AuditDelete, trail[0].Message)
	assert.Equal(t, "1", trail[0].OldValue.Display())
	assert.True(t, trail[0].NewValue.IsNull())
}

func TestEditMissingRowIs404(t *testing.T) {
	env := newTestEnv(t, postsDef())
	resp := env.mod.Edit(context.Background(), env.request(nil, nil), "42")
	_, ok := resp.(NotFound)
	assert.True(t, ok, "expected not found, got %T", resp)
}

func TestPermissionGates(t *testing.T) {
	def := postsDef()
	def.Creatable = false
	def.Destroyable = false
	env := newTestEnv(t, def)
	ctx := context.Background()

	_, denied := env.mod.Store(ctx, env.request(url.Values{"title": {"x"}}, nil)).(Denied)
	assert.True(t, denied)

	_, denied = env.mod.Destroy(ctx, env.request(nil, nil), "1").(Denied)
	assert.True(t, denied)
}

func TestCustomScreenReturnsEmptyData(t *testing.T) {
	def := &domain.Definition{Name: "dashboard", Title: "Dashboard"}
	env := newTestEnv(t, def)

	view := env.mod.Index(context.Background(), env.request(nil, nil)).(IndexView)
	assert.True(t, view.Data.Custom)
	assert.Empty(t, view.Data.Rows)
	assert.Zero(t, view.Data.TotalResults)
}

func TestQueryRowsUnknownOrderColumnFallsBack(t *testing.T) {
	env := newTestEnv(t, postsDef())
	env.seedPosts(t, 3, "draft")

	result, err := env.mod.QueryRows(context.Background(), domain.ViewState{
		OrderBy: "bogus_column",
		Sort:    "DESC",
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	// Default ordering is the key column descending, newest row first.
	assert.Equal(t, "3", result.Rows[0]["id"].Display())
}

func TestColumnAlias(t *testing.T) {
	cases := map[string]string{
		"posts.title":        "title",
		"x AS y":             "y",
		"x as y":             "y",
		"count(*) AS total":  "total",
		"plain":              "plain",
		"a.b.c":              "c",
	}
	for in, want := range cases {
		assert.Equal(t, want, columnAlias(in), in)
	}
}

func TestDisplayColumnsDropBlankLabels(t *testing.T) {
	env := newTestEnv(t, postsDef())
	cols := env.mod.displayColumns()
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	assert.Equal(t, []string{"id", "title", "status"}, keys)
}
