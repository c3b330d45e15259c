package app

import (
	"golang.org/x/crypto/bcrypt"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/module"
)

// RegisterBuiltins installs the admin screens every installation ships with:
// content (posts), account management (users), and the two read-only log
// viewers. The CLI reuses it to enumerate modules without a database.
func RegisterBuiltins(registry *module.Registry) error {
	if err := registry.Register(postsDefinition(), module.Hooks{}); err != nil {
		return err
	}
	if err := registry.Register(usersDefinition(), userHooks()); err != nil {
		return err
	}
	if err := registry.Register(auditLogDefinition(), readOnlyAdminHooks()); err != nil {
		return err
	}
	return registry.Register(requestLogDefinition(), readOnlyAdminHooks())
}

func postsDefinition() *domain.Definition {
	return &domain.Definition{
		Name:    "posts",
		Title:   "Posts",
		Table:   "posts",
		NameCol: "title",
		TableColumns: []domain.ColumnSpec{
			{Key: "id", Label: "ID"},
			{Key: "title", Label: "Title"},
			{Key: "status", Label: "Status"},
			{Key: "price", Label: "Price"},
			{Key: "cover_path", Label: "Cover"},
			{Key: "published_at", Label: "Published"},
			{Key: "created_at", Label: ""},
		},
		FormColumns: []domain.ColumnSpec{
			{Key: "title", Label: "Title"},
			{Key: "slug", Label: "Slug"},
			{Key: "content", Label: "Content"},
			{Key: "status", Label: "Status"},
			{Key: "published", Label: "Published"},
			{Key: "accent_color", Label: "Accent Color"},
			{Key: "price", Label: "Price"},
			{Key: "published_at", Label: "Publish Date"},
			{Key: "cover_path", Label: "Cover Image"},
		},
		Controls: map[string]string{
			"content":      "editor",
			"status":       "select",
			"published":    "switch",
			"accent_color": "color",
			"price":        "number",
			"published_at": "datetime",
			"cover_path":   "image",
		},
		SelectOptions: map[string][]domain.SelectOption{
			"status": {
				{Value: "draft", Label: "Draft"},
				{Value: "published", Label: "Published"},
				{Value: "archived", Label: "Archived"},
			},
		},
		FormDefaults: map[string]string{"status": "draft"},
		Validation: map[string][]string{
			"title": {"required", "max_length=200"},
			"slug":  {"max_length=200"},
			"price": {"numeric"},
		},
		TableFormats: map[string]string{
			"status":       "badge",
			"price":        "currency",
			"cover_path":   "image",
			"published_at": "datetime",
		},
		SearchColumns: []string{"title", "slug", "content"},
		SelectFilters: []domain.SelectFilter{
			{Column: "status", Label: "Status", Options: []domain.SelectOption{
				{Value: "draft", Label: "Draft"},
				{Value: "published", Label: "Published"},
				{Value: "archived", Label: "Archived"},
			}},
		},
		FilterLinks: []domain.FilterLink{
			{Name: "All", Clause: "1=1"},
			{Name: "Published", Clause: "status = 'published'"},
			{Name: "Drafts", Clause: "status = 'draft'"},
		},
		DateTimeColumn: "created_at",
		UploadColumns:  []string{"cover_path"},
		ExportCSV:      true,
		Creatable:      true,
		Editable:       true,
		Destroyable:    true,
	}
}

func usersDefinition() *domain.Definition {
	return &domain.Definition{
		Name:    "users",
		Title:   "Users",
		Table:   "users",
		NameCol: "name",
		TableColumns: []domain.ColumnSpec{
			{Key: "id", Label: "ID"},
			{Key: "name", Label: "Name"},
			{Key: "email", Label: "Email"},
			{Key: "is_admin", Label: "Admin"},
			{Key: "created_at", Label: "Created"},
		},
		FormColumns: []domain.ColumnSpec{
			{Key: "name", Label: "Name"},
			{Key: "email", Label: "Email"},
			{Key: "password", Label: "Password"},
			{Key: "is_admin", Label: "Administrator"},
		},
		Controls: map[string]string{
			"password": "password",
			"is_admin": "switch",
		},
		Validation: map[string][]string{
			"name":     {"required", "max_length=100"},
			"email":    {"required", "email"},
			"password": {"min_length=8"},
		},
		TableFormats:  map[string]string{"created_at": "datetime"},
		SearchColumns: []string{"name", "email"},
		ExportCSV:     true,
		Creatable:     true,
		Editable:      true,
		Destroyable:   true,
	}
}

// userHooks restricts the users screen to administrators and converts the
// virtual "password" form field into a bcrypt password_hash column. The
// schema intersection already drops "password" itself (no such column), so
// the hooks only ever add the hash.
func userHooks() module.Hooks {
	hashPassword := func(cols []module.ColumnValue, req *module.Request) []module.ColumnValue {
		password := req.Form.Get("password")
		if password == "" {
			return cols
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return cols
		}
		return append(cols, module.ColumnValue{
			Col: "password_hash",
			Val: domain.String(string(hash)),
		})
	}

	return module.Hooks{
		StoreOverride:       hashPassword,
		UpdateOverride:      hashPassword,
		HasIndexPermission:  adminOnly,
		HasCreatePermission: adminOnly,
		HasEditPermission:   adminOnlyRow,
		HasDeletePermission: adminOnlyRow,
	}
}

func auditLogDefinition() *domain.Definition {
	return &domain.Definition{
		Name:  "audit-log",
		Title: "Audit Log",
		Table: "audit_log",
		TableColumns: []domain.ColumnSpec{
			{Key: "audit_log.id AS id", Label: "ID"},
			{Key: "users.name AS user", Label: "User"},
			{Key: "audit_log.table_name AS table_name", Label: "Table"},
			{Key: "audit_log.table_id AS record", Label: "Record"},
			{Key: "audit_log.field AS field", Label: "Field"},
			{Key: "audit_log.new_value AS new_value", Label: "New Value"},
			{Key: "audit_log.message AS action", Label: "Action"},
			{Key: "audit_log.created_at AS created_at", Label: "When"},
		},
		Joins:        []string{"LEFT JOIN users ON users.id = audit_log.user_id"},
		TableFormats: map[string]string{"created_at": "datetime"},
		SearchColumns: []string{
			"audit_log.table_name", "audit_log.field", "audit_log.new_value",
		},
		SelectFilters: []domain.SelectFilter{
			{Column: "audit_log.message", Label: "Action", Options: []domain.SelectOption{
				{Value: domain.AuditInsert, Label: "Insert"},
				{Value: domain.AuditUpdate, Label: "Update"},
				{Value: domain.AuditDelete, Label: "Delete"},
			}},
		},
		DateTimeColumn: "audit_log.created_at",
		OrderBy:        "audit_log.id",
		ExportCSV:      true,
	}
}

func requestLogDefinition() *domain.Definition {
	return &domain.Definition{
		Name:  "request-log",
		Title: "Request Log",
		Table: "request_log",
		TableColumns: []domain.ColumnSpec{
			{Key: "request_log.id AS id", Label: "ID"},
			{Key: "users.name AS user", Label: "User"},
			{Key: "request_log.method AS method", Label: "Method"},
			{Key: "request_log.uri AS uri", Label: "URI"},
			{Key: "request_log.created_at AS created_at", Label: "When"},
		},
		Joins:          []string{"LEFT JOIN users ON users.id = request_log.user_id"},
		TableFormats:   map[string]string{"created_at": "datetime"},
		SearchColumns:  []string{"request_log.uri"},
		DateTimeColumn: "request_log.created_at",
		OrderBy:        "request_log.id",
	}
}

// readOnlyAdminHooks gates a viewer-only module to administrators. The
// definitions already disable create/edit/delete; the hooks close the index.
func readOnlyAdminHooks() module.Hooks {
	return module.Hooks{HasIndexPermission: adminOnly}
}

func adminOnly(p domain.Principal) bool { return p.IsAdmin }

func adminOnlyRow(p domain.Principal, _ string) bool { return p.IsAdmin }
