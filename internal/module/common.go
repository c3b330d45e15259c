package module

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/repository"
	"nebula-admin/internal/upload"
)

// Hooks are the overridable extension points of a module. Every hook is
// optional; nil means the default behavior.
type Hooks struct {
	// StoreOverride transforms the filtered column set before INSERT.
	StoreOverride func(cols []ColumnValue, req *Request) []ColumnValue
	// UpdateOverride transforms the filtered column set before UPDATE.
	UpdateOverride func(cols []ColumnValue, req *Request) []ColumnValue

	HasIndexPermission  func(p domain.Principal) bool
	HasCreatePermission func(p domain.Principal) bool
	HasEditPermission   func(p domain.Principal, id string) bool
	HasDeletePermission func(p domain.Principal, id string) bool
}

// ColumnValue is one column of the safe INSERT/UPDATE payload.
type ColumnValue struct {
	Col string
	Val domain.Value
}

// Deps bundles the collaborators every module shares.
type Deps struct {
	Write   *sql.DB
	Read    *sql.DB
	Audit   *repository.AuditRepo
	ReqLog  *repository.RequestLogRepo
	Schema  *repository.SchemaRepo
	Uploads *upload.Store
	Log     *slog.Logger
}

// Common is the state and behavior shared by the table and form engines:
// module identity, breadcrumbs, permission gating, the audit writer, and
// timing stats.
type Common struct {
	Def   *domain.Definition
	Deps  Deps
	Hooks Hooks

	started time.Time
}

func newCommon(def *domain.Definition, deps Deps, hooks Hooks) *Common {
	return &Common{Def: def, Deps: deps, Hooks: hooks}
}

func (c *Common) begin() {
	c.started = time.Now()
}

func (c *Common) viewCommon(action string) ViewCommon {
	crumbs := []Crumb{
		{Label: "Dashboard", Href: "/admin"},
		{Label: c.Def.Title, Href: "/admin/" + c.Def.Name},
	}
	if action != "" {
		crumbs = append(crumbs, Crumb{Label: action})
	}
	return ViewCommon{
		Definition:  c.Def,
		Breadcrumbs: crumbs,
		ElapsedMs:   time.Since(c.started).Milliseconds(),
	}
}

// audit writes one old→new record, deduplicated by the repository against the
// most recent prior value. Best-effort: failures are logged, never surfaced.
func (c *Common) audit(ctx context.Context, userID int64, id, field string, oldV, newV domain.Value, tag string) {
	if c.Deps.Audit == nil || !c.Def.Tabular() {
		return
	}
	_, err := c.Deps.Audit.Record(ctx, &domain.AuditRecord{
		UserID:    userID,
		TableName: c.Def.Table,
		TableID:   id,
		Field:     field,
		OldValue:  oldV,
		NewValue:  newV,
		Message:   tag,
	})
	if err != nil {
		c.Deps.Log.Warn("audit write failed",
			"module", c.Def.Name, "table", c.Def.Table, "id", id, "field", field, "error", err)
	}
}

// logRequest records the request-log row written for every table and form
// request. Unrelated to the audit trail.
func (c *Common) logRequest(ctx context.Context, req *Request) {
	if c.Deps.ReqLog == nil {
		return
	}
	if err := c.Deps.ReqLog.Record(ctx, req.Principal.ID, req.Method, req.URI); err != nil {
		c.Deps.Log.Warn("request log failed", "module", c.Def.Name, "error", err)
	}
}

func (c *Common) canIndex(p domain.Principal) bool {
	if c.Hooks.HasIndexPermission != nil {
		return c.Hooks.HasIndexPermission(p)
	}
	return true
}

func (c *Common) canCreate(p domain.Principal) bool {
	if c.Hooks.HasCreatePermission != nil {
		return c.Hooks.HasCreatePermission(p)
	}
	return c.Def.Creatable && len(c.Def.FormColumns) > 0
}

func (c *Common) canEdit(p domain.Principal, id string) bool {
	if c.Hooks.HasEditPermission != nil {
		return c.Hooks.HasEditPermission(p, id)
	}
	return c.Def.Editable && len(c.Def.FormColumns) > 0
}

func (c *Common) canDelete(p domain.Principal, id string) bool {
	if c.Hooks.HasDeletePermission != nil {
		return c.Hooks.HasDeletePermission(p, id)
	}
	return c.Def.Destroyable
}

// Permissions reports which actions the principal may take on this module,
// for rendering action buttons. Row-level hooks see an empty id here.
func (c *Common) Permissions(p domain.Principal) (create, edit, del bool) {
	return c.canCreate(p), c.canEdit(p, ""), c.canDelete(p, "")
}

// DisplayColumns exposes the index columns after de-aliasing, for callers
// outside the render path (the JSON API reuses the same column set).
func (c *Common) DisplayColumns() []DisplayColumn {
	return c.displayColumns()
}

// columnAlias de-aliases a configured column key: the text after a
// case-insensitive " as ", else the text after the last ".", else the key
// itself. The same rule keys rendered rows and CSV headers.
func columnAlias(key string) string {
	lower := strings.ToLower(key)
	if i := strings.LastIndex(lower, " as "); i >= 0 {
		return strings.TrimSpace(key[i+4:])
	}
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i+1:]
	}
	return key
}

// displayColumns applies columnAlias to the configured table columns,
// dropping columns whose label is blank (they stay in the query).
func (c *Common) displayColumns() []DisplayColumn {
	var out []DisplayColumn
	for _, col := range c.Def.TableColumns {
		if col.Label == "" {
			continue
		}
		out = append(out, DisplayColumn{
			Key:     columnAlias(col.Key),
			SortKey: col.Key,
			Label:   col.Label,
		})
	}
	return out
}
