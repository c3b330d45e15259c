package module

import (
	"context"
	"strings"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/sqlbuilder"
	"nebula-admin/internal/validation"
)

// failureFlash is the generic message shown when a persistence call fails.
// The underlying database error is logged, never surfaced.
const failureFlash = "Oops, an unknown issue occurred"

// Module is the composition root of one admin screen. It owns the shared
// context plus the table and form engines, and drives every action through
// permission checks to a terminal Response.
type Module struct {
	*Common
	table *Table
	form  *Form
}

// New builds a module from its definition. The definition must be normalized.
func New(def *domain.Definition, deps Deps, hooks Hooks) *Module {
	common := newCommon(def, deps, hooks)
	return &Module{
		Common: common,
		table:  &Table{Common: common},
		form:   &Form{Common: common},
	}
}

// Index handles the list view: fold request parameters into the view state,
// run the paginated query, and render. CSV export and count probes are
// terminal side-exits returned as values.
func (m *Module) Index(ctx context.Context, req *Request) Response {
	return m.index(ctx, req, false)
}

// IndexPartial renders the index as an HTML fragment for in-place updates.
func (m *Module) IndexPartial(ctx context.Context, req *Request) Response {
	return m.index(ctx, req, true)
}

// QueryRows runs the index query for a caller-supplied view state without
// touching any session. The JSON API reads module rows through it.
func (m *Module) QueryRows(ctx context.Context, vs domain.ViewState) (*TableResult, error) {
	if !domain.ValidLimit(vs.Limit) {
		vs.Limit = domain.DefaultPageLimit
	}
	if vs.Page < 1 {
		vs.Page = 1
	}
	if vs.FilterSelections == nil {
		vs.FilterSelections = map[string]string{}
	}
	// Caller-supplied sort columns go through the same allow-list as the UI
	// so they cannot smuggle SQL into ORDER BY. Unknown columns fall back to
	// the configured default ordering.
	if vs.OrderBy != "" {
		vs.OrderBy = m.table.orderableColumn(vs.OrderBy)
	}
	if s := strings.ToUpper(vs.Sort); s == "ASC" || s == "DESC" {
		vs.Sort = s
	} else {
		vs.Sort = ""
	}
	if vs.OrderBy == "" {
		vs.OrderBy = m.Def.OrderBy
		vs.Sort = m.Def.Sort
	}
	return m.table.data(ctx, vs)
}

func (m *Module) index(ctx context.Context, req *Request, partial bool) Response {
	m.begin()
	if !m.canIndex(req.Principal) {
		return Denied{Message: "you do not have permission to view this module"}
	}

	vs := req.Session.ViewState(m.Def)
	term, vs := m.table.process(ctx, req, vs)
	if term != nil {
		req.Session.SaveViewState(m.Def.Name, vs)
		return term
	}

	result, err := m.table.data(ctx, vs)
	if err != nil {
		m.Deps.Log.Error("index query failed", "module", m.Def.Name, "error", err)
		req.Session.AddFlash("danger", failureFlash)
		result = &TableResult{State: vs}
	}
	req.Session.SaveViewState(m.Def.Name, result.State)

	return IndexView{Partial: partial, Data: &IndexData{
		ViewCommon:   m.viewCommon(""),
		Columns:      m.displayColumns(),
		Rows:         result.Rows,
		State:        result.State,
		TotalResults: result.TotalResults,
		TotalPages:   result.TotalPages,
		FilterLinks:  m.Def.FilterLinks,
		ActiveFilter: result.State.FilterLink,
		Custom:       !m.Def.Tabular(),
	}}
}

// Create renders the empty create form with configured defaults.
func (m *Module) Create(ctx context.Context, req *Request) Response {
	return m.create(ctx, req, false)
}

// CreatePartial renders the create form as a fragment.
func (m *Module) CreatePartial(ctx context.Context, req *Request) Response {
	return m.create(ctx, req, true)
}

func (m *Module) create(ctx context.Context, req *Request, partial bool) Response {
	m.begin()
	if !m.canCreate(req.Principal) {
		return Denied{Message: "you do not have permission to create records"}
	}
	m.form.process(ctx, req, "")
	return CreateView{Partial: partial, Data: m.form.createData(nil, validation.NewResult())}
}

// Edit renders the edit form for one row, 404ing when the row is missing.
func (m *Module) Edit(ctx context.Context, req *Request, id string) Response {
	return m.edit(ctx, req, id, false)
}

// EditPartial renders the edit form as a fragment.
func (m *Module) EditPartial(ctx context.Context, req *Request, id string) Response {
	return m.edit(ctx, req, id, true)
}

func (m *Module) edit(ctx context.Context, req *Request, id string, partial bool) Response {
	m.begin()
	if !m.canEdit(req.Principal, id) {
		return Denied{Message: "you do not have permission to edit this record"}
	}
	if term := m.form.process(ctx, req, id); term != nil {
		return term
	}
	data, fail := m.form.editData(ctx, id, nil, validation.NewResult())
	if fail != nil {
		return fail
	}
	return EditView{Partial: partial, Data: data}
}

// Store validates and persists a new row: filter the submission against the
// live schema, apply the store override, INSERT, handle uploads, write one
// audit row per column, then redirect to the edit view. Validation failures
// re-render the create form with errors and no row is written.
func (m *Module) Store(ctx context.Context, req *Request) Response {
	m.begin()
	if !m.canCreate(req.Principal) {
		return Denied{Message: "you do not have permission to create records"}
	}
	m.form.process(ctx, req, "")

	res := validation.Validate(m.Def.Validation, m.form.formValues(req))
	if !res.Valid() {
		return CreateView{Partial: true, Data: m.form.createData(req, res)}
	}

	cols, err := m.form.filteredColumns(ctx, req)
	if err != nil {
		m.Deps.Log.Error("schema lookup failed", "module", m.Def.Name, "error", err)
		req.Session.AddFlash("danger", failureFlash)
		return CreateView{Partial: true, Data: m.form.createData(req, res)}
	}
	if m.Hooks.StoreOverride != nil {
		cols = m.Hooks.StoreOverride(cols, req)
	}

	id, err := m.insertRow(ctx, cols)
	if err != nil {
		m.Deps.Log.Error("insert failed", "module", m.Def.Name, "error", err)
		req.Session.AddFlash("danger", failureFlash)
		return CreateView{Partial: true, Data: m.form.createData(req, res)}
	}

	if !m.form.handleUpload(ctx, req, id) {
		req.Session.AddFlash("danger", failureFlash)
	}
	for _, cv := range cols {
		m.audit(ctx, req.Principal.ID, id, cv.Col, domain.Null(), cv.Val, domain.AuditInsert)
	}

	req.Session.AddFlash("success", "Record created")
	return Redirect{Location: "/admin/" + m.Def.Name + "/" + id + "/edit"}
}

// Update validates and persists changes to one row, mirroring Store with the
// update override and per-column "UPDATE" audit rows.
func (m *Module) Update(ctx context.Context, req *Request, id string) Response {
	m.begin()
	if !m.canEdit(req.Principal, id) {
		return Denied{Message: "you do not have permission to edit this record"}
	}
	if term := m.form.process(ctx, req, id); term != nil {
		return term
	}

	res := validation.Validate(m.Def.Validation, m.form.formValues(req))
	if !res.Valid() {
		data, fail := m.form.editData(ctx, id, req, res)
		if fail != nil {
			return fail
		}
		return EditView{Partial: true, Data: data}
	}

	before, err := m.form.fetchRow(ctx, id)
	if err != nil || before == nil {
		return NotFound{Message: "record not found"}
	}

	cols, err := m.form.filteredColumns(ctx, req)
	if err != nil {
		m.Deps.Log.Error("schema lookup failed", "module", m.Def.Name, "error", err)
		req.Session.AddFlash("danger", failureFlash)
		return m.editFallback(ctx, req, id, res)
	}
	if m.Hooks.UpdateOverride != nil {
		cols = m.Hooks.UpdateOverride(cols, req)
	}

	if err := m.updateRow(ctx, id, cols); err != nil {
		m.Deps.Log.Error("update failed", "module", m.Def.Name, "id", id, "error", err)
		req.Session.AddFlash("danger", failureFlash)
		return m.editFallback(ctx, req, id, res)
	}

	if !m.form.handleUpload(ctx, req, id) {
		req.Session.AddFlash("danger", failureFlash)
	}
	for _, cv := range cols {
		m.audit(ctx, req.Principal.ID, id, cv.Col, before[cv.Col], cv.Val, domain.AuditUpdate)
	}

	req.Session.AddFlash("success", "Record updated")
	return Redirect{Location: "/admin/" + m.Def.Name + "/" + id + "/edit"}
}

// Destroy deletes one row, writes a "DELETE" audit row carrying the old id,
// and re-renders the index fragment (no redirect).
func (m *Module) Destroy(ctx context.Context, req *Request, id string) Response {
	m.begin()
	if !m.canDelete(req.Principal, id) {
		return Denied{Message: "you do not have permission to delete this record"}
	}

	b := sqlbuilder.Delete(m.Def.Table).Where(sqlbuilder.Group{m.Def.KeyCol, id})
	if _, err := m.Deps.Write.ExecContext(ctx, b.Build(), b.Values()...); err != nil {
		m.Deps.Log.Error("delete failed", "module", m.Def.Name, "id", id, "error", err)
		req.Session.AddFlash("danger", failureFlash)
	} else {
		m.audit(ctx, req.Principal.ID, id, m.Def.KeyCol, domain.String(id), domain.Null(), domain.AuditDelete)
		req.Session.AddFlash("success", "Record deleted")
	}

	return m.index(ctx, req, true)
}

func (m *Module) editFallback(ctx context.Context, req *Request, id string, res validation.Result) Response {
	data, fail := m.form.editData(ctx, id, req, res)
	if fail != nil {
		return fail
	}
	return EditView{Partial: true, Data: data}
}

func (m *Module) insertRow(ctx context.Context, cols []ColumnValue) (string, error) {
	pairs := make([]sqlbuilder.Pair, len(cols))
	for i, cv := range cols {
		pairs[i] = sqlbuilder.Pair{Col: cv.Col, Val: cv.Val.Bind()}
	}
	b := sqlbuilder.Insert(m.Def.Table).Set(pairs...)
	res, err := m.Deps.Write.ExecContext(ctx, b.Build(), b.Values()...)
	if err != nil {
		return "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return domain.Int(id).Display(), nil
}

func (m *Module) updateRow(ctx context.Context, id string, cols []ColumnValue) error {
	if len(cols) == 0 {
		return nil
	}
	pairs := make([]sqlbuilder.Pair, len(cols))
	for i, cv := range cols {
		pairs[i] = sqlbuilder.Pair{Col: cv.Col, Val: cv.Val.Bind()}
	}
	b := sqlbuilder.Update(m.Def.Table).
		Set(pairs...).
		Where(sqlbuilder.Group{m.Def.KeyCol, id})
	_, err := m.Deps.Write.ExecContext(ctx, b.Build(), b.Values()...)
	return err
}
