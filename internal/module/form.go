package module

import (
	"context"
	"database/sql"
	"strings"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/sqlbuilder"
	"nebula-admin/internal/validation"
)

// Form is the create/edit engine: it filters submissions against the live
// schema, renders prefill values, and handles file uploads and deletions.
type Form struct {
	*Common
}

// process handles form-level side requests before the main action: deleting a
// stored upload nulls the column and bounces back to the edit view. It also
// writes the request-log row.
func (f *Form) process(ctx context.Context, req *Request, id string) Response {
	f.logRequest(ctx, req)

	if req.Has("file_delete") && id != "" {
		col := req.Get("file_delete")
		if f.uploadColumn(col) {
			f.deleteStoredFile(ctx, req, id, col)
		}
		return Redirect{Location: "/admin/" + f.Def.Name + "/" + id + "/edit"}
	}
	return nil
}

func (f *Form) deleteStoredFile(ctx context.Context, req *Request, id, col string) {
	old := f.columnValue(ctx, id, col)

	b := sqlbuilder.Update(f.Def.Table).
		Set(sqlbuilder.Pair{Col: col, Val: nil}).
		Where(sqlbuilder.Group{f.Def.KeyCol, id})
	if _, err := f.Deps.Write.ExecContext(ctx, b.Build(), b.Values()...); err != nil {
		f.Deps.Log.Warn("file delete failed", "module", f.Def.Name, "id", id, "column", col, "error", err)
		return
	}
	if !old.IsNull() && f.Deps.Uploads != nil {
		_ = f.Deps.Uploads.Delete(old.Display())
	}
	f.audit(ctx, req.Principal.ID, id, col, old, domain.Null(), domain.AuditUpload)
}

// filteredColumns intersects the submitted fields against the declared form
// columns and the live database schema. Only schema-known columns pass
// through; the literal string "null" (any case) normalizes to NULL. Upload
// columns never flow through here; files are persisted separately.
func (f *Form) filteredColumns(ctx context.Context, req *Request) ([]ColumnValue, error) {
	schema, err := f.Deps.Schema.ColumnSet(ctx, f.Def.Table)
	if err != nil {
		return nil, err
	}

	var out []ColumnValue
	for _, col := range f.Def.FormColumns {
		if f.uploadColumn(col.Key) || !schema[col.Key] || !req.Has(col.Key) {
			continue
		}
		raw := req.Get(col.Key)
		if strings.EqualFold(raw, "null") {
			out = append(out, ColumnValue{Col: col.Key, Val: domain.Null()})
			continue
		}
		out = append(out, ColumnValue{Col: col.Key, Val: domain.String(raw)})
	}
	return out, nil
}

// formValues collects the submitted string values for validation.
func (f *Form) formValues(req *Request) map[string]string {
	values := map[string]string{}
	for _, col := range f.Def.FormColumns {
		if req.Has(col.Key) {
			values[col.Key] = req.Get(col.Key)
		}
	}
	return values
}

func (f *Form) createData(req *Request, errs validation.Result) *FormData {
	values := map[string]string{}
	for k, v := range f.Def.FormDefaults {
		values[k] = v
	}
	for _, col := range f.Def.FormColumns {
		if req != nil && req.Has(col.Key) {
			values[col.Key] = req.Get(col.Key)
		}
	}
	return &FormData{
		ViewCommon: f.viewCommon("Create"),
		Values:     values,
		Required:   f.Def.RequiredFields(),
		Errors:     errs,
	}
}

// editData loads the row and assembles the edit form. A missing row is a
// NotFound outcome, not an error.
func (f *Form) editData(ctx context.Context, id string, req *Request, errs validation.Result) (*FormData, Response) {
	row, err := f.fetchRow(ctx, id)
	if err != nil {
		f.Deps.Log.Error("edit lookup failed", "module", f.Def.Name, "id", id, "error", err)
		return nil, NotFound{Message: "record not found"}
	}
	if row == nil {
		return nil, NotFound{Message: "record not found"}
	}

	values := map[string]string{}
	for _, col := range f.Def.FormColumns {
		values[col.Key] = row[col.Key].Display()
	}
	// Re-submitted values win over stored ones when re-rendering after a
	// failed validation.
	if req != nil {
		for _, col := range f.Def.FormColumns {
			if req.Has(col.Key) {
				values[col.Key] = req.Get(col.Key)
			}
		}
	}

	return &FormData{
		ViewCommon: f.viewCommon("Edit"),
		ID:         id,
		Values:     values,
		Required:   f.Def.RequiredFields(),
		Errors:     errs,
	}, nil
}

// fetchRow selects the form columns (plus key column) for one row. Returns
// nil when the row does not exist.
func (f *Form) fetchRow(ctx context.Context, id string) (domain.Row, error) {
	keys := []string{f.Def.KeyCol}
	for _, col := range f.Def.FormColumns {
		if col.Key != f.Def.KeyCol {
			keys = append(keys, col.Key)
		}
	}

	b := sqlbuilder.Select(f.Def.Table).
		Columns(keys...).
		Where(sqlbuilder.Group{f.Def.KeyCol, id})

	rows, err := f.Deps.Read.QueryContext(ctx, b.Build(), b.Values()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	raw := make([]interface{}, len(keys))
	ptrs := make([]interface{}, len(keys))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := domain.Row{}
	for i, key := range keys {
		row[key] = domain.ValueOf(raw[i])
	}
	return row, nil
}

// handleUpload stores each submitted file for an upload column: generate a
// collision-resistant name, move the content, delete the previously stored
// file, persist the new path, and audit the change. Files already moved to
// disk are not cleaned up when a later UPDATE fails. The trail records what
// it can and the caller surfaces a generic failure.
func (f *Form) handleUpload(ctx context.Context, req *Request, id string) bool {
	if f.Deps.Uploads == nil {
		return true
	}
	ok := true
	for _, col := range f.Def.UploadColumns {
		file, found := req.File(col)
		if !found {
			continue
		}
		content, err := file.Open()
		if err != nil {
			f.Deps.Log.Warn("upload open failed", "module", f.Def.Name, "column", col, "error", err)
			ok = false
			continue
		}
		stored, err := f.Deps.Uploads.Save(file.Filename, content)
		_ = content.Close()
		if err != nil {
			f.Deps.Log.Warn("upload save failed", "module", f.Def.Name, "column", col, "error", err)
			ok = false
			continue
		}

		old := f.columnValue(ctx, id, col)

		b := sqlbuilder.Update(f.Def.Table).
			Set(sqlbuilder.Pair{Col: col, Val: stored}).
			Where(sqlbuilder.Group{f.Def.KeyCol, id})
		if _, err := f.Deps.Write.ExecContext(ctx, b.Build(), b.Values()...); err != nil {
			f.Deps.Log.Warn("upload update failed", "module", f.Def.Name, "column", col, "error", err)
			ok = false
			continue
		}
		if !old.IsNull() {
			_ = f.Deps.Uploads.Delete(old.Display())
		}
		f.audit(ctx, req.Principal.ID, id, col, old, domain.String(stored), domain.AuditUpload)
	}
	return ok
}

func (f *Form) uploadColumn(col string) bool {
	for _, c := range f.Def.UploadColumns {
		if c == col {
			return true
		}
	}
	return false
}

// columnValue reads a single column of one row, null on any failure.
func (f *Form) columnValue(ctx context.Context, id, col string) domain.Value {
	b := sqlbuilder.Select(f.Def.Table).
		Columns(col).
		Where(sqlbuilder.Group{f.Def.KeyCol, id})

	var raw interface{}
	err := f.Deps.Read.QueryRowContext(ctx, b.Build(), b.Values()...).Scan(&raw)
	if err != nil && err != sql.ErrNoRows {
		f.Deps.Log.Warn("column read failed", "module", f.Def.Name, "id", id, "column", col, "error", err)
	}
	return domain.ValueOf(raw)
}
