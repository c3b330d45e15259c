package module

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/sqlbuilder"
)

// csvPageSize is how many rows each CSV export query fetches.
const csvPageSize = 10000

// countCap is the largest exact count the filter-link probe reports.
const countCap = 1000

// Table is the index-view engine: it folds request parameters into the
// session view state, assembles the filtered query, and pages through
// results.
type Table struct {
	*Common
}

// process applies request parameters to the view state in fixed order. Later
// steps depend on earlier mutations (a new search resets the page before
// pagination runs). A non-nil Response is terminal (CSV export, count probe).
func (t *Table) process(ctx context.Context, req *Request, vs domain.ViewState) (Response, domain.ViewState) {
	vs = t.handleSelectFilters(req, vs)
	vs = t.handleSearch(req, vs)
	vs = t.handleDateRange(req, vs)
	vs = t.handleOrdering(req, vs)

	if term := t.handleFilterCount(ctx, req, vs); term != nil {
		return term, vs
	}

	vs = t.handleFilterLink(req, vs)
	vs = t.handlePagination(req, vs)

	if term := t.handleExportCSV(ctx, req, vs); term != nil {
		return term, vs
	}

	t.logRequest(ctx, req)
	return nil, vs
}

// handleSelectFilters merges dropdown filter submissions into the per-column
// selection map. The "NULL" sentinel clears a column's filter.
func (t *Table) handleSelectFilters(req *Request, vs domain.ViewState) domain.ViewState {
	for _, f := range t.Def.SelectFilters {
		param := "filter_" + f.Column
		if !req.Has(param) {
			continue
		}
		val := req.Get(param)
		if val == "NULL" || val == "" {
			delete(vs.FilterSelections, f.Column)
			continue
		}
		vs.FilterSelections[f.Column] = val
	}
	return vs
}

// handleSearch persists a new search term and resets to the first page. An
// empty submission clears the stored term.
func (t *Table) handleSearch(req *Request, vs domain.ViewState) domain.ViewState {
	if !req.Has("search") {
		return vs
	}
	term := strings.TrimSpace(req.Get("search"))
	if term == "" {
		vs.SearchTerm = ""
		return vs
	}
	vs.SearchTerm = term
	vs.Page = 1
	return vs
}

func (t *Table) handleDateRange(req *Request, vs domain.ViewState) domain.ViewState {
	if t.Def.DateTimeColumn == "" {
		return vs
	}
	if req.Has("date_from") {
		vs.DateFrom = strings.TrimSpace(req.Get("date_from"))
		vs.Page = 1
	}
	if req.Has("date_to") {
		vs.DateTo = strings.TrimSpace(req.Get("date_to"))
		vs.Page = 1
	}
	return vs
}

// handleOrdering accepts an order_by/sort pair, restricted to configured
// table columns.
func (t *Table) handleOrdering(req *Request, vs domain.ViewState) domain.ViewState {
	if req.Has("order_by") {
		col := req.Get("order_by")
		if t.orderableColumn(col) != "" {
			vs.OrderBy = t.orderableColumn(col)
		}
	}
	if req.Has("sort") {
		switch strings.ToUpper(req.Get("sort")) {
		case "ASC":
			vs.Sort = "ASC"
		case "DESC":
			vs.Sort = "DESC"
		}
	}
	return vs
}

// orderableColumn resolves a requested sort column against the configured
// table columns, accepting either the raw key or its de-aliased form.
// Returns "" when the column is not configured (untrusted input is dropped).
func (t *Table) orderableColumn(col string) string {
	for _, c := range t.Def.TableColumns {
		if c.Key == col || columnAlias(c.Key) == col {
			// Aliased expressions sort by their alias; plain keys sort
			// by the qualified column.
			if strings.Contains(strings.ToLower(c.Key), " as ") {
				return columnAlias(c.Key)
			}
			return c.Key
		}
	}
	if col == t.Def.KeyCol {
		return col
	}
	return ""
}

// handleFilterCount answers a count-only probe for one named filter link and
// terminates the request. Counts above the cap report ">1000".
func (t *Table) handleFilterCount(ctx context.Context, req *Request, vs domain.ViewState) Response {
	if !req.Has("filter_count") {
		return nil
	}
	name := req.Get("filter_count")
	link, ok := t.filterLinkByName(name)
	if !ok {
		return CountProbe{Body: "0"}
	}

	where := t.filterGroups(vs)
	where = append(where, sqlbuilder.Group{link.Clause})
	total, err := t.countRows(ctx, where)
	if err != nil {
		t.Deps.Log.Warn("filter count failed", "module", t.Def.Name, "filter", name, "error", err)
		return CountProbe{Body: "0"}
	}
	if total > countCap {
		return CountProbe{Body: fmt.Sprintf(">%d", countCap)}
	}
	return CountProbe{Body: strconv.Itoa(total)}
}

// handleFilterLink selects the active named filter: request override first,
// then the stored choice, then the first defined link.
func (t *Table) handleFilterLink(req *Request, vs domain.ViewState) domain.ViewState {
	if len(t.Def.FilterLinks) == 0 {
		vs.FilterLink = ""
		return vs
	}
	if req.Has("filter_link") {
		if _, ok := t.filterLinkByName(req.Get("filter_link")); ok {
			vs.FilterLink = req.Get("filter_link")
			vs.Page = 1
		}
	}
	if _, ok := t.filterLinkByName(vs.FilterLink); !ok {
		vs.FilterLink = t.Def.FilterLinks[0].Name
	}
	return vs
}

func (t *Table) handlePagination(req *Request, vs domain.ViewState) domain.ViewState {
	if req.Has("limit") {
		if n, err := strconv.Atoi(req.Get("limit")); err == nil && domain.ValidLimit(n) && n != vs.Limit {
			vs.Limit = n
			vs.Page = 1
		}
	}
	if req.Has("page") {
		if n, err := strconv.Atoi(req.Get("page")); err == nil && n >= 1 {
			vs.Page = n
		}
	}
	return vs
}

// handleExportCSV streams the whole filtered result set as CSV, paging
// csvPageSize rows at a time, and terminates the request.
func (t *Table) handleExportCSV(ctx context.Context, req *Request, vs domain.ViewState) Response {
	if !req.Has("export_csv") || !t.Def.ExportCSV || !t.Def.Tabular() {
		return nil
	}

	where := t.whereGroups(vs)
	columns := t.displayColumns()
	filename := t.Def.Name + ".csv"

	return CSVExport{
		Filename: filename,
		WriteTo: func(w io.Writer) error {
			cw := csv.NewWriter(w)
			headers := make([]string, len(columns))
			for i, c := range columns {
				headers[i] = c.Label
			}
			if err := cw.Write(headers); err != nil {
				return err
			}

			total, err := t.countRows(ctx, where)
			if err != nil {
				return err
			}
			pages := domain.TotalPages(total, csvPageSize)
			for page := 1; page <= pages; page++ {
				rows, err := t.queryRows(ctx, where, vs, csvPageSize, (page-1)*csvPageSize)
				if err != nil {
					return err
				}
				for _, row := range rows {
					record := make([]string, len(columns))
					for i, c := range columns {
						record[i] = row[c.Key].Display()
					}
					if err := cw.Write(record); err != nil {
						return err
					}
				}
			}
			cw.Flush()
			return cw.Error()
		},
	}
}

// TableResult is the paginated outcome of the index query.
type TableResult struct {
	Rows         []domain.Row
	TotalResults int
	TotalPages   int
	State        domain.ViewState
}

// data runs the count and page queries for the current state. The page is
// clamped into [1, totalPages] before the offset is computed; the returned
// state carries the clamp so it can be persisted.
func (t *Table) data(ctx context.Context, vs domain.ViewState) (*TableResult, error) {
	if !t.Def.Tabular() {
		// Custom content screen: no table behind this module.
		return &TableResult{State: vs}, nil
	}

	where := t.whereGroups(vs)
	total, err := t.countRows(ctx, where)
	if err != nil {
		return nil, err
	}

	totalPages := domain.TotalPages(total, vs.Limit)
	vs.Page = domain.ClampPage(vs.Page, totalPages)
	offset := (vs.Page - 1) * vs.Limit

	rows, err := t.queryRows(ctx, where, vs, vs.Limit, offset)
	if err != nil {
		return nil, err
	}

	return &TableResult{
		Rows:         rows,
		TotalResults: total,
		TotalPages:   totalPages,
		State:        vs,
	}, nil
}

// filterGroups builds the WHERE groups for the persisted filters, excluding
// the active filter link (the count probe swaps its own link in).
func (t *Table) filterGroups(vs domain.ViewState) []sqlbuilder.Group {
	var groups []sqlbuilder.Group

	for _, f := range t.Def.SelectFilters {
		if val, ok := vs.FilterSelections[f.Column]; ok {
			groups = append(groups, sqlbuilder.Group{f.Column, val})
		}
	}

	if vs.SearchTerm != "" && len(t.Def.SearchColumns) > 0 {
		like := sqlbuilder.QuoteLiteral("%" + vs.SearchTerm + "%")
		parts := make([]string, len(t.Def.SearchColumns))
		for i, col := range t.Def.SearchColumns {
			parts[i] = col + " LIKE " + like
		}
		groups = append(groups, sqlbuilder.Group{strings.Join(parts, " OR ")})
	}

	if t.Def.DateTimeColumn != "" {
		if vs.DateFrom != "" {
			groups = append(groups, sqlbuilder.Group{t.Def.DateTimeColumn, ">=", vs.DateFrom})
		}
		if vs.DateTo != "" {
			groups = append(groups, sqlbuilder.Group{t.Def.DateTimeColumn, "<=", vs.DateTo})
		}
	}

	return groups
}

// whereGroups is filterGroups plus the active filter link's clause.
func (t *Table) whereGroups(vs domain.ViewState) []sqlbuilder.Group {
	groups := t.filterGroups(vs)
	if link, ok := t.filterLinkByName(vs.FilterLink); ok {
		groups = append(groups, sqlbuilder.Group{link.Clause})
	}
	return groups
}

func (t *Table) filterLinkByName(name string) (domain.FilterLink, bool) {
	for _, l := range t.Def.FilterLinks {
		if l.Name == name {
			return l, true
		}
	}
	return domain.FilterLink{}, false
}

func (t *Table) countRows(ctx context.Context, where []sqlbuilder.Group) (int, error) {
	b := sqlbuilder.Select(t.Def.Table).
		Columns("count(*)").
		Join(t.Def.Joins...).
		Where(where...)

	var total int
	err := t.Deps.Read.QueryRowContext(ctx, b.Build(), b.Values()...).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (t *Table) queryRows(ctx context.Context, where []sqlbuilder.Group, vs domain.ViewState, limit, offset int) ([]domain.Row, error) {
	keys := make([]string, len(t.Def.TableColumns))
	for i, c := range t.Def.TableColumns {
		keys[i] = c.Key
	}

	b := sqlbuilder.Select(t.Def.Table).
		Columns(keys...).
		Join(t.Def.Joins...).
		Where(where...).
		Limit(limit).
		Offset(offset)
	if vs.OrderBy != "" {
		b = b.OrderBy(sqlbuilder.Order{Col: vs.OrderBy, Dir: vs.Sort})
	}

	rows, err := t.Deps.Read.QueryContext(ctx, b.Build(), b.Values()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
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
			row[columnAlias(key)] = domain.ValueOf(raw[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
