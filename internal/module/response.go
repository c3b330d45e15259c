package module

import (
	"io"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/validation"
)

// Response is the terminal outcome of one module action. Every variant is an
// ordinary return value; the engine never halts the process or writes to the
// network itself, so callers compose and tests observe.
type Response interface {
	isResponse()
}

// Crumb is one breadcrumb entry.
type Crumb struct {
	Label string
	Href  string
}

// ViewCommon carries data shared by every rendered module view.
type ViewCommon struct {
	Definition  *domain.Definition
	Breadcrumbs []Crumb
	ElapsedMs   int64
}

// DisplayColumn is one index-table column after de-aliasing. Key is the
// row/CSV lookup key; Label the header text.
type DisplayColumn struct {
	Key     string
	SortKey string // original configured key, used for ORDER BY round-trips
	Label   string
}

// IndexData is everything the index table view needs.
type IndexData struct {
	ViewCommon
	Columns      []DisplayColumn
	Rows         []domain.Row
	State        domain.ViewState
	TotalResults int
	TotalPages   int
	FilterLinks  []domain.FilterLink
	ActiveFilter string
	Custom       bool // non-tabular custom content screen
}

// FormData is everything the create/edit form views need.
type FormData struct {
	ViewCommon
	ID       string // empty on create
	Values   map[string]string
	Required []string
	Errors   validation.Result
}

// IndexView renders the index table (full page or partial fragment).
type IndexView struct {
	Partial bool
	Data    *IndexData
}

// CreateView renders the create form.
type CreateView struct {
	Partial bool
	Data    *FormData
}

// EditView renders the edit form.
type EditView struct {
	Partial bool
	Data    *FormData
}

// Redirect sends the client elsewhere (303).
type Redirect struct {
	Location string
}

// CSVExport streams the full filtered table as CSV and ends the request.
type CSVExport struct {
	Filename string
	WriteTo  func(w io.Writer) error
}

// CountProbe answers a filter-link count request with a plain-text body.
type CountProbe struct {
	Body string
}

// Denied is a 403 outcome.
type Denied struct {
	Message string
}

// NotFound is a 404 outcome.
type NotFound struct {
	Message string
}

func (IndexView) isResponse()  {}
func (CreateView) isResponse() {}
func (EditView) isResponse()   {}
func (Redirect) isResponse()   {}
func (CSVExport) isResponse()  {}
func (CountProbe) isResponse() {}
func (Denied) isResponse()     {}
func (NotFound) isResponse()   {}
