package domain

// PageLimits is the closed set of page sizes the UI offers.
var PageLimits = []int{5, 10, 15, 25, 50, 100, 200, 500, 1000}

// DefaultPageLimit is used before the user picks a page size.
const DefaultPageLimit = 10

// ViewState is the per-module, per-session table state: the page the user is
// on, the sort order, and every active filter. It is loaded and stored as one
// unit through a single session key so concurrent tabs degrade to
// last-write-wins on the whole struct rather than on scattered keys.
type ViewState struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`

	OrderBy string `json:"order_by"`
	Sort    string `json:"sort"`

	SearchTerm string `json:"search_term"`

	FilterLink       string            `json:"filter_link"`
	FilterSelections map[string]string `json:"filter_selections"`
	DateFrom         string            `json:"date_from"`
	DateTo           string            `json:"date_to"`
}

// NewViewState returns the initial state for a module definition.
func NewViewState(def *Definition) ViewState {
	return ViewState{
		Page:             1,
		Limit:            DefaultPageLimit,
		OrderBy:          def.OrderBy,
		Sort:             def.Sort,
		FilterSelections: map[string]string{},
	}
}

// ValidLimit reports whether n is one of the offered page sizes.
func ValidLimit(n int) bool {
	for _, l := range PageLimits {
		if l == n {
			return true
		}
	}
	return false
}

// ClampPage forces page into [1, max(1, totalPages)].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// TotalPages computes ceil(total/limit), never less than 1.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 1
	}
	pages := (total + limit - 1) / limit
	if pages < 1 {
		return 1
	}
	return pages
}
