// Package api exposes module rows over a JSON API. It reuses the module
// engine's query pipeline but never touches sessions; callers authenticate
// with a bearer JWT and pass all table state as query parameters.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/module"
)

type Handler struct {
	Registry *module.Registry
	Log      *slog.Logger
}

func NewHandler(registry *module.Registry, log *slog.Logger) *Handler {
	return &Handler{Registry: registry, Log: log}
}

// MountRoutes wires the API onto the router. Authentication and CORS
// middleware are the caller's concern.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/modules", h.ListModules)
	r.Get("/modules/{moduleName}/rows", h.ModuleRows)
}

type moduleInfo struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Tabular bool   `json:"tabular"`
}

func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	defs := h.Registry.Definitions()
	out := make([]moduleInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, moduleInfo{
			Name:    def.Name,
			Title:   def.Title,
			Tabular: def.Tabular(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"modules": out,
	})
}

type rowsResponse struct {
	Module       string                    `json:"module"`
	Columns      []string                  `json:"columns"`
	Rows         []map[string]domain.Value `json:"rows"`
	Page         int                       `json:"page"`
	TotalPages   int                       `json:"total_pages"`
	TotalResults int                       `json:"total_results"`
}

// ModuleRows returns one page of a module's index table. The query parameters
// mirror the admin UI: page, limit, search, order_by, sort, filter_link,
// date_from, date_to, and filter_<column> for configured select filters.
func (h *Handler) ModuleRows(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "moduleName")
	m, err := h.Registry.Resolve(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "module not found")
		return
	}
	if !m.Def.Tabular() {
		writeError(w, http.StatusUnprocessableEntity, "NOT_TABULAR", "module has no table")
		return
	}

	vs := viewStateFromQuery(m.Def, r)
	result, err := m.QueryRows(r.Context(), vs)
	if err != nil {
		h.Log.Error("api row query failed", "module", name, "error", err)
		writeError(w, http.StatusInternalServerError, "QUERY_ERROR", "query failed")
		return
	}

	cols := m.DisplayColumns()
	colNames := make([]string, len(cols))
	for i, c := range cols {
		colNames[i] = c.Key
	}

	rows := make([]map[string]domain.Value, 0, len(result.Rows))
	for _, row := range result.Rows {
		out := make(map[string]domain.Value, len(colNames))
		for _, key := range colNames {
			out[key] = row[key]
		}
		rows = append(rows, out)
	}

	writeJSON(w, http.StatusOK, rowsResponse{
		Module:       name,
		Columns:      colNames,
		Rows:         rows,
		Page:         result.State.Page,
		TotalPages:   result.TotalPages,
		TotalResults: result.TotalResults,
	})
}

func viewStateFromQuery(def *domain.Definition, r *http.Request) domain.ViewState {
	q := r.URL.Query()
	vs := domain.NewViewState(def)

	if n, err := strconv.Atoi(q.Get("page")); err == nil && n >= 1 {
		vs.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && domain.ValidLimit(n) {
		vs.Limit = n
	}
	if s := strings.TrimSpace(q.Get("search")); s != "" {
		vs.SearchTerm = s
	}
	if s := q.Get("order_by"); s != "" {
		vs.OrderBy = s
	}
	if s := q.Get("sort"); s != "" {
		vs.Sort = s
	}
	if s := q.Get("filter_link"); s != "" {
		vs.FilterLink = s
	}
	if def.DateTimeColumn != "" {
		vs.DateFrom = strings.TrimSpace(q.Get("date_from"))
		vs.DateTo = strings.TrimSpace(q.Get("date_to"))
	}
	for _, f := range def.SelectFilters {
		if v := q.Get("filter_" + f.Column); v != "" && v != "NULL" {
			vs.FilterSelections[f.Column] = v
		}
	}
	return vs
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": msg,
		"code":  code,
	})
}
