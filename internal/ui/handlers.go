package ui

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nebula-admin/internal/module"
)

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	req := h.buildRequest(r)

	defs := h.Registry.Definitions()
	cards := make([]overviewCardData, 0, len(defs))
	for _, def := range defs {
		cards = append(cards, overviewCardData{
			Title:       def.Title,
			Description: fmt.Sprintf("Manage %s records.", def.Title),
			Href:        "/admin/" + def.Name,
		})
	}

	s := h.buildShell(r, req, module.ViewCommon{}, "Dashboard")
	renderHTML(w, http.StatusOK, dashboardPage(s, cards))
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*module.Module, bool) {
	name := chi.URLParam(r, "moduleName")
	m, err := h.Registry.Resolve(name)
	if err != nil {
		renderHTML(w, http.StatusNotFound, errorPage("Not Found", "No such module: "+name))
		return nil, false
	}
	return m, true
}

func (h *Handler) ModuleIndex(w http.ResponseWriter, r *http.Request) {
	m, ok := h.resolve(w, r)
	if !ok {
		return
	}
	req := h.buildRequest(r)
	h.respond(w, r, m, req, m.Index(r.Context(), req))
}

func (h *Handler) ModuleIndexPartial(w http.ResponseWriter, r *http.Request) {
	m, ok := h.resolve(w, r)
	if !ok {
		return
	}
	req := h.buildRequest(r)
	h.respond(w, r, m, req, m.IndexPartial(r.Context(), req))
}

func (h *Handler) ModuleNew(w http.ResponseWriter, r *http.Request) {
	m, ok := h.resolve(w, r)
	if !ok {
		return
	}
	req := h.buildRequest(r)
	h.respond(w, r, m, req, m.Create(r.Context(), req))
}

func (h *Handler) ModuleStore(w http.ResponseWriter, r *http.Request) {
	m, ok := h.resolve(w, r)
	if !ok {
		return
	}
	req := h.buildRequest(r)
	h.respond(w, r, m, req, m.Store(r.Context(), req))
}

func (h *Handler) ModuleEdit(w http.ResponseWriter, r *http.Request) {
	m, ok := h.resolve(w, r)
	if !ok {
		return
	}
	req := h.buildRequest(r)
	h.respond(w, r, m, req, m.Edit(r.Context(), req, chi.URLParam(r, "id")))
}

func (h *Handler) ModuleUpdate(w http.ResponseWriter, r *http.Request) {
	m, ok := h.resolve(w, r)
	if !ok {
		return
	}
	req := h.buildRequest(r)
	h.respond(w, r, m, req, m.Update(r.Context(), req, chi.URLParam(r, "id")))
}

func (h *Handler) ModuleDestroy(w http.ResponseWriter, r *http.Request) {
	m, ok := h.resolve(w, r)
	if !ok {
		return
	}
	req := h.buildRequest(r)
	h.respond(w, r, m, req, m.Destroy(r.Context(), req, chi.URLParam(r, "id")))
}

// respond maps an engine outcome to HTTP. Terminal outcomes (redirects, CSV
// streams, count probes) bypass page rendering entirely.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, m *module.Module, req *module.Request, resp module.Response) {
	switch v := resp.(type) {
	case module.IndexView:
		view := h.tableView(r, m, req, v.Data)
		if v.Partial {
			renderHTML(w, http.StatusOK, tableFragment(view))
			return
		}
		renderHTML(w, http.StatusOK, tablePage(view))

	case module.CreateView:
		view := h.formView(r, m, req, v.Data)
		status := http.StatusOK
		if !v.Data.Errors.Valid() {
			status = http.StatusUnprocessableEntity
		}
		if v.Partial {
			renderHTML(w, status, formFragment(view))
			return
		}
		renderHTML(w, status, formPage(view))

	case module.EditView:
		view := h.formView(r, m, req, v.Data)
		if v.Data.ID != "" {
			trail, err := m.Deps.Audit.ListForRow(r.Context(), m.Def.Table, v.Data.ID, 20)
			if err == nil {
				view.Trail = trail
			}
		}
		status := http.StatusOK
		if !v.Data.Errors.Valid() {
			status = http.StatusUnprocessableEntity
		}
		if v.Partial {
			renderHTML(w, status, formFragment(view))
			return
		}
		renderHTML(w, status, formPage(view))

	case module.Redirect:
		http.Redirect(w, r, v.Location, http.StatusSeeOther)

	case module.CSVExport:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+v.Filename+`"`)
		if err := v.WriteTo(w); err != nil {
			h.Log.Error("csv export failed", "module", m.Def.Name, "error", err)
		}

	case module.CountProbe:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(v.Body))

	case module.Denied:
		renderHTML(w, http.StatusForbidden, errorPage("Access Denied", v.Message))

	case module.NotFound:
		renderHTML(w, http.StatusNotFound, errorPage("Not Found", v.Message))

	default:
		h.Log.Error("unhandled module response", "module", m.Def.Name, "type", fmt.Sprintf("%T", resp))
		renderHTML(w, http.StatusInternalServerError, errorPage("Unexpected Error", "An unexpected error occurred."))
	}
}

func (h *Handler) tableView(r *http.Request, m *module.Module, req *module.Request, data *module.IndexData) tableView {
	create, edit, del := m.Permissions(req.Principal)
	return tableView{
		Shell:     h.buildShell(r, req, data.ViewCommon, m.Def.Title),
		Def:       m.Def,
		Data:      data,
		CanCreate: create,
		CanEdit:   edit,
		CanDelete: del,
		CSRF:      csrfFieldProvider(r),
	}
}

func (h *Handler) formView(r *http.Request, m *module.Module, req *module.Request, data *module.FormData) formView {
	title := m.Def.Title
	if n := len(data.Breadcrumbs); n > 0 {
		title = m.Def.Title + ": " + data.Breadcrumbs[n-1].Label
	}
	return formView{
		Shell: h.buildShell(r, req, data.ViewCommon, title),
		Def:   m.Def,
		Data:  data,
		CSRF:  csrfFieldProvider(r),
	}
}
