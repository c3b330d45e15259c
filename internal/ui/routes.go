package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nebula-admin/internal/ui/assets"
)

// MountRoutes wires the admin UI onto the router. requireUser must resolve
// the session user into a principal and bounce anonymous requests to /login.
func MountRoutes(r chi.Router, h *Handler, requireUser func(http.Handler) http.Handler) {
	r.Use(h.Sessions.Middleware)
	r.Use(h.EnsureCSRFToken)
	r.Use(h.RequireCSRF)

	r.Get("/login", h.LoginPage)
	r.Post("/login", h.LoginSubmit)
	r.Post("/logout", h.Logout)

	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/admin", http.StatusSeeOther)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.Uploads.Dir))))

		r.Route("/admin", func(r chi.Router) {
			r.Get("/", h.Dashboard)
			r.Route("/{moduleName}", func(r chi.Router) {
				r.Get("/", h.ModuleIndex)
				r.Get("/partial", h.ModuleIndexPartial)
				r.Get("/new", h.ModuleNew)
				r.Post("/", h.ModuleStore)
				r.Get("/{id}/edit", h.ModuleEdit)
				r.Post("/{id}", h.ModuleUpdate)
				r.Post("/{id}/delete", h.ModuleDestroy)
			})
		})
	})
}
