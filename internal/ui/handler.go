// Package ui renders the server-side admin interface with gomponents and
// translates HTTP requests into module engine calls.
package ui

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	gomponents "maragu.dev/gomponents"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/module"
	"nebula-admin/internal/repository"
	"nebula-admin/internal/session"
	"nebula-admin/internal/upload"
)

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// files spill to temp disk.
const maxUploadMemory = 32 << 20

type Handler struct {
	Registry   *module.Registry
	Users      *repository.UserRepo
	Sessions   *session.Manager
	Uploads    *upload.Store
	Log        *slog.Logger
	Production bool
}

func NewHandler(
	registry *module.Registry,
	users *repository.UserRepo,
	sessions *session.Manager,
	uploads *upload.Store,
	log *slog.Logger,
	production bool,
) *Handler {
	return &Handler{
		Registry:   registry,
		Users:      users,
		Sessions:   sessions,
		Uploads:    uploads,
		Log:        log,
		Production: production,
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

// buildRequest narrows an HTTP request to what the module engine consumes.
// Multipart bodies surface their files as lazy readers.
func (h *Handler) buildRequest(r *http.Request) *module.Request {
	var files []module.UploadedFile

	if r.Method == http.MethodPost && strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err == nil && r.MultipartForm != nil {
			for field, headers := range r.MultipartForm.File {
				if len(headers) == 0 {
					continue
				}
				fh := headers[0]
				files = append(files, module.UploadedFile{
					Field:    field,
					Filename: fh.Filename,
					Open:     func() (io.ReadCloser, error) { return fh.Open() },
				})
			}
		}
	} else {
		_ = r.ParseForm()
	}

	principal, _ := domain.PrincipalFromContext(r.Context())
	sess, _ := session.FromContext(r.Context())

	return &module.Request{
		Method:    r.Method,
		URI:       r.URL.RequestURI(),
		Query:     r.URL.Query(),
		Form:      r.PostForm,
		Files:     files,
		Principal: principal,
		Session:   sess,
	}
}

// buildShell assembles the app frame state for one rendered page. Flashes are
// popped here, so partial fragments must not build a shell.
func (h *Handler) buildShell(r *http.Request, req *module.Request, common module.ViewCommon, title string) shell {
	var flashes []session.Flash
	if req.Session != nil {
		flashes = req.Session.PopFlashes()
	}
	active := ""
	if common.Definition != nil {
		active = common.Definition.Name
	}
	return shell{
		Title:       title,
		Active:      active,
		Principal:   req.Principal,
		Nav:         h.Registry.Definitions(),
		Breadcrumbs: common.Breadcrumbs,
		Flashes:     flashes,
		ElapsedMs:   common.ElapsedMs,
	}
}
