// Package module implements the generic admin CRUD engine: a declarative
// Definition drives the index table (filtering, search, sorting, pagination,
// CSV export) and the create/edit forms (validation, schema-filtered
// persistence, uploads, audit trail).
package module

import (
	"io"
	"net/url"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/session"
)

// UploadedFile is one file attached to a form submission.
type UploadedFile struct {
	Field    string
	Filename string
	Open     func() (io.ReadCloser, error)
}

// Request is the narrow slice of an HTTP request the engine consumes.
type Request struct {
	Method    string
	URI       string
	Query     url.Values
	Form      url.Values
	Files     []UploadedFile
	Principal domain.Principal
	Session   *session.Session
}

// Has reports whether a field was submitted in the form body or query string.
func (r *Request) Has(name string) bool {
	if r.Form != nil && r.Form.Has(name) {
		return true
	}
	return r.Query != nil && r.Query.Has(name)
}

// Get returns a submitted field, form body first.
func (r *Request) Get(name string) string {
	if r.Form != nil && r.Form.Has(name) {
		return r.Form.Get(name)
	}
	if r.Query != nil {
		return r.Query.Get(name)
	}
	return ""
}

// File returns the uploaded file for a field, if any.
func (r *Request) File(field string) (UploadedFile, bool) {
	for _, f := range r.Files {
		if f.Field == field {
			return f, true
		}
	}
	return UploadedFile{}, false
}
