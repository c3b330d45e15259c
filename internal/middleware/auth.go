package middleware

import (
	"net/http"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/repository"
	"nebula-admin/internal/session"
)

// SessionAuth resolves the logged-in user from the request session and puts
// the principal into the context. Requests without a logged-in session are
// handed to onDenied (the UI redirects to /login, the API answers 401).
func SessionAuth(users *repository.UserRepo, onDenied http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok || sess.UserID == 0 {
				onDenied(w, r)
				return
			}
			principal, err := users.ByID(r.Context(), sess.UserID)
			if err != nil {
				// Stale session pointing at a deleted user.
				sess.UserID = 0
				sess.MarkChanged()
				onDenied(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin gates a route group to admin principals. It must run after an
// authentication middleware that set the principal.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := domain.PrincipalFromContext(r.Context())
		if !ok || !p.IsAdmin {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectToLogin is the UI's denied handler.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Unauthorized is the API's denied handler.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "authentication required", http.StatusUnauthorized)
}
