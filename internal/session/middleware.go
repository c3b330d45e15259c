package session

import (
	"context"
	"net/http"
)

const cookieName = "nebula_session"

type sessionContextKey struct{}

// Manager attaches a session to every request: it loads the session named by
// the cookie (creating one when missing or expired) and saves it after the
// handler runs if it changed.
type Manager struct {
	Store      *Store
	Production bool
}

func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *Session
		if cookie, err := r.Cookie(cookieName); err == nil {
			sess, _ = m.Store.Load(r.Context(), cookie.Value)
		}
		if sess == nil {
			var err error
			sess, err = m.Store.Create(r.Context())
			if err != nil {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    sess.Token,
				Path:     "/",
				HttpOnly: true,
				Secure:   m.Production,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))

		if sess.Changed() {
			_ = m.Store.Save(r.Context(), sess)
		}
	})
}

// ClearCookie expires the session cookie (logout).
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Production,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// WithSession attaches a session to the context.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext returns the session attached by the middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*Session)
	return s, ok
}
