package ui

import (
	"net/http"
	"strings"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"nebula-admin/internal/session"
)

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok && sess.UserID != 0 {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	renderHTML(w, http.StatusOK, loginPage(strings.TrimSpace(r.URL.Query().Get("error")), csrfFieldProvider(r)))
}

func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error=invalid+form", http.StatusSeeOther)
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")
	if email == "" || password == "" {
		http.Redirect(w, r, "/login?error=email+and+password+are+required", http.StatusSeeOther)
		return
	}

	principal, err := h.Users.Authenticate(r.Context(), email, password)
	if err != nil {
		h.Log.Info("login rejected", "email", email)
		http.Redirect(w, r, "/login?error=invalid+email+or+password", http.StatusSeeOther)
		return
	}

	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login?error=session+unavailable", http.StatusSeeOther)
		return
	}
	sess.UserID = principal.ID
	sess.MarkChanged()
	sess.AddFlash("success", "Welcome back, "+principal.Name)

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		_ = h.Sessions.Store.Destroy(r.Context(), sess.Token)
	}
	h.Sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func loginPage(errMsg string, csrf func() Node) Node {
	content := []Node{
		H1(Text("Nebula Admin")),
		P(Class(mutedClass()), Text("Sign in to manage content.")),
		Form(
			Method("post"),
			Action("/login"),
			Class("login-form"),
			csrf(),
			Label(For("login-email"), Text("Email")),
			Input(Type("email"), ID("login-email"), Name("email"), Required(), AutoComplete("username")),
			Label(For("login-password"), Text("Password")),
			Input(Type("password"), ID("login-password"), Name("password"), Required(), AutoComplete("current-password")),
			Button(
				Type("submit"),
				Class(primaryButtonClass()),
				Text("Sign In"),
			),
		),
	}
	if errMsg != "" {
		content = append([]Node{P(Class("flash flash-danger"), Text(errMsg))}, content...)
	}

	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text("Sign in | Nebula Admin")),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("stylesheet"), Href("/static/app.css")),
		),
		Body(
			Class("login-body"),
			Main(Class("login-wrap"), Group(content)),
		),
	)
}
