package ui

import (
	"strconv"
	"strings"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/module"
	"nebula-admin/internal/session"
)

// shell carries everything the app frame needs around a page body.
type shell struct {
	Title       string
	Active      string
	Principal   domain.Principal
	Nav         []*domain.Definition
	Breadcrumbs []module.Crumb
	Flashes     []session.Flash
	ElapsedMs   int64
}

func appPage(s shell, body ...Node) Node {
	nav := make([]Node, 0, len(s.Nav)+1)
	nav = append(nav, navLink("/admin", "Dashboard", s.Active == ""))
	for _, def := range s.Nav {
		nav = append(nav, navLink("/admin/"+def.Name, def.Title, s.Active == def.Name))
	}

	principalLabel := s.Principal.Name
	if principalLabel == "" {
		principalLabel = "unknown"
	}

	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(s.Title+" | Nebula Admin")),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("stylesheet"), Href("/static/app.css")),
			Script(
				Type("module"),
				Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"),
			),
		),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(
						Class("brand"),
						Strong(Text("Nebula Admin")),
						P(Class(mutedClass()), Text("Content administration")),
					),
					Nav(Class("app-nav"), Group(nav)),
				),
				Section(
					Class("app-main"),
					Div(
						Class("topbar"),
						breadcrumbBar(s.Breadcrumbs),
						Div(
							P(Class(mutedClass()), Text("Signed in as "+principalLabel)),
							Form(
								Method("post"),
								Action("/logout"),
								Button(Type("submit"), Class(secondaryButtonClass()), Text("Sign out")),
							),
						),
					),
					H1(Class("page-title"), Text(s.Title)),
					flashList(s.Flashes),
					Div(Class("content"), Group(body)),
					renderStats(s.ElapsedMs),
				),
			),
		),
	)
}

func navLink(href, label string, active bool) Node {
	className := "app-nav-link"
	if active {
		className += " active"
	}
	return A(Href(href), Class(className), Text(label))
}

func breadcrumbBar(crumbs []module.Crumb) Node {
	if len(crumbs) == 0 {
		return Div()
	}
	parts := make([]Node, 0, len(crumbs)*2)
	for i, c := range crumbs {
		if i > 0 {
			parts = append(parts, Span(Class("crumb-sep"), Text("/")))
		}
		if c.Href != "" && i < len(crumbs)-1 {
			parts = append(parts, A(Href(c.Href), Class("crumb"), Text(c.Label)))
		} else {
			parts = append(parts, Span(Class("crumb current"), Text(c.Label)))
		}
	}
	return Nav(Class("breadcrumbs"), Group(parts))
}

func flashList(flashes []session.Flash) Node {
	if len(flashes) == 0 {
		return Group(nil)
	}
	items := make([]Node, 0, len(flashes))
	for _, f := range flashes {
		items = append(items, Div(Class("flash flash-"+f.Level), Text(f.Message)))
	}
	return Div(Class("flashes"), Group(items))
}

func renderStats(elapsedMs int64) Node {
	if elapsedMs < 0 {
		return Group(nil)
	}
	return P(Class(mutedClass()+" render-stats"), Textf("Rendered in %dms", elapsedMs))
}

func errorPage(title, message string) Node {
	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | Nebula Admin")),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("stylesheet"), Href("/static/app.css")),
		),
		Body(
			Main(
				Class("layout"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				P(A(Href("/admin"), Text("Back to dashboard"))),
			),
		),
	)
}

func cardClass(extra ...string) string {
	parts := []string{"card"}
	parts = append(parts, extra...)
	return strings.Join(parts, " ")
}

func mutedClass() string {
	return "muted"
}

func primaryButtonClass() string {
	return "btn btn-primary"
}

func secondaryButtonClass() string {
	return "btn"
}

func dangerButtonClass() string {
	return "btn btn-danger"
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

func emptyStateCard(message, ctaLabel, ctaHref string) Node {
	cta := Node(nil)
	if ctaLabel != "" && ctaHref != "" {
		cta = A(Href(ctaHref), Class(primaryButtonClass()), Text(ctaLabel))
	}
	return Div(
		Class(cardClass("blankslate")),
		P(Class(mutedClass()), Text(message)),
		cta,
	)
}
