package ui

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/module"
)

// tableView bundles everything the index page renders.
type tableView struct {
	Shell     shell
	Def       *domain.Definition
	Data      *module.IndexData
	CanCreate bool
	CanEdit   bool
	CanDelete bool
	CSRF      func() Node
}

// tablePage wraps the table in the same #module-table element the fragment
// targets, so in-place re-renders have a swap target on the full page.
func tablePage(v tableView) Node {
	return appPage(v.Shell, Div(ID("module-table"), Group(tableContent(v))))
}

// tableFragment is the index without the app frame, re-rendered in place
// after a row delete. Flashes ride along so the outcome stays visible.
func tableFragment(v tableView) Node {
	return Div(ID("module-table"), flashList(v.Shell.Flashes), Group(tableContent(v)))
}

func tableContent(v tableView) []Node {
	if v.Data.Custom {
		return []Node{Div(Class(cardClass()), P(Class(mutedClass()), Text("This screen has no table behind it.")))}
	}
	return []Node{
		tableToolbar(v),
		filterLinkTabs(v),
		filterBar(v),
		resultsTable(v),
		paginationBar(v),
	}
}

func (v tableView) basePath() string {
	return "/admin/" + v.Def.Name
}

func tableToolbar(v tableView) Node {
	actions := []Node{}
	if v.CanCreate {
		actions = append(actions, A(Href(v.basePath()+"/new"), Class(primaryButtonClass()), Text("+ New")))
	}
	if v.Def.ExportCSV {
		actions = append(actions, A(Href(v.basePath()+"?export_csv=1"), Class(secondaryButtonClass()), Text("Export CSV")))
	}
	return Div(
		Class(cardClass("toolbar")),
		P(Class(mutedClass()), Textf("%d results", v.Data.TotalResults)),
		Div(Class("toolbar-actions"), Group(actions)),
	)
}

func filterLinkTabs(v tableView) Node {
	if len(v.Data.FilterLinks) == 0 {
		return Group(nil)
	}
	tabs := make([]Node, 0, len(v.Data.FilterLinks))
	for _, link := range v.Data.FilterLinks {
		className := "filter-tab"
		if link.Name == v.Data.ActiveFilter {
			className += " active"
		}
		tabs = append(tabs, A(
			Href(v.basePath()+"?filter_link="+url.QueryEscape(link.Name)),
			Class(className),
			Text(link.Name),
		))
	}
	return Nav(Class("filter-tabs"), Group(tabs))
}

// filterBar renders the server-side filters (search, dropdowns, date range)
// as one GET form, plus the client-side quick filter.
func filterBar(v tableView) Node {
	fields := []Node{
		Label(Text("Search")),
		Input(Type("search"), Name("search"), Value(v.Data.State.SearchTerm), Placeholder("Search...")),
	}

	for _, f := range v.Def.SelectFilters {
		selected := v.Data.State.FilterSelections[f.Column]
		options := []Node{Option(Value("NULL"), Text("All"), If(selected == "", Selected()))}
		for _, opt := range f.Options {
			options = append(options, Option(Value(opt.Value), Text(opt.Label), If(opt.Value == selected, Selected())))
		}
		fields = append(fields,
			Label(Text(f.Label)),
			Select(Name("filter_"+f.Column), Group(options)),
		)
	}

	if v.Def.DateTimeColumn != "" {
		fields = append(fields,
			Label(Text("From")),
			Input(Type("date"), Name("date_from"), Value(v.Data.State.DateFrom)),
			Label(Text("To")),
			Input(Type("date"), Name("date_to"), Value(v.Data.State.DateTo)),
		)
	}

	fields = append(fields, Button(Type("submit"), Class(secondaryButtonClass()), Text("Apply")))

	return Div(
		Class(cardClass("filter-bar")),
		Form(Method("get"), Action(v.basePath()), Class("filters"), Group(fields)),
		quickFilter(),
	)
}

// quickFilter narrows the rendered rows client-side without a round trip.
func quickFilter() Node {
	return Div(
		Class("quick-filter"),
		data.Signals(map[string]any{"q": ""}),
		Label(Text("Quick filter")),
		Input(Type("search"), Placeholder("Filter visible rows"), data.Bind("q"), AutoComplete("off")),
	)
}

func resultsTable(v tableView) Node {
	if len(v.Data.Rows) == 0 {
		cta, href := "", ""
		if v.CanCreate {
			cta, href = "+ New", v.basePath()+"/new"
		}
		return emptyStateCard("No results match the current filters.", cta, href)
	}

	headers := make([]Node, 0, len(v.Data.Columns)+1)
	for _, col := range v.Data.Columns {
		headers = append(headers, sortHeader(v, col))
	}
	hasActions := v.CanEdit || v.CanDelete
	if hasActions {
		headers = append(headers, Th(Text("Actions")))
	}

	rows := make([]Node, 0, len(v.Data.Rows))
	for _, row := range v.Data.Rows {
		id := row[v.Def.KeyCol].Display()
		cells := make([]Node, 0, len(v.Data.Columns)+1)
		for _, col := range v.Data.Columns {
			cells = append(cells, Td(formatCell(v.Def.TableFormats[col.Key], row[col.Key])))
		}
		if hasActions {
			cells = append(cells, Td(Class("row-actions"), rowActions(v, id)))
		}
		rows = append(rows, Tr(data.Show(containsExpr(rowFilterText(v, row))), Group(cells)))
	}

	return Div(
		Class(cardClass("table-wrap")),
		Table(
			THead(Tr(Group(headers))),
			TBody(Group(rows)),
		),
	)
}

// rowFilterText is what the client-side quick filter matches against.
func rowFilterText(v tableView, row domain.Row) string {
	parts := make([]string, 0, len(v.Data.Columns))
	for _, col := range v.Data.Columns {
		parts = append(parts, row[col.Key].Display())
	}
	return strings.Join(parts, " ")
}

func sortHeader(v tableView, col module.DisplayColumn) Node {
	active := v.Data.State.OrderBy == col.SortKey || v.Data.State.OrderBy == col.Key
	next := "ASC"
	marker := ""
	if active {
		if v.Data.State.Sort == "ASC" {
			next = "DESC"
			marker = " ^"
		} else {
			marker = " v"
		}
	}
	href := fmt.Sprintf("%s?order_by=%s&sort=%s", v.basePath(), url.QueryEscape(col.SortKey), next)
	return Th(A(Href(href), Class("sort-link"), Text(col.Label+marker)))
}

func rowActions(v tableView, id string) Node {
	actions := []Node{}
	if v.CanEdit {
		actions = append(actions, A(Href(v.basePath()+"/"+id+"/edit"), Class(secondaryButtonClass()), Text("Edit")))
	}
	if v.CanDelete {
		actions = append(actions, Form(
			Method("post"),
			Action(v.basePath()+"/"+id+"/delete"),
			v.CSRF(),
			Button(Type("submit"), Class(dangerButtonClass()), Text("Delete")),
		))
	}
	return Group(actions)
}

func paginationBar(v tableView) Node {
	state := v.Data.State
	links := []Node{}
	if state.Page > 1 {
		links = append(links, A(Href(pageHref(v, state.Page-1)), Class(secondaryButtonClass()), Text("< Prev")))
	}
	links = append(links, Span(Class(mutedClass()), Textf("Page %d of %d", state.Page, v.Data.TotalPages)))
	if state.Page < v.Data.TotalPages {
		links = append(links, A(Href(pageHref(v, state.Page+1)), Class(secondaryButtonClass()), Text("Next >")))
	}

	options := make([]Node, 0, len(domain.PageLimits))
	for _, limit := range domain.PageLimits {
		options = append(options, Option(
			Value(strconv.Itoa(limit)),
			Text(strconv.Itoa(limit)),
			If(limit == state.Limit, Selected()),
		))
	}

	return Div(
		Class(cardClass("pagination")),
		Div(Class("page-links"), Group(links)),
		Form(
			Method("get"),
			Action(v.basePath()),
			Label(Text("Per page")),
			Select(Name("limit"), Group(options)),
			Button(Type("submit"), Class(secondaryButtonClass()), Text("Go")),
		),
	)
}

func pageHref(v tableView, page int) string {
	return fmt.Sprintf("%s?page=%d", v.basePath(), page)
}
