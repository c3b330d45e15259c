package ui

import (
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"nebula-admin/internal/domain"
	"nebula-admin/internal/module"
)

type formView struct {
	Shell shell
	Def   *domain.Definition
	Data  *module.FormData
	Trail []domain.AuditRecord
	CSRF  func() Node
}

func (v formView) isEdit() bool {
	return v.Data.ID != ""
}

func (v formView) action() string {
	base := "/admin/" + v.Def.Name
	if v.isEdit() {
		return base + "/" + v.Data.ID
	}
	return base
}

func formPage(v formView) Node {
	return appPage(v.Shell, formContent(v)...)
}

func formFragment(v formView) Node {
	return Div(ID("module-form"), flashList(v.Shell.Flashes), Group(formContent(v)))
}

func formContent(v formView) []Node {
	required := map[string]bool{}
	for _, field := range v.Data.Required {
		required[field] = true
	}

	editBase := ""
	if v.isEdit() {
		editBase = v.action() + "/edit"
	}

	fields := make([]Node, 0, len(v.Def.FormColumns))
	for _, col := range v.Def.FormColumns {
		fields = append(fields, formField(v, col, required[col.Key], editBase))
	}

	submit := "Create"
	if v.isEdit() {
		submit = "Save"
	}

	content := []Node{
		Div(
			Class(cardClass("form-card")),
			Form(
				Method("post"),
				Action(v.action()),
				EncType("multipart/form-data"),
				v.CSRF(),
				Group(fields),
				Div(
					Class("form-actions"),
					Button(Type("submit"), Class(primaryButtonClass()), Text(submit)),
					A(Href("/admin/"+v.Def.Name), Class(secondaryButtonClass()), Text("Cancel")),
				),
			),
		),
	}
	if trail := auditTrailCard(v.Trail); trail != nil {
		content = append(content, trail)
	}
	return content
}

func formField(v formView, col domain.ColumnSpec, required bool, editBase string) Node {
	if col.Label == "" {
		// Hidden columns still submit their value.
		return Input(Type("hidden"), Name(col.Key), Value(v.Data.Values[col.Key]))
	}

	label := []Node{Text(col.Label)}
	if required {
		label = append(label, Span(Class("required-marker"), Text(" *")))
	}

	errs := v.Data.Errors.FieldErrors(col.Key)
	errNodes := make([]Node, 0, len(errs))
	for _, msg := range errs {
		errNodes = append(errNodes, P(Class("field-error"), Text(msg)))
	}

	className := "form-field"
	if len(errs) > 0 {
		className += " has-error"
	}

	return Div(
		Class(className),
		Label(For("field-"+col.Key), Group(label)),
		controlNode(v.Def, col, v.Data.Values[col.Key], editBase),
		Group(errNodes),
	)
}

// auditTrailCard shows the most recent changes to the row being edited.
func auditTrailCard(trail []domain.AuditRecord) Node {
	if len(trail) == 0 {
		return nil
	}
	rows := make([]Node, 0, len(trail))
	for _, rec := range trail {
		rows = append(rows, Tr(
			Td(Text(rec.CreatedAt.Format("2006-01-02 15:04"))),
			Td(Text(rec.Message)),
			Td(Text(rec.Field)),
			Td(formatCell("", rec.OldValue)),
			Td(formatCell("", rec.NewValue)),
		))
	}
	return Div(
		Class(cardClass("table-wrap")),
		H2(Text("Recent changes")),
		Table(
			THead(Tr(Th(Text("When")), Th(Text("Action")), Th(Text("Field")), Th(Text("Old")), Th(Text("New")))),
			TBody(Group(rows)),
		),
	)
}
