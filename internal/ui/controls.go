package ui

import (
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"nebula-admin/internal/domain"
)

// controlNode renders one form field for a column, dispatching on the
// definition's control kind tag. Columns without a tag render as text inputs.
func controlNode(def *domain.Definition, col domain.ColumnSpec, value, editBase string) Node {
	kind := def.Controls[col.Key]
	switch kind {
	case "password":
		return Input(Type("password"), Name(col.Key), ID("field-"+col.Key), AutoComplete("new-password"))
	case "textarea":
		return Textarea(Name(col.Key), ID("field-"+col.Key), Rows("5"), Text(value))
	case "editor":
		return Textarea(Name(col.Key), ID("field-"+col.Key), Rows("15"), Class("editor"), Text(value))
	case "disabled":
		return Input(Type("text"), Name(col.Key), ID("field-"+col.Key), Value(value), Disabled())
	case "readonly":
		return Input(Type("text"), Name(col.Key), ID("field-"+col.Key), Value(value), ReadOnly())
	case "plain":
		return P(Class("plain-value"), Text(value))
	case "select":
		return selectControl(def, col.Key, value, false)
	case "nselect":
		return selectControl(def, col.Key, value, true)
	case "number":
		return Input(Type("number"), Name(col.Key), ID("field-"+col.Key), Value(value), Step("any"))
	case "color":
		return Input(Type("color"), Name(col.Key), ID("field-"+col.Key), Value(value))
	case "datetime":
		return Input(Type("datetime-local"), Name(col.Key), ID("field-"+col.Key), Value(value))
	case "checkbox", "switch":
		className := ""
		if kind == "switch" {
			className = "switch"
		}
		// The hidden field makes an unchecked box submit "0" instead of
		// nothing, so toggling off persists.
		return Group([]Node{
			Input(Type("hidden"), Name(col.Key), Value("0")),
			Input(Type("checkbox"), Name(col.Key), ID("field-"+col.Key), Value("1"), Class(className),
				If(value == "1" || value == "true", Checked())),
		})
	case "upload":
		return uploadControl(col.Key, value, editBase, false)
	case "image":
		return uploadControl(col.Key, value, editBase, true)
	default:
		return Input(Type("text"), Name(col.Key), ID("field-"+col.Key), Value(value))
	}
}

func selectControl(def *domain.Definition, col, selected string, nullable bool) Node {
	options := []Node{}
	if nullable {
		options = append(options, Option(Value("null"), Text("-"), If(selected == "", Selected())))
	}
	for _, opt := range def.SelectOptions[col] {
		options = append(options, Option(Value(opt.Value), Text(opt.Label), If(opt.Value == selected, Selected())))
	}
	return Select(Name(col), ID("field-"+col), Group(options))
}

// uploadControl renders the file input plus, when a file is already stored,
// a link to it and a delete shortcut. editBase is empty on the create form.
func uploadControl(col, stored, editBase string, preview bool) Node {
	nodes := []Node{Input(Type("file"), Name(col), ID("field-"+col))}
	if stored != "" && editBase != "" {
		if preview {
			nodes = append(nodes, Img(Src("/uploads/"+stored), Class("upload-preview"), Alt("")))
		}
		nodes = append(nodes,
			Div(
				Class("upload-current"),
				A(Href("/uploads/"+stored), Text(stored)),
				A(Href(editBase+"?file_delete="+col), Class("upload-delete"), Text("Remove")),
			),
		)
	}
	return Group(nodes)
}
