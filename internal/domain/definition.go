package domain

// ColumnSpec pairs a SQL column (or aliased expression) with its display
// label. Order is significant: tables and forms render columns in the order
// they are declared.
type ColumnSpec struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// SelectOption is one entry of a select control or dropdown filter.
type SelectOption struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// FilterLink is a named, pre-defined WHERE shortcut rendered as a clickable
// tab (e.g. "Draft" / "Published"). Clause is a trusted raw SQL fragment.
type FilterLink struct {
	Name   string `yaml:"name"`
	Clause string `yaml:"clause"`
}

// SelectFilter declares a dropdown filter over one column.
type SelectFilter struct {
	Column  string         `yaml:"column"`
	Label   string         `yaml:"label"`
	Options []SelectOption `yaml:"options"`
}

// Definition describes one admin screen: the table it maps to, which columns
// appear in the index table and the create/edit form, how each form column is
// rendered, and how submissions are validated. Definitions are configuration,
// not database rows; they come from Go code or YAML.
type Definition struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title"`
	// Table is empty for custom, non-tabular screens.
	Table   string `yaml:"table"`
	KeyCol  string `yaml:"key_col"`
	NameCol string `yaml:"name_col"`

	TableColumns []ColumnSpec `yaml:"table_columns"`
	FormColumns  []ColumnSpec `yaml:"form_columns"`

	// Controls maps a form column to a control kind tag ("input", "select",
	// "switch", ...). Columns without an entry render as plain text inputs.
	Controls      map[string]string         `yaml:"controls"`
	Validation    map[string][]string       `yaml:"validation"`
	SelectOptions map[string][]SelectOption `yaml:"select_options"`
	FormDefaults  map[string]string         `yaml:"form_defaults"`

	// TableFormats maps a display column to a cell format tag ("currency",
	// "datetime", "badge", "image"). Unlisted columns render escaped text.
	TableFormats map[string]string `yaml:"table_formats"`

	FilterLinks    []FilterLink   `yaml:"filter_links"`
	SelectFilters  []SelectFilter `yaml:"select_filters"`
	SearchColumns  []string       `yaml:"search_columns"`
	DateTimeColumn string         `yaml:"datetime_column"`
	// Joins are trusted raw SQL join clauses appended after FROM.
	Joins []string `yaml:"joins"`

	OrderBy string `yaml:"order_by"`
	Sort    string `yaml:"sort"`

	ExportCSV   bool `yaml:"export_csv"`
	Creatable   bool `yaml:"creatable"`
	Editable    bool `yaml:"editable"`
	Destroyable bool `yaml:"destroyable"`

	// UploadColumns lists form columns holding stored file paths.
	UploadColumns []string `yaml:"upload_columns"`
}

// Normalize fills defaults and validates the definition's internal
// consistency.
func (d *Definition) Normalize() error {
	if d.Name == "" {
		return ErrValidation("module definition requires a name")
	}
	if d.Title == "" {
		d.Title = d.Name
	}
	if d.KeyCol == "" {
		d.KeyCol = "id"
	}
	if d.NameCol == "" {
		d.NameCol = d.KeyCol
	}
	if d.Sort != "ASC" && d.Sort != "DESC" {
		d.Sort = "DESC"
	}
	if d.OrderBy == "" {
		d.OrderBy = d.KeyCol
	}
	if d.Table != "" && len(d.TableColumns) == 0 {
		return ErrValidation("module %q maps table %q but declares no table columns", d.Name, d.Table)
	}
	return nil
}

// Tabular reports whether this module is backed by a table. Non-tabular
// modules are custom content screens: table queries return no data and the
// form actions are disabled.
func (d *Definition) Tabular() bool {
	return d.Table != "" && len(d.TableColumns) > 0
}

// RequiredFields lists form columns whose validation rules include
// "required", in form column order.
func (d *Definition) RequiredFields() []string {
	var out []string
	for _, col := range d.FormColumns {
		for _, rule := range d.Validation[col.Key] {
			if rule == "required" {
				out = append(out, col.Key)
				break
			}
		}
	}
	return out
}
