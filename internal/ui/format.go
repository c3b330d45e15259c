package ui

import (
	"fmt"
	"strconv"
	"time"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"nebula-admin/internal/domain"
)

// formatCell renders one table cell according to the column's format tag.
// Unknown tags and unformatted columns render the escaped display string.
func formatCell(format string, val domain.Value) Node {
	if val.IsNull() {
		return Span(Class(mutedClass()), Text("-"))
	}
	switch format {
	case "currency":
		return Text(formatCurrency(val))
	case "datetime":
		return Text(formatDateTime(val.Display()))
	case "badge":
		return Span(Class("badge badge-"+val.Display()), Text(val.Display()))
	case "image":
		return Img(Src("/uploads/"+val.Display()), Class("cell-image"), Alt(""))
	default:
		return Text(val.Display())
	}
}

func formatCurrency(val domain.Value) string {
	f, err := strconv.ParseFloat(val.Display(), 64)
	if err != nil {
		return val.Display()
	}
	return fmt.Sprintf("$%.2f", f)
}

func formatDateTime(raw string) string {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("Jan 2, 2006 15:04")
		}
	}
	return raw
}
