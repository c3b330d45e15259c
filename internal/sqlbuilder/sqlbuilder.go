// Package sqlbuilder assembles parameterized SQL statements from structured
// clause descriptions. It is the single place the module engine generates SQL.
//
// Trust boundary: column names, join clauses, and single-element where groups
// are trusted raw strings supplied by module configuration, never by request
// input. Only discrete values are parameterized.
package sqlbuilder

import (
	"fmt"
	"strings"
)

type stmtKind int

const (
	stmtSelect stmtKind = iota
	stmtInsert
	stmtUpdate
	stmtDelete
)

// Group is one AND-group of a WHERE or HAVING clause:
//
//	Group{"deleted_at IS NULL"}   raw fragment, passed through verbatim
//	Group{"id", 1}                renders "id = ?"
//	Group{"price", ">", 100}      renders "price > ?"
//
// Groups are parenthesized and joined with AND.
type Group []interface{}

// Pair is one column/value assignment for INSERT and UPDATE statements.
// Assignments render in slice order.
type Pair struct {
	Col string
	Val interface{}
}

// Order is one ORDER BY term.
type Order struct {
	Col string
	Dir string // "ASC" or "DESC"
}

// Builder accumulates clauses and renders them with Build and Values. Build
// never mutates the builder: calling it repeatedly yields identical output.
type Builder struct {
	kind    stmtKind
	table   string
	cols    []string
	sets    []Pair
	joins   []string
	wheres  []Group
	groupBy []string
	havings []Group
	orderBy []Order
	limit   *int
	offset  *int
}

// Select starts a SELECT statement against table.
func Select(table string) *Builder { return &Builder{kind: stmtSelect, table: table} }

// Insert starts an INSERT statement against table.
func Insert(table string) *Builder { return &Builder{kind: stmtInsert, table: table} }

// Update starts an UPDATE statement against table.
func Update(table string) *Builder { return &Builder{kind: stmtUpdate, table: table} }

// Delete starts a DELETE statement against table.
func Delete(table string) *Builder { return &Builder{kind: stmtDelete, table: table} }

// Columns sets the SELECT column list. Plain identifiers are backtick-quoted
// (`table`.`col` when qualified); expressions containing "(" are passed
// through unquoted so aggregates and function calls survive.
func (b *Builder) Columns(cols ...string) *Builder {
	b.cols = append(b.cols, cols...)
	return b
}

// Set adds column/value assignments for INSERT and UPDATE.
func (b *Builder) Set(pairs ...Pair) *Builder {
	b.sets = append(b.sets, pairs...)
	return b
}

// Join appends raw SQL join clauses, space-joined after the FROM table.
func (b *Builder) Join(clauses ...string) *Builder {
	b.joins = append(b.joins, clauses...)
	return b
}

// Where appends AND-groups to the WHERE clause.
func (b *Builder) Where(groups ...Group) *Builder {
	b.wheres = append(b.wheres, groups...)
	return b
}

// GroupBy sets the GROUP BY column list (unquoted).
func (b *Builder) GroupBy(cols ...string) *Builder {
	b.groupBy = append(b.groupBy, cols...)
	return b
}

// Having appends AND-groups to the HAVING clause.
func (b *Builder) Having(groups ...Group) *Builder {
	b.havings = append(b.havings, groups...)
	return b
}

// OrderBy appends ORDER BY terms in the given order.
func (b *Builder) OrderBy(orders ...Order) *Builder {
	b.orderBy = append(b.orderBy, orders...)
	return b
}

// Limit sets the page size.
func (b *Builder) Limit(n int) *Builder {
	b.limit = &n
	return b
}

// Offset sets the number of rows skipped before the page.
func (b *Builder) Offset(n int) *Builder {
	b.offset = &n
	return b
}

// Build renders the SQL string. Clauses assemble in fixed order: statement
// head, JOIN, WHERE, GROUP BY, HAVING, ORDER BY, LIMIT. LIMIT renders as
// "LIMIT offset, limit" (offset first).
func (b *Builder) Build() string {
	var sb strings.Builder

	switch b.kind {
	case stmtSelect:
		sb.WriteString("SELECT ")
		sb.WriteString(b.selectColumns())
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
	case stmtInsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		for i, p := range b.sets {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.Col)
		}
		sb.WriteString(") VALUES (")
		for i := range b.sets {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
		}
		sb.WriteString(")")
	case stmtUpdate:
		sb.WriteString("UPDATE ")
		sb.WriteString(b.table)
		sb.WriteString(" SET ")
		for i, p := range b.sets {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.Col)
			sb.WriteString(" = ?")
		}
	case stmtDelete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(b.table)
	}

	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	if clause := renderGroups(b.wheres); clause != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(clause)
	}
	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}
	if clause := renderGroups(b.havings); clause != "" {
		sb.WriteString(" HAVING ")
		sb.WriteString(clause)
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, o := range b.orderBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(o.Col)
			sb.WriteString(" ")
			sb.WriteString(o.Dir)
		}
	}
	if b.limit != nil {
		offset := 0
		if b.offset != nil {
			offset = *b.offset
		}
		sb.WriteString(fmt.Sprintf(" LIMIT %d, %d", offset, *b.limit))
	}

	return sb.String()
}

// Values returns the bind parameters in the exact order their placeholders
// appear in Build: SET values first, then WHERE, then HAVING.
func (b *Builder) Values() []interface{} {
	var out []interface{}
	for _, p := range b.sets {
		out = append(out, p.Val)
	}
	out = append(out, groupValues(b.wheres)...)
	out = append(out, groupValues(b.havings)...)
	return out
}

func (b *Builder) selectColumns() string {
	if len(b.cols) == 0 {
		return "*"
	}
	quoted := make([]string, len(b.cols))
	for i, c := range b.cols {
		quoted[i] = quoteColumn(c)
	}
	return strings.Join(quoted, ", ")
}

// quoteColumn backtick-quotes an identifier, splitting on "." for qualified
// names. Anything containing "(" or whitespace (function calls, AS aliases)
// is a raw expression and passes through.
func quoteColumn(col string) string {
	if strings.Contains(col, "(") || strings.Contains(col, " ") {
		return col
	}
	parts := strings.Split(col, ".")
	for i, p := range parts {
		parts[i] = "`" + p + "`"
	}
	return strings.Join(parts, ".")
}

func renderGroups(groups []Group) string {
	var parts []string
	for _, g := range groups {
		switch len(g) {
		case 1:
			parts = append(parts, fmt.Sprintf("(%v)", g[0]))
		case 2:
			parts = append(parts, fmt.Sprintf("(%v = ?)", g[0]))
		case 3:
			parts = append(parts, fmt.Sprintf("(%v %v ?)", g[0], g[1]))
		}
	}
	return strings.Join(parts, " AND ")
}

func groupValues(groups []Group) []interface{} {
	var out []interface{}
	for _, g := range groups {
		switch len(g) {
		case 2:
			out = append(out, g[1])
		case 3:
			out = append(out, g[2])
		}
	}
	return out
}
