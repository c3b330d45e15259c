package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaRepo answers questions about the live database schema. The module
// engine uses it to intersect submitted form fields against real columns
// before building INSERT/UPDATE statements.
type SchemaRepo struct {
	db *sql.DB
}

func NewSchemaRepo(db *sql.DB) *SchemaRepo {
	return &SchemaRepo{db: db}
}

// ColumnInfo is one column of a table as reported by the database.
type ColumnInfo struct {
	Name string
	Type string
}

// TableColumns returns the columns of table via PRAGMA table_info.
func (r *SchemaRepo) TableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ColumnInfo
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		out = append(out, ColumnInfo{Name: name, Type: typ})
	}
	return out, rows.Err()
}

// ColumnSet returns the table's column names as a set.
func (r *SchemaRepo) ColumnSet(ctx context.Context, table string) (map[string]bool, error) {
	cols, err := r.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[c.Name] = true
	}
	return set, nil
}
