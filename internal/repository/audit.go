// Package repository implements the persistence layer: hand-written SQL over
// database/sql against the admin SQLite database.
package repository

import (
	"context"
	"database/sql"
	"time"

	"nebula-admin/internal/domain"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record writes one audit row unless the most recent row for the same
// (table, id, field) already carries the same new value. Returns true when a
// row was written.
func (r *AuditRepo) Record(ctx context.Context, rec *domain.AuditRecord) (bool, error) {
	var last sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT new_value FROM audit_log
		 WHERE table_name = ? AND table_id = ? AND field = ?
		 ORDER BY id DESC LIMIT 1`,
		rec.TableName, rec.TableID, rec.Field,
	).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	if err == nil && valueMatches(last, rec.NewValue) {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, table_name, table_id, field, old_value, new_value, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.TableName, rec.TableID, rec.Field,
		nullable(rec.OldValue), nullable(rec.NewValue), rec.Message,
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListForRow returns the audit trail for one row, newest first.
func (r *AuditRepo) ListForRow(ctx context.Context, table, id string, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, table_name, table_id, field, old_value, new_value, message, created_at
		 FROM audit_log WHERE table_name = ? AND table_id = ?
		 ORDER BY id DESC LIMIT ?`,
		table, id, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditRows(rows)
}

// Purge deletes audit rows older than the retention window. Returns the
// number of rows removed.
func (r *AuditRepo) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM audit_log WHERE created_at < ?`,
		olderThan.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanAuditRows(rows *sql.Rows) ([]domain.AuditRecord, error) {
	var out []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		var oldV, newV sql.NullString
		var created string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.TableName, &rec.TableID,
			&rec.Field, &oldV, &newV, &rec.Message, &created); err != nil {
			return nil, err
		}
		rec.OldValue = nullableToValue(oldV)
		rec.NewValue = nullableToValue(newV)
		if ts, err := time.Parse("2006-01-02 15:04:05", created); err == nil {
			rec.CreatedAt = ts
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func valueMatches(stored sql.NullString, v domain.Value) bool {
	if !stored.Valid {
		return v.IsNull()
	}
	return !v.IsNull() && stored.String == v.Display()
}

func nullable(v domain.Value) interface{} {
	if v.IsNull() {
		return nil
	}
	return v.Display()
}

func nullableToValue(v sql.NullString) domain.Value {
	if !v.Valid {
		return domain.Null()
	}
	return domain.String(v.String)
}
