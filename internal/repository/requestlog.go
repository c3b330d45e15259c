package repository

import (
	"context"
	"database/sql"
)

type RequestLogRepo struct {
	db *sql.DB
}

func NewRequestLogRepo(db *sql.DB) *RequestLogRepo {
	return &RequestLogRepo{db: db}
}

// Record appends one request-log row (user, method, URI).
func (r *RequestLogRepo) Record(ctx context.Context, userID int64, method, uri string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO request_log (user_id, method, uri) VALUES (?, ?, ?)`,
		userID, method, uri,
	)
	return err
}
