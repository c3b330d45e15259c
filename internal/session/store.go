// Package session implements server-side sessions backed by the admin
// database: an opaque cookie token maps to one row holding a JSON key/value
// bag. Concurrent requests for the same session are last-write-wins on the
// whole bag.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an idle session stays valid.
const DefaultTTL = 24 * time.Hour

type Store struct {
	db  *sql.DB
	ttl time.Duration
}

func NewStore(db *sql.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{db: db, ttl: ttl}
}

// Create starts a fresh session and persists it.
func (s *Store) Create(ctx context.Context) (*Session, error) {
	sess := &Session{
		Token: uuid.NewString(),
		data:  map[string]json.RawMessage{},
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, data, expires_at) VALUES (?, ?, '{}', ?)`,
		sess.Token, nil, s.deadline(),
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Load fetches the session for token. Expired or unknown tokens return nil
// with no error so callers can fall back to a fresh session.
func (s *Store) Load(ctx context.Context, token string) (*Session, error) {
	var (
		userID sql.NullInt64
		raw    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, data FROM sessions WHERE token = ? AND expires_at > ?`,
		token, now(),
	).Scan(&userID, &raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	data := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		data = map[string]json.RawMessage{}
	}
	sess := &Session{Token: token, data: data}
	if userID.Valid {
		sess.UserID = userID.Int64
	}
	return sess, nil
}

// Save persists the session bag and slides the expiry window.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess.data)
	if err != nil {
		return err
	}
	var userID interface{}
	if sess.UserID != 0 {
		userID = sess.UserID
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET user_id = ?, data = ?, expires_at = ? WHERE token = ?`,
		userID, string(raw), s.deadline(), sess.Token,
	)
	return err
}

// Destroy removes the session row (logout).
func (s *Store) Destroy(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// PurgeExpired deletes sessions past their expiry. Run it periodically.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) deadline() string {
	return time.Now().Add(s.ttl).UTC().Format("2006-01-02 15:04:05")
}

func now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}
