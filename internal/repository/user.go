package repository

import (
	"context"
	"database/sql"

	"golang.org/x/crypto/bcrypt"

	"nebula-admin/internal/domain"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a user with a bcrypt-hashed password.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, isAdmin bool) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, is_admin) VALUES (?, ?, ?, ?)`,
		name, email, string(hash), boolInt(isAdmin),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Authenticate verifies the email/password pair and returns the matching
// principal. A missing user and a wrong password both return AccessDenied so
// callers cannot distinguish the two.
func (r *UserRepo) Authenticate(ctx context.Context, email, password string) (domain.Principal, error) {
	u, err := r.byEmail(ctx, email)
	if err != nil {
		return domain.Principal{}, domain.ErrAccessDenied("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.Principal{}, domain.ErrAccessDenied("invalid email or password")
	}
	return domain.Principal{ID: u.ID, Name: u.Name, IsAdmin: u.IsAdmin}, nil
}

// ByID looks up a principal by primary key.
func (r *UserRepo) ByID(ctx context.Context, id int64) (domain.Principal, error) {
	var u User
	var admin int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_admin FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &admin)
	if err == sql.ErrNoRows {
		return domain.Principal{}, domain.ErrNotFound("user %d not found", id)
	}
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{ID: u.ID, Name: u.Name, IsAdmin: admin == 1}, nil
}

// Count returns the number of users. Startup seeding uses it to detect a
// fresh database.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

func (r *UserRepo) byEmail(ctx context.Context, email string) (User, error) {
	var u User
	var admin int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, is_admin FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &admin)
	if err != nil {
		return User{}, err
	}
	u.IsAdmin = admin == 1
	return u, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
