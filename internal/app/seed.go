package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"

	"nebula-admin/internal/repository"
)

// seedAdminUser creates the first administrator when the users table is
// empty. The generated password is logged once; there is no other way to
// sign in to a fresh installation.
func seedAdminUser(ctx context.Context, users *repository.UserRepo, log *slog.Logger) error {
	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	password, err := randomPassword()
	if err != nil {
		return err
	}
	if _, err := users.Create(ctx, "Admin", "admin@example.com", password, true); err != nil {
		return err
	}

	log.Warn("seeded initial admin user; change this password after first login",
		"email", "admin@example.com", "password", password)
	return nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
