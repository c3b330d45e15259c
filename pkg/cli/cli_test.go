package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "nebula-admin/internal/db"
	"nebula-admin/internal/middleware"
	"nebula-admin/internal/repository"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "nebula version")
}

func TestUserCreateAndList(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.sqlite")

	out, err := runCLI(t, "--db", dbPath, "user", "create",
		"--name", "Ops", "--email", "ops@example.com",
		"--password", "super-secret", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out, "ops@example.com")

	out, err = runCLI(t, "--db", dbPath, "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ops@example.com")
	assert.Contains(t, out, "admin")

	db, err := internaldb.Open(dbPath, "write", 0)
	require.NoError(t, err)
	defer db.Close()
	p, err := repository.NewUserRepo(db).Authenticate(context.Background(), "ops@example.com", "super-secret")
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)
}

func TestUserCreateRequiresNameAndEmail(t *testing.T) {
	_, err := runCLI(t, "--db", filepath.Join(t.TempDir(), "x.sqlite"), "user", "create",
		"--password", "super-secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name and --email are required")
}

func TestUserCreateRejectsShortPassword(t *testing.T) {
	_, err := runCLI(t, "--db", filepath.Join(t.TempDir(), "x.sqlite"), "user", "create",
		"--name", "A", "--email", "a@example.com", "--password", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")
}

func TestTokenMintRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret-that-is-long-enough")

	out, err := runCLI(t, "token", "--user-id", "7", "--name", "robot", "--admin", "--ttl", "1h")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	validator, err := middleware.NewHS256Validator("cli-test-secret-that-is-long-enough")
	require.NoError(t, err)
	p, err := validator.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "robot", p.Name)
	assert.True(t, p.IsAdmin)
}

func TestTokenRequiresUserID(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret-that-is-long-enough")

	_, err := runCLI(t, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user-id")
}

func TestTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := runCLI(t, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestModulesListShowsBuiltins(t *testing.T) {
	out, err := runCLI(t, "modules", "list")
	require.NoError(t, err)
	for _, name := range []string{"posts", "users", "audit-log", "request-log"} {
		assert.Contains(t, out, name)
	}
}
