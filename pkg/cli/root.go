// Package cli implements the nebula management CLI: user administration,
// module inspection, and API token minting.
package cli

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	internaldb "nebula-admin/internal/db"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:           "nebula",
		Short:         "Nebula admin management CLI",
		Long:          "Command-line interface for managing a Nebula admin installation.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbPath, "db", "", "path to the SQLite database (default $DB_PATH, then nebula.sqlite)")
	pf.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.AddCommand(
		newUserCmd(&dbPath),
		newModulesCmd(),
		newTokenCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func resolveDBPath(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		return v
	}
	return "nebula.sqlite"
}

// openDB opens the write pool and applies pending migrations so CLI commands
// work against a fresh database file.
func openDB(path string) (*sql.DB, error) {
	db, err := internaldb.Open(path, "write", 0)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := internaldb.RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database %s: %w", path, err)
	}
	return db, nil
}
