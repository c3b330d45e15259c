package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nebula-admin/internal/repository"
)

func newUserCmd(dbPath *string) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin users",
	}
	userCmd.AddCommand(newUserCreateCmd(dbPath), newUserListCmd(dbPath))
	return userCmd
}

func newUserCreateCmd(dbPath *string) *cobra.Command {
	var (
		name     string
		email    string
		password string
		isAdmin  bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" || email == "" {
				return fmt.Errorf("--name and --email are required")
			}
			if password == "" {
				var err error
				password, err = promptPassword()
				if err != nil {
					return err
				}
			}
			if len(password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}

			db, err := openDB(resolveDBPath(*dbPath))
			if err != nil {
				return err
			}
			defer db.Close()

			users := repository.NewUserRepo(db)
			id, err := users.Create(cmd.Context(), name, email, password, isAdmin)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", id, email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "grant administrator rights")
	return cmd
}

func newUserListCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(resolveDBPath(*dbPath))
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := db.QueryContext(cmd.Context(),
				`SELECT id, name, email, is_admin FROM users ORDER BY id`)
			if err != nil {
				return err
			}
			defer rows.Close()

			out := cmd.OutOrStdout()
			for rows.Next() {
				var (
					id          int64
					name, email string
					admin       int
				)
				if err := rows.Scan(&id, &name, &email, &admin); err != nil {
					return err
				}
				role := "user"
				if admin == 1 {
					role = "admin"
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", id, name, email, role)
			}
			return rows.Err()
		},
	}
}

// promptPassword reads the password twice from the terminal without echo.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; pass --password")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}

	fmt.Fprint(os.Stderr, "Confirm: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
