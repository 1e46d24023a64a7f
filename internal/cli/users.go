package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"filmdb.org/internal/auth"
)

// NewPasswordEnv supplies the password of an account created with
// "users create".
const NewPasswordEnv = "FILMCTL_NEW_PASSWORD"

func (a *app) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer dashboard accounts (admin only)",
		Long: `Administer dashboard accounts.

Every subcommand logs in with --user first and requires the admin role.

Examples:
  filmctl users list --user admin
  filmctl users create --user admin --username jdoe --full-name "Jane Doe" --email jdoe@example.com --role viewer
  filmctl users deactivate 7 --user admin`,
	}
	cmd.AddCommand(
		a.usersListCommand(),
		a.usersCreateCommand(),
		a.usersStatusCommand("activate", true),
		a.usersStatusCommand("deactivate", false),
		a.usersDeleteCommand(),
		a.usersActivityCommand(),
	)
	return cmd
}

func (a *app) usersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, s auth.Session, admin *auth.UserAdmin) error {
				users, err := admin.ListUsers(ctx, s)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tUSERNAME\tFULL NAME\tROLE\tACTIVE\tLOCKED\tLAST LOGIN")
				for _, u := range users {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%t\t%s\n",
						u.ID, u.Username, u.FullName, u.Role, u.Active, u.Locked, formatTime(u.LastLogin))
				}
				return tw.Flush()
			})
		},
	}
}

func (a *app) usersCreateCommand() *cobra.Command {
	var nu auth.NewUser
	var role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: `Create an account. The new password is read from FILMCTL_NEW_PASSWORD
or prompted without echo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			nu.Role = auth.Role(role)
			return a.withSession(cmd.Context(), func(ctx context.Context, s auth.Session, admin *auth.UserAdmin) error {
				pw, ok := os.LookupEnv(NewPasswordEnv)
				if !ok {
					var err error
					if pw, err = a.env.Password("Password for new user " + nu.Username + ": "); err != nil {
						return fmt.Errorf("read password: %w", err)
					}
				}
				nu.Password = pw
				u, err := admin.CreateUser(ctx, s, nu)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d, %s)\n", u.Username, u.ID, u.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&nu.Username, "username", "", "Username of the new account")
	cmd.Flags().StringVar(&nu.FullName, "full-name", "", "Full name")
	cmd.Flags().StringVar(&nu.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleViewer), "Role: admin, manager or viewer")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (a *app) usersStatusCommand(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: fmt.Sprintf("Mark an account %s", map[bool]string{true: "active", false: "inactive"}[active]),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd.Context(), func(ctx context.Context, s auth.Session, admin *auth.UserAdmin) error {
				u, err := admin.SetUserActive(ctx, s, id, active)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s is now %s\n", u.Username, map[bool]string{true: "active", false: "inactive"}[u.Active])
				return nil
			})
		},
	}
}

func (a *app) usersDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd.Context(), func(ctx context.Context, s auth.Session, admin *auth.UserAdmin) error {
				u, err := admin.DeleteUser(ctx, s, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", u.Username)
				return nil
			})
		},
	}
}

func (a *app) usersActivityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Show login activity per account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, s auth.Session, admin *auth.UserAdmin) error {
				rows, err := admin.Activity(ctx, s)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "USERNAME\tROLE\tLOGINS\tTOTAL\tLAST ACTIVITY")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.Username, r.Role, r.SuccessfulLogins, r.TotalActivity, formatTime(r.LastActivity))
				}
				return tw.Flush()
			})
		},
	}
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: user id must be a positive integer", auth.ErrInvalidInput)
	}
	return id, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
