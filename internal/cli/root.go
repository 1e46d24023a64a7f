// Package cli implements filmctl, the operator command line. One invocation
// is one client session: it logs in, acts, and logs out.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"filmdb.org/internal/audit"
	"filmdb.org/internal/auth"
)

// StoreFactory opens the credential store. The returned closer releases it.
type StoreFactory func(ctx context.Context) (auth.CredentialStore, func() error, error)

// Env carries everything a command needs from the outside world.
type Env struct {
	Open     StoreFactory
	Out      io.Writer
	Err      io.Writer
	Password PasswordSource
	Origin   string
}

type app struct {
	env      Env
	username string
}

// NewRootCommand builds the filmctl command tree.
func NewRootCommand(env Env) *cobra.Command {
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Err == nil {
		env.Err = os.Stderr
	}
	if env.Password == nil {
		env.Password = TerminalPassword
	}
	a := &app{env: env}

	root := &cobra.Command{
		Use:   "filmctl",
		Short: "Operate the film production dashboard",
		Long: `filmctl talks to the film database with the same rules as the dashboard.

The password is read from FILMCTL_PASSWORD or prompted without echo.

Examples:
  filmctl pages --role manager
  filmctl can --role viewer delete
  filmctl login --user admin
  filmctl users list --user admin`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.Out)
	root.SetErr(env.Err)
	root.PersistentFlags().StringVarP(&a.username, "user", "u", "", "Username to log in as")

	root.AddCommand(a.pagesCommand(), a.canCommand(), a.loginCommand(), a.usersCommand())
	return root
}

// Execute runs filmctl with args and returns the process exit code. Errors
// are printed with their user-facing message.
func Execute(ctx context.Context, env Env, args []string) int {
	root := NewRootCommand(env)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		out := root.ErrOrStderr()
		switch auth.Kind(err) {
		case "internal":
			fmt.Fprintln(out, "Error:", err)
		case "invalid_input", "not_found":
			fmt.Fprintf(out, "Error: %s (%v)\n", auth.Message(err), err)
		default:
			fmt.Fprintln(out, "Error:", auth.Message(err))
		}
		return 1
	}
	return 0
}

func (a *app) pagesCommand() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List the pages a role sees, in menu order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := auth.ParseRole(role)
			if err != nil {
				return err
			}
			for _, p := range auth.VisiblePages(r) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", p.Slug(), p.Title())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role: admin, manager or viewer")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func (a *app) canCommand() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "can <operation>",
		Short: "Report whether a role may perform an operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := auth.ParseRole(role)
			if err != nil {
				return err
			}
			op, err := auth.ParseOperation(args[0])
			if err != nil {
				return err
			}
			answer := "no"
			if auth.Can(r, op) {
				answer = "yes"
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role: admin, manager or viewer")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func (a *app) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check credentials and show the resulting menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, s auth.Session, _ *auth.UserAdmin) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Logged in as %s (%s)\n", displayName(s), s.Role)
				for _, p := range auth.VisiblePages(s.Role) {
					fmt.Fprintf(out, "  %s\n", p.Title())
				}
				return nil
			})
		},
	}
}

// withSession logs in, runs fn and logs out again.
func (a *app) withSession(ctx context.Context, fn func(context.Context, auth.Session, *auth.UserAdmin) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	username := strings.TrimSpace(a.username)
	if username == "" {
		return errors.New("--user is required")
	}
	if a.env.Open == nil {
		return fmt.Errorf("%w: no credential store configured", auth.ErrStoreUnavailable)
	}
	password, err := a.env.Password("Password for " + username + ": ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	store, closeStore, err := a.env.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}
	if closeStore != nil {
		defer closeStore()
	}

	opts := []auth.Option{auth.WithAudit(audit.LogEvent)}
	if a.env.Origin != "" {
		opts = append(opts, auth.WithOrigin(a.env.Origin))
	}
	authn, err := auth.NewAuthenticator(store, opts...)
	if err != nil {
		return err
	}
	admin, err := auth.NewUserAdmin(store, auth.WithAudit(audit.LogEvent))
	if err != nil {
		return err
	}

	reg := auth.NewSessions(time.Hour)
	s, err := authn.Login(ctx, reg, username, password)
	if err != nil {
		return err
	}
	defer authn.Logout(ctx, reg, s)
	return fn(ctx, s, admin)
}

func displayName(s auth.Session) string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Username
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
