package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filmdb.org/internal/auth"
	"filmdb.org/internal/store/mem"
)

type harness struct {
	store *mem.Store
	out   bytes.Buffer
	err   bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := mem.New(mem.Options{})
	require.NoError(t, err)
	return &harness{store: store}
}

func (h *harness) run(password string, args ...string) int {
	h.out.Reset()
	h.err.Reset()
	env := Env{
		Open: func(context.Context) (auth.CredentialStore, func() error, error) {
			return h.store, nil, nil
		},
		Out:      &h.out,
		Err:      &h.err,
		Password: StaticPassword(password),
	}
	return Execute(context.Background(), env, args)
}

func TestPagesCommand(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("", "pages", "--role", "viewer"))
	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "dashboard"))

	assert.Equal(t, 1, h.run("", "pages", "--role", "guest"))
	assert.Contains(t, h.err.String(), "unknown role")
}

func TestCanCommand(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("", "can", "--role", "manager", "update"))
	assert.Equal(t, "yes", strings.TrimSpace(h.out.String()))

	require.Equal(t, 0, h.run("", "can", "--role", "manager", "delete"))
	assert.Equal(t, "no", strings.TrimSpace(h.out.String()))

	assert.Equal(t, 1, h.run("", "can", "--role", "admin", "drop"))
}

func TestLoginCommand(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run(mem.DefaultAdminPassword, "login", "--user", mem.DefaultAdminUsername))
	assert.Contains(t, h.out.String(), "Logged in as System Administrator (admin)")
	assert.Contains(t, h.out.String(), "Audit & Logs")

	assert.Equal(t, 1, h.run("wrong", "login", "--user", mem.DefaultAdminUsername))
	assert.Equal(t, "Error: Invalid username or password.\n", h.err.String())

	assert.Equal(t, 1, h.run("x", "login"))
	assert.Contains(t, h.err.String(), "--user is required")
}

func TestUsersCommands(t *testing.T) {
	h := newHarness(t)
	t.Setenv(NewPasswordEnv, "viewer-secret")

	require.Equal(t, 0, h.run(mem.DefaultAdminPassword, "users", "create", "--user", "admin",
		"--username", "jdoe", "--full-name", "Jane Doe", "--email", "jdoe@example.com", "--role", "viewer"), h.err.String())
	assert.Contains(t, h.out.String(), "Created user jdoe (id 2, viewer)")

	require.Equal(t, 0, h.run(mem.DefaultAdminPassword, "users", "list", "--user", "admin"))
	assert.Contains(t, h.out.String(), "jdoe")
	assert.Contains(t, h.out.String(), "USERNAME")

	assert.Equal(t, 1, h.run("viewer-secret", "users", "list", "--user", "jdoe"))
	assert.Equal(t, "Error: You do not have permission to perform this action.\n", h.err.String())

	require.Equal(t, 0, h.run(mem.DefaultAdminPassword, "users", "deactivate", "2", "--user", "admin"))
	assert.Contains(t, h.out.String(), "User jdoe is now inactive")

	assert.Equal(t, 1, h.run("viewer-secret", "login", "--user", "jdoe"))
	assert.Contains(t, h.err.String(), "inactive")

	assert.Equal(t, 1, h.run(mem.DefaultAdminPassword, "users", "delete", "1", "--user", "admin"))
	assert.Equal(t, "Error: Cannot remove the last active administrator.\n", h.err.String())

	require.Equal(t, 0, h.run(mem.DefaultAdminPassword, "users", "delete", "2", "--user", "admin"))
	assert.Contains(t, h.out.String(), "Deleted user jdoe")

	require.Equal(t, 0, h.run(mem.DefaultAdminPassword, "users", "activity", "--user", "admin"))
	assert.Contains(t, h.out.String(), "admin")

	assert.Equal(t, 1, h.run(mem.DefaultAdminPassword, "users", "activate", "abc", "--user", "admin"))
	assert.Contains(t, h.err.String(), "positive integer")
}

func TestStoreUnavailable(t *testing.T) {
	var out, errOut bytes.Buffer
	env := Env{
		Open: func(context.Context) (auth.CredentialStore, func() error, error) {
			return nil, nil, errors.New("dial tcp: connection refused")
		},
		Out:      &out,
		Err:      &errOut,
		Password: StaticPassword("pw"),
	}
	assert.Equal(t, 1, Execute(context.Background(), env, []string{"login", "--user", "admin"}))
	assert.Equal(t, "Error: The database is unavailable. Please try again later.\n", errOut.String())
}
