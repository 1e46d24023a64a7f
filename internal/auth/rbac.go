package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"filmdb.org/internal/obs"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// UserAdmin exposes the admin-only account procedures. Every call checks
// the acting session before the store is touched; the store enforces the
// same rules again.
type UserAdmin struct {
	store    CredentialStore
	validate *validator.Validate
	audit    AuditFunc
	sessions *Sessions
}

// NewUserAdmin returns a UserAdmin backed by store.
func NewUserAdmin(store CredentialStore, opts ...Option) (*UserAdmin, error) {
	if store == nil {
		return nil, errors.New("auth: credential store is required")
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("auth: register validation: %w", err)
	}
	return &UserAdmin{store: store, validate: v, audit: o.audit, sessions: o.sessions}, nil
}

// CreateUser adds an account on behalf of actor.
func (a *UserAdmin) CreateUser(ctx context.Context, actor Session, nu NewUser) (User, error) {
	if err := RequireAdmin(actor); err != nil {
		return User{}, a.done("create_user", err)
	}
	nu.Username = strings.TrimSpace(nu.Username)
	nu.FullName = strings.TrimSpace(nu.FullName)
	nu.Email = strings.ToLower(strings.TrimSpace(nu.Email))
	nu.Role = Role(strings.ToLower(strings.TrimSpace(string(nu.Role))))
	if err := a.validate.Struct(nu); err != nil {
		return User{}, a.done("create_user", fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err)))
	}
	u, err := a.store.CreateUser(ctx, actor.UserID, nu)
	if err != nil {
		return User{}, a.done("create_user", storeFailure(err))
	}
	_ = a.audit(ctx, "users.created", map[string]any{"user_id": u.ID, "username": u.Username, "role": u.Role.String()})
	return u, a.done("create_user", nil)
}

// ListUsers returns every account.
func (a *UserAdmin) ListUsers(ctx context.Context, actor Session) ([]User, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, a.done("list_users", err)
	}
	users, err := a.store.ListUsers(ctx, actor.UserID)
	if err != nil {
		return nil, a.done("list_users", storeFailure(err))
	}
	return users, a.done("list_users", nil)
}

// SetUserActive activates or deactivates targetID.
func (a *UserAdmin) SetUserActive(ctx context.Context, actor Session, targetID int64, active bool) (User, error) {
	if err := RequireAdmin(actor); err != nil {
		return User{}, a.done("set_user_active", err)
	}
	if targetID <= 0 {
		return User{}, a.done("set_user_active", fmt.Errorf("%w: user_id is required", ErrInvalidInput))
	}
	u, err := a.store.SetUserActive(ctx, actor.UserID, targetID, active)
	if err != nil {
		return User{}, a.done("set_user_active", storeFailure(err))
	}
	fields := map[string]any{"user_id": u.ID, "username": u.Username, "active": active}
	if !active {
		fields["sessions_closed"] = a.closeSessions(targetID)
	}
	_ = a.audit(ctx, "users.status_changed", fields)
	return u, a.done("set_user_active", nil)
}

// DeleteUser removes targetID and returns the removed account.
func (a *UserAdmin) DeleteUser(ctx context.Context, actor Session, targetID int64) (User, error) {
	if err := RequireAdmin(actor); err != nil {
		return User{}, a.done("delete_user", err)
	}
	if targetID <= 0 {
		return User{}, a.done("delete_user", fmt.Errorf("%w: user_id is required", ErrInvalidInput))
	}
	u, err := a.store.DeleteUser(ctx, actor.UserID, targetID)
	if err != nil {
		return User{}, a.done("delete_user", storeFailure(err))
	}
	_ = a.audit(ctx, "users.deleted", map[string]any{
		"user_id":         u.ID,
		"username":        u.Username,
		"sessions_closed": a.closeSessions(targetID),
	})
	return u, a.done("delete_user", nil)
}

// Activity returns the per-user activity summary.
func (a *UserAdmin) Activity(ctx context.Context, actor Session) ([]UserActivity, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, a.done("user_activity", err)
	}
	rows, err := a.store.UserActivity(ctx)
	if err != nil {
		return nil, a.done("user_activity", storeFailure(err))
	}
	return rows, a.done("user_activity", nil)
}

func (a *UserAdmin) closeSessions(userID int64) int {
	if a.sessions == nil {
		return 0
	}
	return a.sessions.CloseUser(userID)
}

func (a *UserAdmin) done(action string, err error) error {
	outcome := "ok"
	if err != nil {
		outcome = Kind(err)
		obs.Logger().Warn().Str("action", action).Str("kind", outcome).Err(err).Msg("user admin call rejected")
	}
	obs.ObserveAdminAction(action, outcome)
	return err
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
