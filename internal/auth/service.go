package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"filmdb.org/internal/obs"
)

// DefaultOrigin marks login audit records written by the dashboard.
const DefaultOrigin = "Streamlit Dashboard"

// AuditFunc records a named audit event. It is satisfied by audit.LogEvent.
type AuditFunc func(ctx context.Context, event string, fields map[string]any) error

func noAudit(context.Context, string, map[string]any) error { return nil }

// Authenticator verifies credentials against the store and produces the
// identity that a session is established from.
type Authenticator struct {
	store  CredentialStore
	origin string
	now    func() time.Time
	audit  AuditFunc
}

// Option configures an Authenticator or a UserAdmin.
type Option func(*options) error

type options struct {
	origin   string
	now      func() time.Time
	audit    AuditFunc
	sessions *Sessions
}

// WithOrigin sets the origin marker written with each successful login.
func WithOrigin(origin string) Option {
	return func(o *options) error {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			return errors.New("auth: origin must not be empty")
		}
		o.origin = origin
		return nil
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("auth: clock must not be nil")
		}
		o.now = now
		return nil
	}
}

// WithAudit routes audit events to fn.
func WithAudit(fn AuditFunc) Option {
	return func(o *options) error {
		if fn != nil {
			o.audit = fn
		}
		return nil
	}
}

// WithSessions lets a UserAdmin close the open sessions of users it
// deactivates or deletes.
func WithSessions(reg *Sessions) Option {
	return func(o *options) error {
		o.sessions = reg
		return nil
	}
}

func buildOptions(opts []Option) (options, error) {
	o := options{origin: DefaultOrigin, now: time.Now, audit: noAudit}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return options{}, err
		}
	}
	return o, nil
}

// NewAuthenticator returns an Authenticator backed by store.
func NewAuthenticator(store CredentialStore, opts ...Option) (*Authenticator, error) {
	if store == nil {
		return nil, errors.New("auth: credential store is required")
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Authenticator{store: store, origin: o.origin, now: o.now, audit: o.audit}, nil
}

// Authenticate checks username and password. On success the login has
// already been recorded by the store when the summary is returned, so the
// caller may mark its session authenticated immediately.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (UserSummary, error) {
	username = strings.TrimSpace(username)
	summary, err := a.authenticate(ctx, username, password)
	a.report(ctx, username, summary, err)
	return summary, err
}

func (a *Authenticator) authenticate(ctx context.Context, username, password string) (UserSummary, error) {
	if username == "" || password == "" {
		return UserSummary{}, ErrInvalidCredentials
	}

	code, err := a.store.CheckCredentials(ctx, username, password)
	if err != nil {
		return UserSummary{}, storeFailure(err)
	}
	switch {
	case code > 0:
	case code == CodeInvalidCredentials:
		return UserSummary{}, ErrInvalidCredentials
	case code == CodeAccountLocked:
		return UserSummary{}, ErrAccountLocked
	case code == CodeAccountInactive:
		return UserSummary{}, ErrAccountInactive
	default:
		return UserSummary{}, fmt.Errorf("%w: unexpected status code %d", ErrInconsistent, code)
	}

	summary, err := a.store.UserSummary(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return UserSummary{}, fmt.Errorf("%w: user %d not found after successful check", ErrInconsistent, code)
		}
		return UserSummary{}, storeFailure(err)
	}
	if summary.ID != code {
		return UserSummary{}, fmt.Errorf("%w: asked for user %d, got %d", ErrInconsistent, code, summary.ID)
	}
	if !summary.Role.Valid() {
		return UserSummary{}, fmt.Errorf("%w: user %d has invalid role %q", ErrInconsistent, code, summary.Role)
	}

	if err := a.store.RecordLogin(ctx, summary.ID, true, a.origin); err != nil {
		return UserSummary{}, fmt.Errorf("record login: %w", storeFailure(err))
	}
	return summary, nil
}

// storeFailure passes through classified errors and treats everything else
// as the store being unreachable.
func storeFailure(err error) error {
	if Kind(err) != "internal" {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func (a *Authenticator) report(ctx context.Context, username string, summary UserSummary, err error) {
	log := obs.Logger()
	if err != nil {
		kind := Kind(err)
		obs.ObserveLogin(kind)
		ev := log.Warn()
		if Blocking(err) || errors.Is(err, ErrInconsistent) {
			ev = log.Error().Err(err)
		}
		ev.Str("username", username).Str("kind", kind).Msg("login failed")
		_ = a.audit(ctx, "auth.login.failed", map[string]any{"username": username, "kind": kind})
		return
	}
	obs.ObserveLogin("ok")
	log.Info().Int64("user_id", summary.ID).Str("username", summary.Username).Str("role", summary.Role.String()).Msg("login succeeded")
	_ = a.audit(ctx, "auth.login.succeeded", map[string]any{
		"user_id":  summary.ID,
		"username": summary.Username,
		"role":     summary.Role.String(),
		"origin":   a.origin,
	})
}

// Login authenticates and opens a session in reg.
func (a *Authenticator) Login(ctx context.Context, reg *Sessions, username, password string) (Session, error) {
	summary, err := a.Authenticate(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	return reg.Open(summary), nil
}

// Logout closes s in reg. Closing an unknown session is not an error.
func (a *Authenticator) Logout(ctx context.Context, reg *Sessions, s Session) Session {
	if s.ID != "" && reg.Close(s.ID) {
		_ = a.audit(ctx, "auth.logout", map[string]any{"user_id": s.UserID, "username": s.Username})
	}
	return s.Clear()
}

// Ping reports whether the store is reachable.
func (a *Authenticator) Ping(ctx context.Context) error {
	if err := a.store.Ping(ctx); err != nil {
		return storeFailure(err)
	}
	return nil
}
