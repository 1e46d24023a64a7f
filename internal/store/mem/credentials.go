// Package mem is an in-process credential store that follows the same
// contract as the database functions. It backs development mode and tests.
package mem

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"filmdb.org/internal/auth"
)

const (
	// DefaultAdminUsername and DefaultAdminPassword are the documented
	// bootstrap credentials.
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "Admin@123"

	defaultMaxFailedAttempts = 5
)

// Options tunes the lockout policy. Both values are external parameters of
// the store and are never re-validated by the auth core.
type Options struct {
	// MaxFailedAttempts consecutive failures lock the account. Zero means 5.
	MaxFailedAttempts int
	// LockoutDuration unlocks the account automatically once elapsed.
	// Zero keeps it locked until an administrator reactivates it.
	LockoutDuration time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// SkipSeed leaves the store empty instead of creating the default admin.
	SkipSeed bool
}

type account struct {
	user     auth.User
	hash     string
	lockedAt time.Time
}

type loginRecord struct {
	userID  int64
	success bool
	origin  string
	at      time.Time
}

// Store implements auth.CredentialStore.
type Store struct {
	mu       sync.Mutex
	users    map[int64]*account
	nextID   int64
	logins   []loginRecord
	maxFails int
	lockFor  time.Duration
	now      func() time.Time
}

var _ auth.CredentialStore = (*Store)(nil)

// New returns a store seeded with the default administrator unless
// opts.SkipSeed is set.
func New(opts Options) (*Store, error) {
	s := &Store{
		users:    make(map[int64]*account),
		maxFails: opts.MaxFailedAttempts,
		lockFor:  opts.LockoutDuration,
		now:      opts.Now,
	}
	if s.maxFails <= 0 {
		s.maxFails = defaultMaxFailedAttempts
	}
	if s.now == nil {
		s.now = time.Now
	}
	if !opts.SkipSeed {
		if _, err := s.insert(auth.NewUser{
			Username: DefaultAdminUsername,
			Password: DefaultAdminPassword,
			FullName: "System Administrator",
			Email:    "admin@filmdb.local",
			Role:     auth.RoleAdmin,
		}); err != nil {
			return nil, fmt.Errorf("seed admin: %w", err)
		}
	}
	return s, nil
}

// Seed inserts nu without an acting administrator. It is meant for
// bootstrapping and tests.
func (s *Store) Seed(nu auth.NewUser) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(nu)
}

func (s *Store) insert(nu auth.NewUser) (auth.User, error) {
	if !nu.Role.Valid() {
		return auth.User{}, fmt.Errorf("%w: unknown role %q", auth.ErrInvalidInput, nu.Role)
	}
	for _, a := range s.users {
		if strings.EqualFold(a.user.Username, nu.Username) || strings.EqualFold(a.user.Email, nu.Email) {
			return auth.User{}, fmt.Errorf("%w: username or email already registered", auth.ErrDuplicateIdentity)
		}
	}
	hash, err := auth.HashPassword(nu.Password)
	if err != nil {
		return auth.User{}, fmt.Errorf("%w: %v", auth.ErrInvalidInput, err)
	}
	s.nextID++
	a := &account{
		user: auth.User{
			ID:        s.nextID,
			Username:  nu.Username,
			FullName:  nu.FullName,
			Email:     nu.Email,
			Role:      nu.Role,
			Active:    true,
			CreatedAt: s.now().UTC(),
		},
		hash: hash,
	}
	s.users[a.user.ID] = a
	return a.user, nil
}

func (s *Store) byUsername(username string) *account {
	for _, a := range s.users {
		if a.user.Username == username {
			return a
		}
	}
	return nil
}

// CheckCredentials follows the status code contract of the authentication
// function. Unknown users and wrong passwords are indistinguishable.
func (s *Store) CheckCredentials(ctx context.Context, username, password string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.byUsername(username)
	if a == nil {
		return auth.CodeInvalidCredentials, nil
	}
	if !a.user.Active {
		return auth.CodeAccountInactive, nil
	}
	now := s.now()
	if a.user.Locked {
		if s.lockFor <= 0 || now.Sub(a.lockedAt) < s.lockFor {
			return auth.CodeAccountLocked, nil
		}
		a.user.Locked = false
		a.user.FailedAttempts = 0
	}
	if !auth.PasswordMatches(a.hash, password) {
		a.user.FailedAttempts++
		if a.user.FailedAttempts >= s.maxFails {
			a.user.Locked = true
			a.lockedAt = now
		}
		s.logins = append(s.logins, loginRecord{userID: a.user.ID, success: false, at: now.UTC()})
		return auth.CodeInvalidCredentials, nil
	}
	a.user.FailedAttempts = 0
	return a.user.ID, nil
}

// UserSummary returns the identity row for id.
func (s *Store) UserSummary(ctx context.Context, id int64) (auth.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.users[id]
	if !ok {
		return auth.UserSummary{}, auth.ErrNotFound
	}
	return a.user.Summary(), nil
}

// RecordLogin appends a login record and stamps the last login time.
func (s *Store) RecordLogin(ctx context.Context, id int64, success bool, origin string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	now := s.now().UTC()
	if success {
		a.user.LastLogin = &now
	}
	s.logins = append(s.logins, loginRecord{userID: id, success: success, origin: origin, at: now})
	return nil
}

// requireAdmin must be called with s.mu held.
func (s *Store) requireAdmin(actorID int64) error {
	a, ok := s.users[actorID]
	if !ok || !a.user.Active || a.user.Role != auth.RoleAdmin {
		return fmt.Errorf("%w: user %d is not an active administrator", auth.ErrPermissionDenied, actorID)
	}
	return nil
}

// activeAdmins must be called with s.mu held.
func (s *Store) activeAdmins() int {
	n := 0
	for _, a := range s.users {
		if a.user.Active && a.user.Role == auth.RoleAdmin {
			n++
		}
	}
	return n
}

// CreateUser adds an account on behalf of actorID.
func (s *Store) CreateUser(ctx context.Context, actorID int64, nu auth.NewUser) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAdmin(actorID); err != nil {
		return auth.User{}, err
	}
	return s.insert(nu)
}

// ListUsers returns every account ordered by id.
func (s *Store) ListUsers(ctx context.Context, actorID int64) ([]auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	out := make([]auth.User, 0, len(s.users))
	for _, a := range s.users {
		out = append(out, a.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetUserActive toggles the active flag. Reactivating also clears a lockout.
func (s *Store) SetUserActive(ctx context.Context, actorID, targetID int64, active bool) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAdmin(actorID); err != nil {
		return auth.User{}, err
	}
	a, ok := s.users[targetID]
	if !ok {
		return auth.User{}, fmt.Errorf("%w: user %d", auth.ErrNotFound, targetID)
	}
	if !active && a.user.Active && a.user.Role == auth.RoleAdmin && s.activeAdmins() == 1 {
		return auth.User{}, auth.ErrLastAdminProtected
	}
	a.user.Active = active
	if active {
		a.user.Locked = false
		a.user.FailedAttempts = 0
		a.lockedAt = time.Time{}
	}
	return a.user, nil
}

// DeleteUser removes targetID and returns the removed row.
func (s *Store) DeleteUser(ctx context.Context, actorID, targetID int64) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireAdmin(actorID); err != nil {
		return auth.User{}, err
	}
	a, ok := s.users[targetID]
	if !ok {
		return auth.User{}, fmt.Errorf("%w: user %d", auth.ErrNotFound, targetID)
	}
	if a.user.Active && a.user.Role == auth.RoleAdmin && s.activeAdmins() == 1 {
		return auth.User{}, auth.ErrLastAdminProtected
	}
	delete(s.users, targetID)
	return a.user, nil
}

// UserActivity summarises the login records per user, most recent first.
func (s *Store) UserActivity(ctx context.Context) ([]auth.UserActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser := make(map[int64]*auth.UserActivity, len(s.users))
	for id, a := range s.users {
		byUser[id] = &auth.UserActivity{UserID: id, Username: a.user.Username, FullName: a.user.FullName, Role: a.user.Role}
	}
	for _, rec := range s.logins {
		row, ok := byUser[rec.userID]
		if !ok {
			continue
		}
		row.TotalActivity++
		if rec.success {
			row.SuccessfulLogins++
		}
		if row.LastActivity == nil || rec.at.After(*row.LastActivity) {
			at := rec.at
			row.LastActivity = &at
		}
	}
	out := make([]auth.UserActivity, 0, len(byUser))
	for _, row := range byUser {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].LastActivity, out[j].LastActivity
		switch {
		case li == nil && lj == nil:
			return out[i].UserID < out[j].UserID
		case li == nil:
			return false
		case lj == nil:
			return true
		case li.Equal(*lj):
			return out[i].UserID < out[j].UserID
		default:
			return li.After(*lj)
		}
	})
	return out, nil
}

// Ping always succeeds unless ctx is done.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
