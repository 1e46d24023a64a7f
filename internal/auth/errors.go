package auth

import "errors"

// Failure kinds surfaced to callers. Each maps to exactly one message.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountLocked      = errors.New("auth: account locked")
	ErrAccountInactive    = errors.New("auth: account inactive")
	ErrPermissionDenied   = errors.New("auth: permission denied")
	ErrDuplicateIdentity  = errors.New("auth: duplicate identity")
	ErrLastAdminProtected = errors.New("auth: last admin protected")
	ErrStoreUnavailable   = errors.New("auth: store unavailable")
	ErrInconsistent       = errors.New("auth: inconsistent store response")
)

var (
	ErrInvalidInput     = errors.New("auth: invalid input")
	ErrNotFound         = errors.New("auth: not found")
	ErrNotAuthenticated = errors.New("auth: not authenticated")
	ErrInvalidToken     = errors.New("auth: invalid token")
)

type errorKind struct {
	err     error
	kind    string
	message string
}

// Order matters only when an error wraps more than one sentinel.
var kinds = []errorKind{
	{ErrStoreUnavailable, "store_unavailable", "The database is unavailable. Please try again later."},
	{ErrInvalidCredentials, "invalid_credentials", "Invalid username or password."},
	{ErrAccountLocked, "account_locked", "Account is locked due to too many failed login attempts. Contact an administrator."},
	{ErrAccountInactive, "account_inactive", "Account is inactive. Contact an administrator."},
	{ErrPermissionDenied, "permission_denied", "You do not have permission to perform this action."},
	{ErrDuplicateIdentity, "duplicate_identity", "Username or email already exists."},
	{ErrLastAdminProtected, "last_admin_protected", "Cannot remove the last active administrator."},
	{ErrInconsistent, "inconsistent", "Login failed: the database returned an unexpected response."},
	{ErrNotAuthenticated, "not_authenticated", "Please log in to continue."},
	{ErrInvalidToken, "invalid_token", "Your session is no longer valid. Please log in again."},
	{ErrInvalidInput, "invalid_input", "The request is invalid."},
	{ErrNotFound, "not_found", "The requested item was not found."},
}

// Rejection is a business rule refused by the core or by the store. Its
// Reason is shown to the user as is; Kind reports it as invalid_input.
type Rejection struct {
	Reason string
	Err    error
}

// Reject returns a Rejection carrying reason.
func Reject(reason string) error {
	return &Rejection{Reason: reason}
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return "rejected: " + r.Reason + ": " + r.Err.Error()
	}
	return "rejected: " + r.Reason
}

func (r *Rejection) Unwrap() []error {
	if r.Err != nil {
		return []error{ErrInvalidInput, r.Err}
	}
	return []error{ErrInvalidInput}
}

// Kind returns the stable snake_case identifier for err, or "internal".
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

// Message returns the user-facing message for err. It never reveals which
// credential was wrong.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var rej *Rejection
	if errors.As(err, &rej) && rej.Reason != "" {
		return rej.Reason
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.message
		}
	}
	return "An unexpected error occurred."
}

// Blocking reports whether err means the store cannot be reached at all.
func Blocking(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
