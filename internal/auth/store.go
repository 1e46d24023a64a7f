package auth

import "context"

// CredentialStore is the external store that owns credential verification,
// lockout counting and the user administration procedures. Implementations
// translate their failures into the sentinel errors of this package.
type CredentialStore interface {
	// CheckCredentials returns a positive user id or one of the Code* values.
	CheckCredentials(ctx context.Context, username, password string) (int64, error)
	// UserSummary returns ErrNotFound when no row matches id.
	UserSummary(ctx context.Context, id int64) (UserSummary, error)
	// RecordLogin writes the login audit record and last-login timestamp.
	RecordLogin(ctx context.Context, id int64, success bool, origin string) error

	CreateUser(ctx context.Context, actorID int64, nu NewUser) (User, error)
	ListUsers(ctx context.Context, actorID int64) ([]User, error)
	SetUserActive(ctx context.Context, actorID, targetID int64, active bool) (User, error)
	DeleteUser(ctx context.Context, actorID, targetID int64) (User, error)
	UserActivity(ctx context.Context) ([]UserActivity, error)

	Ping(ctx context.Context) error
}
