package auth

import "time"

// Status codes returned by the credential check. Positive values are user ids.
const (
	CodeInvalidCredentials int64 = -1
	CodeAccountLocked      int64 = -2
	CodeAccountInactive    int64 = -3
)

// User is a dashboard account as stored by the credential store.
type User struct {
	ID             int64      `json:"user_id"`
	Username       string     `json:"username"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	Role           Role       `json:"role"`
	Active         bool       `json:"is_active"`
	Locked         bool       `json:"is_locked"`
	FailedAttempts int        `json:"failed_login_attempts"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Summary projects u onto the fields a session needs.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, FullName: u.FullName, Role: u.Role}
}

// UserSummary is the identity returned by a successful authentication.
type UserSummary struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// NewUser is the input for creating an account.
type NewUser struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Role     Role   `json:"role" validate:"required,oneof=admin manager viewer"`
}

// UserActivity is one row of the per-user activity summary.
type UserActivity struct {
	UserID           int64      `json:"user_id"`
	Username         string     `json:"username"`
	FullName         string     `json:"full_name"`
	Role             Role       `json:"role"`
	SuccessfulLogins int        `json:"successful_logins"`
	TotalActivity    int        `json:"total_activity"`
	LastActivity     *time.Time `json:"last_activity,omitempty"`
}
