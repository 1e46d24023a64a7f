package pg

import (
	"context"
	"database/sql"
	"fmt"

	"filmdb.org/internal/auth"
)

const userColumns = `user_id, username, full_name, email, role, is_active, is_locked, failed_login_attempts, last_login, created_at`

// CheckCredentials calls fn_authenticate_user.
func (s *Store) CheckCredentials(ctx context.Context, username, password string) (int64, error) {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return 0, err
	}
	var code int64
	if err := db.QueryRowContext(ctx, `select fn_authenticate_user($1, $2)`, username, password).Scan(&code); err != nil {
		return 0, mapError(err)
	}
	return code, nil
}

// UserSummary loads the identity row for id.
func (s *Store) UserSummary(ctx context.Context, id int64) (auth.UserSummary, error) {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return auth.UserSummary{}, err
	}
	var (
		out  auth.UserSummary
		role string
	)
	err = db.QueryRowContext(ctx, `
		select user_id, username, full_name, role
		from users
		where user_id = $1
	`, id).Scan(&out.ID, &out.Username, &out.FullName, &role)
	if err != nil {
		return auth.UserSummary{}, mapError(err)
	}
	out.Role = auth.Role(role)
	return out, nil
}

// RecordLogin calls sp_update_login.
func (s *Store) RecordLogin(ctx context.Context, id int64, success bool, origin string) error {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `call sp_update_login($1, $2, $3)`, id, success, origin)
	return mapError(err)
}

// CreateUser calls sp_create_user. The function hashes the password.
func (s *Store) CreateUser(ctx context.Context, actorID int64, nu auth.NewUser) (auth.User, error) {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return auth.User{}, err
	}
	row := db.QueryRowContext(ctx, `select `+userColumns+` from sp_create_user($1, $2, $3, $4, $5, $6)`,
		actorID, nu.Username, nu.Password, nu.FullName, nu.Email, string(nu.Role))
	return scanUser(row)
}

// ListUsers calls sp_get_all_users.
func (s *Store) ListUsers(ctx context.Context, actorID int64) ([]auth.User, error) {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `select `+userColumns+` from sp_get_all_users($1)`, actorID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// SetUserActive calls sp_update_user_status.
func (s *Store) SetUserActive(ctx context.Context, actorID, targetID int64, active bool) (auth.User, error) {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return auth.User{}, err
	}
	row := db.QueryRowContext(ctx, `select `+userColumns+` from sp_update_user_status($1, $2, $3)`, actorID, targetID, active)
	return scanUser(row)
}

// DeleteUser calls sp_delete_user and returns the removed row.
func (s *Store) DeleteUser(ctx context.Context, actorID, targetID int64) (auth.User, error) {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return auth.User{}, err
	}
	row := db.QueryRowContext(ctx, `select `+userColumns+` from sp_delete_user($1, $2)`, actorID, targetID)
	return scanUser(row)
}

// UserActivity reads view_user_activity.
func (s *Store) UserActivity(ctx context.Context) ([]auth.UserActivity, error) {
	db, err := s.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		select user_id, username, full_name, role, successful_logins, total_activity, last_activity
		from view_user_activity
		order by last_activity desc nulls last, user_id
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []auth.UserActivity
	for rows.Next() {
		var (
			a    auth.UserActivity
			role string
			last sql.NullTime
		)
		if err := rows.Scan(&a.UserID, &a.Username, &a.FullName, &role, &a.SuccessfulLogins, &a.TotalActivity, &last); err != nil {
			return nil, mapError(err)
		}
		a.Role = auth.Role(role)
		if last.Valid {
			t := last.Time.UTC()
			a.LastActivity = &t
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (auth.User, error) {
	var (
		u         auth.User
		role      string
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &role, &u.Active, &u.Locked, &u.FailedAttempts, &lastLogin, &u.CreatedAt); err != nil {
		return auth.User{}, mapError(err)
	}
	u.Role = auth.Role(role)
	if !u.Role.Valid() {
		return auth.User{}, fmt.Errorf("%w: user %d has role %q", auth.ErrInconsistent, u.ID, role)
	}
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLogin = &t
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}
