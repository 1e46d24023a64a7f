package pg

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"filmdb.org/internal/auth"
)

// SQLSTATE codes raised by the schema's functions and by PostgreSQL itself.
const (
	pgErrUniqueViolation       = "23505"
	pgErrForeignKeyViolation   = "23503"
	pgErrCheckViolation        = "23514"
	pgErrInvalidParameter      = "22023"
	pgErrInsufficientPrivilege = "42501"
	pgErrRaiseException        = "P0001"
	pgErrNoDataFound           = "P0002"
	pgErrTooManyConnections    = "53300"

	sqlstatePermissionDenied   = "FD001"
	sqlstateLastAdminProtected = "FD002"
	sqlstateUserNotFound       = "FD003"

	// Generic user-defined exception, as raised by SIGNAL in MySQL dumps of
	// the catalog schema.
	sqlstateSignal = "45000"
)

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// mapError translates driver errors into the auth error taxonomy using
// SQLSTATE codes only. Unclassified errors are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return auth.ErrNotFound
	}
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return fmt.Errorf("%w: %s", auth.ErrDuplicateIdentity, pgErr.ConstraintName)
		case pgErrInsufficientPrivilege, sqlstatePermissionDenied:
			return fmt.Errorf("%w: %s", auth.ErrPermissionDenied, pgErr.Message)
		case sqlstateLastAdminProtected:
			return auth.ErrLastAdminProtected
		case sqlstateUserNotFound, pgErrNoDataFound, pgErrForeignKeyViolation:
			return fmt.Errorf("%w: %s", auth.ErrNotFound, pgErr.Message)
		case pgErrCheckViolation, pgErrInvalidParameter:
			return fmt.Errorf("%w: %s", auth.ErrInvalidInput, pgErr.Message)
		case pgErrTooManyConnections:
			return fmt.Errorf("%w: %s", auth.ErrStoreUnavailable, pgErr.Message)
		}
		// Class 08 is connection exceptions, 57P0x is server shutdown.
		if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0") {
			return fmt.Errorf("%w: %s", auth.ErrStoreUnavailable, pgErr.Message)
		}
		return err
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connErr),
		errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", auth.ErrStoreUnavailable, err)
	}
	return err
}

// catalogError classifies errors from the film catalog. Business rules
// raised by its procedures, triggers and check constraints reach the user
// with the database's own message. Credential calls never go through here.
func catalogError(err error) error {
	if err == nil {
		return nil
	}
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrRaiseException, sqlstateSignal, pgErrCheckViolation:
			return &auth.Rejection{Reason: pgErr.Message, Err: err}
		}
	}
	return mapError(err)
}
