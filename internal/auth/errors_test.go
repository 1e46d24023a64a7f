package auth

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindAndMessage(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{ErrInvalidCredentials, "invalid_credentials"},
		{ErrAccountLocked, "account_locked"},
		{ErrAccountInactive, "account_inactive"},
		{ErrPermissionDenied, "permission_denied"},
		{ErrDuplicateIdentity, "duplicate_identity"},
		{ErrLastAdminProtected, "last_admin_protected"},
		{ErrStoreUnavailable, "store_unavailable"},
		{ErrInconsistent, "inconsistent"},
		{errors.New("boom"), "internal"},
	}
	seen := map[string]bool{}
	for _, tc := range cases {
		wrapped := fmt.Errorf("context: %w", tc.err)
		if got := Kind(wrapped); got != tc.kind {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.kind)
		}
		msg := Message(wrapped)
		if msg == "" {
			t.Fatalf("empty message for %v", tc.err)
		}
		if seen[msg] {
			t.Fatalf("message %q reused", msg)
		}
		seen[msg] = true
	}
	if Message(nil) != "" {
		t.Fatal("nil error must have no message")
	}
}

func TestBlockingOnlyForStoreUnavailable(t *testing.T) {
	if !Blocking(fmt.Errorf("%w: dial", ErrStoreUnavailable)) {
		t.Fatal("store unavailable must block")
	}
	for _, err := range []error{ErrInvalidCredentials, ErrAccountLocked, ErrInconsistent, ErrPermissionDenied} {
		if Blocking(err) {
			t.Fatalf("%v must not block", err)
		}
	}
}

func TestRejectionCarriesReason(t *testing.T) {
	cause := errors.New("raise exception P0001")
	err := fmt.Errorf("add film: %w", &Rejection{Reason: "Minimum film budget is $100,000", Err: cause})
	if got := Kind(err); got != "invalid_input" {
		t.Fatalf("Kind = %q, want invalid_input", got)
	}
	if got := Message(err); got != "Minimum film budget is $100,000" {
		t.Fatalf("Message = %q", got)
	}
	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, cause) {
		t.Fatal("rejection must unwrap to ErrInvalidInput and its cause")
	}
	if Message(Reject("")) != Message(ErrInvalidInput) {
		t.Fatal("empty reason falls back to the kind message")
	}
}
