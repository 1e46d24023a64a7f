package httpapi

import (
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer   abc", "abc", true},
		{"", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer    ", "", false},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if tc.ok && err != nil {
			t.Fatalf("%q: unexpected error %v", tc.header, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.header)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.header, tc.want, got)
		}
	}
}

func TestStatusForKinds(t *testing.T) {
	cases := map[string]int{
		"invalid_credentials":  401,
		"account_locked":       401,
		"account_inactive":     401,
		"invalid_token":        401,
		"permission_denied":    403,
		"duplicate_identity":   409,
		"last_admin_protected": 409,
		"invalid_input":        400,
		"not_found":            404,
		"store_unavailable":    503,
		"inconsistent":         500,
		"internal":             500,
	}
	for kind, want := range cases {
		if got := statusFor(kind); got != want {
			t.Fatalf("%s: expected %d, got %d", kind, want, got)
		}
	}
}
