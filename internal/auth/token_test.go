package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenIssueParseResolve(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	reg := NewSessions(0)
	s := reg.Open(UserSummary{ID: 42, Username: "mgr", FullName: "Manager", Role: RoleManager})

	token, expires, err := issuer.Issue(s)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected future expiry, got %v", expires)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "42" || claims.SessionID != s.ID || claims.Role != RoleManager {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	got, err := issuer.Resolve(reg, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.UserID != 42 || got.Username != "mgr" {
		t.Fatalf("unexpected session: %+v", got)
	}

	reg.Close(s.ID)
	if _, err := issuer.Resolve(reg, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
}

func TestTokenRejectsTamperingAndExpiry(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	s := Establish(UserSummary{ID: 1, Username: "admin", Role: RoleAdmin}, time.Now())
	token, _, err := issuer.Issue(s)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, _ := NewTokenIssuer("other-secret", time.Minute)
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature failure, got %v", err)
	}

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := issuer.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expiry failure, got %v", err)
	}
	if _, err := issuer.Parse("  "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected empty token failure, got %v", err)
	}
}

func TestTokenIssuerConfig(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Fatal("expected missing secret error")
	}
	if _, err := NewTokenIssuer("x", 0); err == nil {
		t.Fatal("expected ttl error")
	}
	issuer, _ := NewTokenIssuer("x", time.Hour)
	if _, _, err := issuer.Issue(Session{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
