package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "filmdb"

var errMissingSecret = errors.New("auth: session secret is not configured")

// Claims are the JWT claims of a session token.
type Claims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer for secret. ttl must be positive.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errMissingSecret
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token ttl must be greater than zero")
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for an authenticated session.
func (t *TokenIssuer) Issue(s Session) (string, time.Time, error) {
	if !s.Authenticated || s.ID == "" {
		return "", time.Time{}, ErrNotAuthenticated
	}
	now := t.now().UTC()
	expires := now.Add(t.ttl)
	claims := Claims{
		SessionID: s.ID,
		Username:  s.Username,
		Role:      s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(s.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies the signature and the registered claims of token.
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithLeeway(5*time.Second))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := t.validate(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func (t *TokenIssuer) validate(c *Claims) error {
	if c.Issuer != tokenIssuer {
		return fmt.Errorf("unexpected issuer: %s", c.Issuer)
	}
	if _, err := strconv.ParseInt(c.Subject, 10, 64); err != nil {
		return errors.New("subject is not a user id")
	}
	if strings.TrimSpace(c.SessionID) == "" {
		return errors.New("session id missing")
	}
	if !c.Role.Valid() {
		return fmt.Errorf("unknown role: %s", c.Role)
	}
	if c.ExpiresAt == nil || c.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := t.now().UTC()
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if c.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if c.ExpiresAt.Time.Before(c.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}

// Resolve maps a token back onto an open session in reg. Closed or expired
// sessions yield ErrInvalidToken.
func (t *TokenIssuer) Resolve(reg *Sessions, token string) (Session, error) {
	claims, err := t.Parse(token)
	if err != nil {
		return Session{}, err
	}
	s, ok := reg.Get(claims.SessionID)
	if !ok {
		return Session{}, fmt.Errorf("%w: session closed", ErrInvalidToken)
	}
	if strconv.FormatInt(s.UserID, 10) != claims.Subject || s.Role != claims.Role {
		return Session{}, fmt.Errorf("%w: session mismatch", ErrInvalidToken)
	}
	return s, nil
}
