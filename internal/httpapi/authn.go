package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"filmdb.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withSession resolves the bearer token onto an open session. Requests
// without a usable token are rejected before any handler runs.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, auth.Kind(auth.ErrNotAuthenticated), err.Error())
			return
		}
		s, err := a.tokens.Resolve(a.reg, token)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), s)))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
