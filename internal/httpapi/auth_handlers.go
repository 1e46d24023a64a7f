package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"filmdb.org/internal/auth"
	"filmdb.org/internal/catalog"
	"filmdb.org/internal/obs"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type pageView struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      auth.UserSummary `json:"user"`
	Pages     []pageView       `json:"pages"`
}

type sessionResponse struct {
	SessionID   string                  `json:"session_id"`
	User        auth.UserSummary        `json:"user"`
	Pages       []pageView              `json:"pages"`
	Permissions map[auth.Operation]bool `json:"permissions"`
	CreatedAt   time.Time               `json:"created_at"`
}

type pageResponse struct {
	pageView
	Reports    []catalog.Report    `json:"reports,omitempty"`
	Procedures []catalog.Procedure `json:"procedures,omitempty"`
}

func menu(role auth.Role) []pageView {
	pages := auth.VisiblePages(role)
	out := make([]pageView, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageView{Slug: p.Slug(), Title: p.Title()})
	}
	return out
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	s, err := a.auth.Login(r.Context(), a.reg, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	token, expires, err := a.tokens.Issue(s)
	if err != nil {
		a.auth.Logout(r.Context(), a.reg, s)
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      s.Summary(),
		Pages:     menu(s.Role),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	s := auth.SessionFromContext(r.Context())
	a.auth.Logout(r.Context(), a.reg, s)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	s := auth.SessionFromContext(r.Context())
	if !s.Authenticated {
		writeFailure(w, r, auth.ErrNotAuthenticated)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:   s.ID,
		User:        s.Summary(),
		Pages:       menu(s.Role),
		Permissions: auth.Matrix(s.Role),
		CreatedAt:   s.CreatedAt,
	})
}

func (a *API) handlePage(w http.ResponseWriter, r *http.Request) {
	s := auth.SessionFromContext(r.Context())
	page, err := auth.ParsePage(mux.Vars(r)["page"])
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := auth.EnterPage(s, page); err != nil {
		obs.Logger().Warn().Str("username", s.Username).Str("page", page.Slug()).Msg("page entry refused")
		writeFailure(w, r, err)
		return
	}
	resp := pageResponse{pageView: pageView{Slug: page.Slug(), Title: page.Title()}}
	for _, rep := range catalog.Reports() {
		if rep.Page == page {
			resp.Reports = append(resp.Reports, rep)
		}
	}
	for _, p := range catalog.Procedures() {
		if p.Page == page {
			resp.Procedures = append(resp.Procedures, p)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
