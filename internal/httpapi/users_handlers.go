package httpapi

import (
	"fmt"
	"net/http"

	"filmdb.org/internal/auth"
)

type userStatusRequest struct {
	Active *bool `json:"active"`
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.admin.ListUsers(r.Context(), auth.SessionFromContext(r.Context()))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if users == nil {
		users = []auth.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req auth.NewUser
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	u, err := a.admin.CreateUser(r.Context(), auth.SessionFromContext(r.Context()), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/users/%d", u.ID))
	writeJSON(w, http.StatusCreated, u)
}

func (a *API) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var req userStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if req.Active == nil {
		writeBadRequest(w, r, "active is required")
		return
	}
	u, err := a.admin.SetUserActive(r.Context(), auth.SessionFromContext(r.Context()), id, *req.Active)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	u, err := a.admin.DeleteUser(r.Context(), auth.SessionFromContext(r.Context()), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) handleUserActivity(w http.ResponseWriter, r *http.Request) {
	rows, err := a.admin.Activity(r.Context(), auth.SessionFromContext(r.Context()))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if rows == nil {
		rows = []auth.UserActivity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": rows})
}
