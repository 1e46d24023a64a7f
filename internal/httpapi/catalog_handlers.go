package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"filmdb.org/internal/auth"
	"filmdb.org/internal/catalog"
)

type filmStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := a.catalog.Summary(r.Context(), auth.SessionFromContext(r.Context()))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) handleListReports(w http.ResponseWriter, r *http.Request) {
	s := auth.SessionFromContext(r.Context())
	if err := auth.EnterPage(s, auth.PageAnalyticsReports); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": catalog.Reports()})
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	t, err := a.catalog.Report(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["view"])
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handleProcedure(w http.ResponseWriter, r *http.Request) {
	var id int64
	if raw := strings.TrimSpace(r.URL.Query().Get("id")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			writeBadRequest(w, r, "id must be a positive integer")
			return
		}
		id = v
	}
	t, err := a.catalog.Run(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["name"], id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handleFunction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	name := mux.Vars(r)["name"]
	v, err := a.catalog.Evaluate(r.Context(), auth.SessionFromContext(r.Context()), name, id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"function": name, "id": id, "value": v})
}

func (a *API) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	t, err := a.catalog.AuditTrail(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["kind"])
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handleAddFilm(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewFilm
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	t, err := a.catalog.AddFilm(r.Context(), auth.SessionFromContext(r.Context()), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (a *API) handleFilmStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var req filmStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if err := a.catalog.UpdateFilmStatus(r.Context(), auth.SessionFromContext(r.Context()), id, req.Status); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"film_id": id, "status": req.Status})
}

func (a *API) handleUpdateFilm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var req catalog.FilmUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	req.FilmID = id
	if err := a.catalog.UpdateFilm(r.Context(), auth.SessionFromContext(r.Context()), req); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"film_id":              id,
		"boxoffice_collection": req.BoxOffice,
		"rating":               req.Rating,
		"status":               req.Status,
	})
}

func (a *API) handleAddActor(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewActor
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	id, err := a.catalog.AddActor(r.Context(), auth.SessionFromContext(r.Context()), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"actor_id": id})
}

func (a *API) handleCastActor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var req catalog.Casting
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	req.FilmID = id
	if err := a.catalog.CastActor(r.Context(), auth.SessionFromContext(r.Context()), req); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"film_id": id, "actor_id": req.ActorID})
}

func (a *API) handleAllocateCrew(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var req catalog.CrewAllocation
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	req.FilmID = id
	if err := a.catalog.AllocateCrew(r.Context(), auth.SessionFromContext(r.Context()), req); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"film_id": id, "crew_id": req.CrewID})
}

func (a *API) handleAddEquipment(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewEquipment
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	id, err := a.catalog.AddEquipment(r.Context(), auth.SessionFromContext(r.Context()), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"equipment_id": id})
}

func (a *API) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var req catalog.NewLocation
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	req.FilmID = id
	b, err := a.catalog.AddLocation(r.Context(), auth.SessionFromContext(r.Context()), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}
