package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"filmdb.org/internal/auth"
	"filmdb.org/internal/obs"
	"filmdb.org/internal/stream"
)

// handleAuditStream sends audit events as Server-Sent Events to admins. The
// backlog is replayed first.
func (a *API) handleAuditStream(w http.ResponseWriter, r *http.Request) {
	s := auth.SessionFromContext(r.Context())
	if err := auth.EnterPage(s, auth.PageAuditLogs); err != nil {
		writeFailure(w, r, err)
		return
	}
	if a.events == nil {
		writeError(w, r, http.StatusServiceUnavailable, "stream_disabled", "The live audit feed is not enabled.")
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := a.events.Subscribe(ctx)

	_, _ = w.Write([]byte(": stream started\n\n"))
	if err := rc.Flush(); err != nil {
		obs.Logger().Warn().Err(err).Msg("audit stream: flush unsupported")
		return
	}

	send := func(v any) bool {
		payload, err := json.Marshal(v)
		if err != nil {
			return true
		}
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		return rc.Flush() == nil
	}
	backlog := a.events.Recent()
	for _, evt := range backlog {
		if !send(evt) {
			return
		}
	}
	replayed := replayFilter(backlog)
	for evt := range ch {
		if replayed(evt) {
			continue
		}
		if !send(evt) {
			return
		}
	}
}

// replayFilter reports whether a live event was already sent as part of the
// backlog. Events published between Subscribe and Recent show up in both.
func replayFilter(backlog []stream.Event) func(stream.Event) bool {
	seen := make(map[string]struct{}, len(backlog))
	for _, evt := range backlog {
		if evt.ID != "" {
			seen[evt.ID] = struct{}{}
		}
	}
	return func(evt stream.Event) bool {
		if _, ok := seen[evt.ID]; ok {
			delete(seen, evt.ID)
			return true
		}
		return false
	}
}
