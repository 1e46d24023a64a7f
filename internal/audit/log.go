package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"filmdb.org/internal/auth"
	"filmdb.org/internal/ids"
	"filmdb.org/internal/obs"
	"filmdb.org/internal/stream"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id attached by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit line enriched with the request id and the
// acting session found in ctx.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	e, err := newEvent(ctx, event, fields)
	if err != nil {
		return err
	}
	write(e)
	return nil
}

// Recorder returns an audit function that logs each event and then
// publishes it to hub.
func Recorder(hub *stream.Hub) auth.AuditFunc {
	return func(ctx context.Context, event string, fields map[string]any) error {
		e, err := newEvent(ctx, event, fields)
		if err != nil {
			return err
		}
		write(e)
		if hub != nil {
			hub.Publish(e)
		}
		return nil
	}
}

func newEvent(ctx context.Context, event string, fields map[string]any) (stream.Event, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return stream.Event{}, errors.New("event name is required")
	}
	e := stream.Event{
		ID:        ids.New(),
		Name:      event,
		RequestID: RequestIDFromContext(ctx),
		At:        time.Now().UTC(),
	}
	if s := auth.SessionFromContext(ctx); s.Authenticated {
		e.ActorID, e.Actor, e.ActorRole = s.UserID, s.Username, s.Role.String()
	}
	e.Fields = make(map[string]any, len(fields))
	for k, v := range fields {
		e.Fields[k] = v
	}
	return e, nil
}

func write(e stream.Event) {
	ev := obs.Logger().Info().
		Str("type", "audit").
		Str("event", e.Name).
		Str("audit_id", e.ID)
	if e.RequestID != "" {
		ev = ev.Str("request_id", e.RequestID)
	}
	if e.Actor != "" {
		ev = ev.Int64("actor_id", e.ActorID).Str("actor", e.Actor).Str("actor_role", e.ActorRole)
	}
	ev.Interface("fields", e.Fields).Msg("audit")
}
