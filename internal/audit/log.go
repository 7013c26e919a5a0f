// Package audit emits structured audit events for security-relevant actions
// such as registrations, logins and report status changes.
package audit

import (
	"context"
	"errors"
	"strings"

	"bountyhub.org/internal/bounty"
	"bountyhub.org/internal/obs"
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

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit entry enriched with request and actor context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	ev := obs.Logger().Info().
		Str("type", "audit").
		Str("event", event)
	if rid := requestIDFromContext(ctx); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if actor, ok := bounty.ActorFromContext(ctx); ok {
		ev = ev.Str("user_id", actor.ID).Str("role", string(actor.Role))
	}
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("audit")
	return nil
}
