package logctx

import (
	"context"
	"log/slog"
)

// Handler decorates records with the callback and session data carried in
// the record's context.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if cd, ok := ctx.Value(callbackDataKey{}).(*CallbackData); ok {
		r.AddAttrs(slog.Group("cb",
			slog.String("kind", cd.Kind),
			slog.String("name", cd.Name),
			slog.String("method", cd.Method),
		))
	}

	if sd, ok := ctx.Value(sessionDataKey{}).(*SessionData); ok {
		r.AddAttrs(slog.Group("sess",
			slog.String("id", sd.SessionID),
			slog.String("user_id", sd.UserID),
		))
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

// Wrap returns l with its handler decorated by Handler. A nil logger wraps
// slog.Default().
func Wrap(l *slog.Logger) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	if _, ok := l.Handler().(Handler); ok {
		return l
	}
	return slog.New(Handler{Handler: l.Handler()})
}

type callbackDataKey struct{}

// CallbackData identifies the bound method serving a request.
type CallbackData struct {
	Kind   string // tool, resource, complete, tool_list_changed
	Name   string // tool name, resource URI or completion reference
	Method string // Owner.Method
}

func WithCallbackData(ctx context.Context, data *CallbackData) context.Context {
	return context.WithValue(ctx, callbackDataKey{}, data)
}

type sessionDataKey struct{}

type SessionData struct {
	SessionID string
	UserID    string
}

func WithSessionData(ctx context.Context, data *SessionData) context.Context {
	return context.WithValue(ctx, sessionDataKey{}, data)
}
