package reqctx

import (
	"context"

	"github.com/ggoodman/mcp-methods-go/async"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// AsyncRequestContext mirrors RequestContext for methods that return deferred
// results. Every operation returns an async.Deferred that performs the call
// when awaited.
type AsyncRequestContext struct {
	rc *RequestContext
}

// NewAsync builds an AsyncRequestContext.
func NewAsync(req Request, session sessions.Session, opts ...Option) (*AsyncRequestContext, error) {
	rc, err := New(req, session, opts...)
	if err != nil {
		return nil, err
	}
	return &AsyncRequestContext{rc: rc}, nil
}

// Sync returns the synchronous view of the same request.
func (a *AsyncRequestContext) Sync() *RequestContext { return a.rc }

func (a *AsyncRequestContext) Request() Request                { return a.rc.Request() }
func (a *AsyncRequestContext) Session() sessions.Session       { return a.rc.Session() }
func (a *AsyncRequestContext) SessionID() string               { return a.rc.SessionID() }
func (a *AsyncRequestContext) ClientInfo() sessions.ClientInfo { return a.rc.ClientInfo() }
func (a *AsyncRequestContext) RequestMeta() mcp.Meta           { return a.rc.RequestMeta() }
func (a *AsyncRequestContext) RootsEnabled() bool              { return a.rc.RootsEnabled() }
func (a *AsyncRequestContext) ElicitEnabled() bool             { return a.rc.ElicitEnabled() }
func (a *AsyncRequestContext) SampleEnabled() bool             { return a.rc.SampleEnabled() }
func (a *AsyncRequestContext) ClientCapabilities() mcp.ClientCapabilities {
	return a.rc.ClientCapabilities()
}

func (a *AsyncRequestContext) TransportContext() sessions.TransportContext {
	return a.rc.TransportContext()
}

func (a *AsyncRequestContext) Roots() async.Deferred[*mcp.ListRootsResult] {
	return a.rc.Roots
}

func (a *AsyncRequestContext) Elicit(req *mcp.ElicitRequest) async.Deferred[*mcp.ElicitResult] {
	return func(ctx context.Context) (*mcp.ElicitResult, error) { return a.rc.Elicit(ctx, req) }
}

// ElicitIntoAsync is the deferred form of ElicitInto.
func ElicitIntoAsync[T any](a *AsyncRequestContext, message string) async.Deferred[*ElicitResult[T]] {
	return func(ctx context.Context) (*ElicitResult[T], error) {
		return ElicitInto[T](ctx, a.rc, message)
	}
}

func (a *AsyncRequestContext) Sample(messages ...string) async.Deferred[*mcp.CreateMessageResult] {
	return func(ctx context.Context) (*mcp.CreateMessageResult, error) { return a.rc.Sample(ctx, messages...) }
}

func (a *AsyncRequestContext) SampleRequest(req *mcp.CreateMessageRequest) async.Deferred[*mcp.CreateMessageResult] {
	return func(ctx context.Context) (*mcp.CreateMessageResult, error) { return a.rc.SampleRequest(ctx, req) }
}

func (a *AsyncRequestContext) Progress(percentage int) async.Deferred[struct{}] {
	return done(func(ctx context.Context) error { return a.rc.Progress(ctx, percentage) })
}

func (a *AsyncRequestContext) ProgressNotify(progress, total float64, message string) async.Deferred[struct{}] {
	return done(func(ctx context.Context) error { return a.rc.ProgressNotify(ctx, progress, total, message) })
}

func (a *AsyncRequestContext) Ping() async.Deferred[struct{}] {
	return done(a.rc.Ping)
}

func (a *AsyncRequestContext) Log(level mcp.LoggingLevel, logger string, data any) async.Deferred[struct{}] {
	return done(func(ctx context.Context) error { return a.rc.Log(ctx, level, logger, data) })
}

func (a *AsyncRequestContext) Debug(message string) async.Deferred[struct{}] {
	return done(func(ctx context.Context) error { return a.rc.Debug(ctx, message) })
}

func (a *AsyncRequestContext) Info(message string) async.Deferred[struct{}] {
	return done(func(ctx context.Context) error { return a.rc.Info(ctx, message) })
}

func (a *AsyncRequestContext) Warn(message string) async.Deferred[struct{}] {
	return done(func(ctx context.Context) error { return a.rc.Warn(ctx, message) })
}

func (a *AsyncRequestContext) Error(message string) async.Deferred[struct{}] {
	return done(func(ctx context.Context) error { return a.rc.Error(ctx, message) })
}

func done(fn func(context.Context) error) async.Deferred[struct{}] {
	return func(ctx context.Context) (struct{}, error) { return struct{}{}, fn(ctx) }
}
