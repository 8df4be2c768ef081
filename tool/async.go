package tool

import (
	"context"

	"github.com/ggoodman/mcp-methods-go/async"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// AsyncCallback returns a deferred result. The method runs only when the
// deferred is awaited.
//
// Methods may return a deferred (async.Deferred[T] or any
// func(context.Context) (T, error)), a receive channel, or a plain value.
// They may declare *reqctx.AsyncRequestContext but not the sync request
// context.
type AsyncCallback struct{ c *core }

var _ Handler = (*AsyncCallback)(nil)

// NewAsync binds decl.Method on bean.
func NewAsync(bean any, decl Declaration, opts ...Option) (*AsyncCallback, error) {
	c, err := newCore(bean, decl, asyncFlavour, opts)
	if err != nil {
		return nil, err
	}
	return &AsyncCallback{c: c}, nil
}

func (cb *AsyncCallback) Tool() mcp.Tool { return cb.c.tool }

func (cb *AsyncCallback) Mode() ReturnMode { return cb.c.mode }

// Call returns a deferred invocation of the method for req.
func (cb *AsyncCallback) Call(session sessions.Session, req *mcp.CallToolRequest) async.Deferred[*mcp.CallToolResult] {
	if req == nil {
		return async.Fail[*mcp.CallToolResult](ErrNilRequest)
	}
	return func(ctx context.Context) (*mcp.CallToolResult, error) {
		return cb.c.call(ctx, session, nil, req)
	}
}

func (cb *AsyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return cb.Call(session, req).Await(ctx)
}

// StatelessAsyncCallback is the AsyncCallback for servers without sessions.
type StatelessAsyncCallback struct{ c *core }

var _ Handler = (*StatelessAsyncCallback)(nil)

// NewStatelessAsync binds decl.Method on bean.
func NewStatelessAsync(bean any, decl Declaration, opts ...Option) (*StatelessAsyncCallback, error) {
	c, err := newCore(bean, decl, statelessAsyncFlavour, opts)
	if err != nil {
		return nil, err
	}
	return &StatelessAsyncCallback{c: c}, nil
}

func (cb *StatelessAsyncCallback) Tool() mcp.Tool { return cb.c.tool }

func (cb *StatelessAsyncCallback) Mode() ReturnMode { return cb.c.mode }

// Call returns a deferred invocation of the method for req.
func (cb *StatelessAsyncCallback) Call(tc sessions.TransportContext, req *mcp.CallToolRequest) async.Deferred[*mcp.CallToolResult] {
	if req == nil {
		return async.Fail[*mcp.CallToolResult](ErrNilRequest)
	}
	if tc == nil {
		tc = sessions.EmptyTransportContext
	}
	return func(ctx context.Context) (*mcp.CallToolResult, error) {
		return cb.c.call(ctx, nil, tc, req)
	}
}

func (cb *StatelessAsyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return cb.Call(transportFor(ctx, session), req).Await(ctx)
}
