package resource

import (
	"context"

	"github.com/ggoodman/mcp-methods-go/async"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// AsyncCallback returns a deferred read. Methods may return a deferred, a
// receive channel or a plain value of any supported result type.
type AsyncCallback struct{ *core }

var _ Handler = (*AsyncCallback)(nil)

// NewAsync binds decl.Method on bean.
func NewAsync(bean any, decl Declaration, opts ...Option) (*AsyncCallback, error) {
	c, err := newCore(bean, decl, asyncFlavour, opts)
	if err != nil {
		return nil, err
	}
	return &AsyncCallback{c}, nil
}

func (cb *AsyncCallback) Resource() mcp.Resource { return cb.resource() }

func (cb *AsyncCallback) Template() mcp.ResourceTemplate { return cb.template() }

func (cb *AsyncCallback) Matches(uri string) bool { return cb.matches(uri) }

// Call returns a deferred read of the resource for req.
func (cb *AsyncCallback) Call(session sessions.Session, req *mcp.ReadResourceRequest) async.Deferred[*mcp.ReadResourceResult] {
	if req == nil {
		return async.Fail[*mcp.ReadResourceResult](ErrNilRequest)
	}
	return func(ctx context.Context) (*mcp.ReadResourceResult, error) {
		return cb.call(ctx, session, nil, req)
	}
}

func (cb *AsyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return cb.Call(session, req).Await(ctx)
}

// StatelessAsyncCallback is the AsyncCallback for servers without sessions.
type StatelessAsyncCallback struct{ *core }

var _ Handler = (*StatelessAsyncCallback)(nil)

// NewStatelessAsync binds decl.Method on bean.
func NewStatelessAsync(bean any, decl Declaration, opts ...Option) (*StatelessAsyncCallback, error) {
	c, err := newCore(bean, decl, statelessAsyncFlavour, opts)
	if err != nil {
		return nil, err
	}
	return &StatelessAsyncCallback{c}, nil
}

func (cb *StatelessAsyncCallback) Resource() mcp.Resource { return cb.resource() }

func (cb *StatelessAsyncCallback) Template() mcp.ResourceTemplate { return cb.template() }

func (cb *StatelessAsyncCallback) Matches(uri string) bool { return cb.matches(uri) }

// Call returns a deferred read of the resource for req.
func (cb *StatelessAsyncCallback) Call(tc sessions.TransportContext, req *mcp.ReadResourceRequest) async.Deferred[*mcp.ReadResourceResult] {
	if req == nil {
		return async.Fail[*mcp.ReadResourceResult](ErrNilRequest)
	}
	if tc == nil {
		tc = sessions.EmptyTransportContext
	}
	return func(ctx context.Context) (*mcp.ReadResourceResult, error) {
		return cb.call(ctx, nil, tc, req)
	}
}

func (cb *StatelessAsyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return cb.Call(transportFor(ctx, session), req).Await(ctx)
}
