package complete

import (
	"context"

	"github.com/ggoodman/mcp-methods-go/async"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// AsyncCallback returns a deferred completion.
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

func (cb *AsyncCallback) Call(session sessions.Session, req *mcp.CompleteRequest) async.Deferred[*mcp.CompleteResult] {
	if req == nil {
		return async.Fail[*mcp.CompleteResult](ErrNilRequest)
	}
	return func(ctx context.Context) (*mcp.CompleteResult, error) {
		return cb.call(ctx, session, nil, req)
	}
}

func (cb *AsyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
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

func (cb *StatelessAsyncCallback) Call(tc sessions.TransportContext, req *mcp.CompleteRequest) async.Deferred[*mcp.CompleteResult] {
	if req == nil {
		return async.Fail[*mcp.CompleteResult](ErrNilRequest)
	}
	if tc == nil {
		tc = sessions.EmptyTransportContext
	}
	return func(ctx context.Context) (*mcp.CompleteResult, error) {
		return cb.call(ctx, nil, tc, req)
	}
}

func (cb *StatelessAsyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return cb.Call(transportFor(ctx, session), req).Await(ctx)
}
