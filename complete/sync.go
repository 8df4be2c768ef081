package complete

import (
	"context"

	"github.com/ggoodman/mcp-methods-go/binding"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// Handler is the uniform shape completion registries dispatch to.
type Handler interface {
	Reference() mcp.CompleteReference
	Handle(ctx context.Context, session sessions.Session, req *mcp.CompleteRequest) (*mcp.CompleteResult, error)
}

// SyncCallback completes arguments on the calling goroutine.
//
// String parameters receive the argument value; an mcp.CompleteArgument
// parameter receives the whole argument.
type SyncCallback struct{ *core }

var _ Handler = (*SyncCallback)(nil)

// NewSync binds decl.Method on bean.
func NewSync(bean any, decl Declaration, opts ...Option) (*SyncCallback, error) {
	c, err := newCore(bean, decl, syncFlavour, opts)
	if err != nil {
		return nil, err
	}
	return &SyncCallback{c}, nil
}

// NewSyncFunc binds a plain func; decl.Method is used as its name.
func NewSyncFunc(fn any, decl Declaration, opts ...Option) (*SyncCallback, error) {
	target, err := binding.FuncOf(fn, decl.Method)
	if err != nil {
		return nil, err
	}
	c, err := newCoreFor(target, decl, syncFlavour, opts)
	if err != nil {
		return nil, err
	}
	return &SyncCallback{c}, nil
}

// Call completes req. Failures are returned as *MethodError.
func (cb *SyncCallback) Call(ctx context.Context, session sessions.Session, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	return cb.call(ctx, session, nil, req)
}

func (cb *SyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return cb.Call(ctx, session, req)
}

// StatelessSyncCallback is the SyncCallback for servers without sessions.
type StatelessSyncCallback struct{ *core }

var _ Handler = (*StatelessSyncCallback)(nil)

// NewStatelessSync binds decl.Method on bean.
func NewStatelessSync(bean any, decl Declaration, opts ...Option) (*StatelessSyncCallback, error) {
	c, err := newCore(bean, decl, statelessSyncFlavour, opts)
	if err != nil {
		return nil, err
	}
	return &StatelessSyncCallback{c}, nil
}

func (cb *StatelessSyncCallback) Call(ctx context.Context, tc sessions.TransportContext, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if tc == nil {
		tc = sessions.EmptyTransportContext
	}
	return cb.call(ctx, nil, tc, req)
}

func (cb *StatelessSyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return cb.Call(ctx, transportFor(ctx, session), req)
}

func transportFor(ctx context.Context, session sessions.Session) sessions.TransportContext {
	if session != nil {
		return session.TransportContext()
	}
	return sessions.TransportContextFrom(ctx)
}
