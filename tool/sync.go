package tool

import (
	"context"

	"github.com/ggoodman/mcp-methods-go/binding"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// Handler is the uniform shape tool registries dispatch to, regardless of
// the callback variant behind it.
type Handler interface {
	Tool() mcp.Tool
	Handle(ctx context.Context, session sessions.Session, req *mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// SyncCallback invokes a method on the calling goroutine.
//
// Accepted parameters: context.Context, sessions.Session,
// sessions.TransportContext, *reqctx.RequestContext, mcp.ProgressToken,
// mcp.Meta, *mcp.CallToolRequest and payload parameters. The method may
// return any value, optionally followed by an error.
type SyncCallback struct{ c *core }

var _ Handler = (*SyncCallback)(nil)

// NewSync binds decl.Method on bean.
func NewSync(bean any, decl Declaration, opts ...Option) (*SyncCallback, error) {
	c, err := newCore(bean, decl, syncFlavour, opts)
	if err != nil {
		return nil, err
	}
	return &SyncCallback{c: c}, nil
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
	return &SyncCallback{c: c}, nil
}

// Tool returns the tool descriptor.
func (cb *SyncCallback) Tool() mcp.Tool { return cb.c.tool }

// Mode returns the resolved return mode.
func (cb *SyncCallback) Mode() ReturnMode { return cb.c.mode }

// Call invokes the method for req.
func (cb *SyncCallback) Call(ctx context.Context, session sessions.Session, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	return cb.c.call(ctx, session, nil, req)
}

func (cb *SyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return cb.Call(ctx, session, req)
}

// StatelessSyncCallback is the SyncCallback for servers without sessions.
// Methods receive a sessions.TransportContext in place of the session and
// may not declare session or request context parameters.
type StatelessSyncCallback struct{ c *core }

var _ Handler = (*StatelessSyncCallback)(nil)

// NewStatelessSync binds decl.Method on bean.
func NewStatelessSync(bean any, decl Declaration, opts ...Option) (*StatelessSyncCallback, error) {
	c, err := newCore(bean, decl, statelessSyncFlavour, opts)
	if err != nil {
		return nil, err
	}
	return &StatelessSyncCallback{c: c}, nil
}

func (cb *StatelessSyncCallback) Tool() mcp.Tool { return cb.c.tool }

func (cb *StatelessSyncCallback) Mode() ReturnMode { return cb.c.mode }

// Call invokes the method for req. A nil tc binds an empty transport context.
func (cb *StatelessSyncCallback) Call(ctx context.Context, tc sessions.TransportContext, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if tc == nil {
		tc = sessions.EmptyTransportContext
	}
	return cb.c.call(ctx, nil, tc, req)
}

// Handle uses the session's transport context when a session is present and
// the one carried by ctx otherwise.
func (cb *StatelessSyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return cb.Call(ctx, transportFor(ctx, session), req)
}

func transportFor(ctx context.Context, session sessions.Session) sessions.TransportContext {
	if session != nil {
		return session.TransportContext()
	}
	return sessions.TransportContextFrom(ctx)
}
