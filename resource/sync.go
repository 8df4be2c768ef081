package resource

import (
	"context"

	"github.com/ggoodman/mcp-methods-go/binding"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// Handler is the uniform shape resource registries dispatch to.
type Handler interface {
	// IsTemplate reports whether the handler serves a URI template.
	IsTemplate() bool
	// Resource describes a concrete resource. Only meaningful when
	// IsTemplate is false.
	Resource() mcp.Resource
	// Template describes a resource template. Only meaningful when
	// IsTemplate is true.
	Template() mcp.ResourceTemplate
	// Matches reports whether the handler serves uri.
	Matches(uri string) bool
	Handle(ctx context.Context, session sessions.Session, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)
}

// SyncCallback reads a resource on the calling goroutine.
//
// String parameters receive URI template variables in template order. A
// method for a concrete URI may take one string parameter, which receives
// the request URI. Failures are returned as *mcp.Error with
// mcp.CodeInvalidParams.
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

func (cb *SyncCallback) Resource() mcp.Resource { return cb.resource() }

func (cb *SyncCallback) Template() mcp.ResourceTemplate { return cb.template() }

func (cb *SyncCallback) Matches(uri string) bool { return cb.matches(uri) }

// Call reads the resource for req.
func (cb *SyncCallback) Call(ctx context.Context, session sessions.Session, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	return cb.call(ctx, session, nil, req)
}

func (cb *SyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
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

func (cb *StatelessSyncCallback) Resource() mcp.Resource { return cb.resource() }

func (cb *StatelessSyncCallback) Template() mcp.ResourceTemplate { return cb.template() }

func (cb *StatelessSyncCallback) Matches(uri string) bool { return cb.matches(uri) }

// Call reads the resource for req. A nil tc binds an empty transport context.
func (cb *StatelessSyncCallback) Call(ctx context.Context, tc sessions.TransportContext, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if tc == nil {
		tc = sessions.EmptyTransportContext
	}
	return cb.call(ctx, nil, tc, req)
}

func (cb *StatelessSyncCallback) Handle(ctx context.Context, session sessions.Session, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return cb.Call(ctx, transportFor(ctx, session), req)
}

func transportFor(ctx context.Context, session sessions.Session) sessions.TransportContext {
	if session != nil {
		return session.TransportContext()
	}
	return sessions.TransportContextFrom(ctx)
}
