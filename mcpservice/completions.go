package mcpservice

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ggoodman/mcp-methods-go/complete"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// CompletionsContainer routes completion requests to the callback bound to
// the referenced prompt or resource template.
type CompletionsContainer struct {
	mu       sync.RWMutex
	handlers map[mcp.CompleteReference]complete.Handler
	log      *slog.Logger
}

var _ CompletionsCapability = (*CompletionsContainer)(nil)

// NewCompletionsContainer returns a container serving handlers. On duplicate
// references the last handler wins.
func NewCompletionsContainer(handlers []complete.Handler, opts ...ContainerOption) *CompletionsContainer {
	cfg := newContainerConfig(opts)
	cc := &CompletionsContainer{handlers: make(map[mcp.CompleteReference]complete.Handler, len(handlers)), log: cfg.log}
	for _, h := range handlers {
		cc.handlers[h.Reference()] = h
	}
	return cc
}

// Add registers h unless its reference is already served.
func (cc *CompletionsContainer) Add(h complete.Handler) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	ref := h.Reference()
	if _, exists := cc.handlers[ref]; exists {
		return false
	}
	cc.handlers[ref] = h
	return true
}

// References returns the references with a bound completion callback.
func (cc *CompletionsContainer) References() []mcp.CompleteReference {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	out := make([]mcp.CompleteReference, 0, len(cc.handlers))
	for ref := range cc.handlers {
		out = append(out, ref)
	}
	return out
}

// Complete implements CompletionsCapability.
func (cc *CompletionsContainer) Complete(ctx context.Context, session sessions.Session, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	if req == nil {
		return nil, mcp.NewError(mcp.CodeInvalidParams, "invalid completion request")
	}
	ref := normalize(req.Ref)
	cc.mu.RLock()
	h := cc.handlers[ref]
	cc.mu.RUnlock()
	if h == nil {
		cc.log.DebugContext(ctx, "completions.unknown_ref", slog.String("type", ref.Type), slog.String("ref", ref.Identifier()))
		return nil, mcp.NewError(mcp.CodeInvalidParams, "no completion handler for %s %q", ref.Type, ref.Identifier())
	}
	return h.Handle(ctx, session, req)
}

// normalize drops the field that does not belong to the reference type so
// map lookups ignore stray values sent by clients.
func normalize(ref mcp.CompleteReference) mcp.CompleteReference {
	switch ref.Type {
	case mcp.RefTypePrompt:
		return mcp.PromptReference(ref.Name)
	case mcp.RefTypeResource:
		return mcp.ResourceReference(ref.URI)
	}
	return ref
}
