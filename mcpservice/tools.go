package mcpservice

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/ggoodman/mcp-methods-go/internal/logctx"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
	"github.com/ggoodman/mcp-methods-go/tool"
)

// ToolsContainer owns a mutable, threadsafe set of bound tools and
// implements ToolsCapability over them. Mutations signal the embedded
// notifier, so the container also serves as a toolchanged.ToolSource.
type ToolsContainer struct {
	mu       sync.RWMutex
	tools    []mcp.Tool
	handlers map[string]tool.Handler

	notifier ChangeNotifier
	pageSize int
	log      *slog.Logger
}

var _ ToolsCapability = (*ToolsContainer)(nil)

// ContainerOption configures the containers in this package.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	pageSize int
	log      *slog.Logger
}

func newContainerConfig(opts []ContainerOption) containerConfig {
	cfg := containerConfig{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.log = logctx.Wrap(cfg.log)
	return cfg
}

// WithPageSize sets the list page size. Non-positive values are ignored.
func WithPageSize(n int) ContainerOption {
	return func(c *containerConfig) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithContainerLogger sets the logger used for dispatch diagnostics.
func WithContainerLogger(l *slog.Logger) ContainerOption {
	return func(c *containerConfig) { c.log = l }
}

// NewToolsContainer returns a container serving handlers.
func NewToolsContainer(handlers []tool.Handler, opts ...ContainerOption) *ToolsContainer {
	cfg := newContainerConfig(opts)
	tc := &ToolsContainer{pageSize: cfg.pageSize, log: cfg.log}
	tc.Replace(context.Background(), handlers...)
	return tc
}

// Snapshot returns a copy of the current tool descriptors.
func (tc *ToolsContainer) Snapshot() []mcp.Tool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return slices.Clone(tc.tools)
}

// Replace atomically replaces the entire tool set. On duplicate names the
// last handler wins.
func (tc *ToolsContainer) Replace(_ context.Context, handlers ...tool.Handler) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.tools = make([]mcp.Tool, 0, len(handlers))
	tc.handlers = make(map[string]tool.Handler, len(handlers))
	for _, h := range handlers {
		t := h.Tool()
		if _, dup := tc.handlers[t.Name]; dup {
			tc.tools = slices.DeleteFunc(tc.tools, func(x mcp.Tool) bool { return x.Name == t.Name })
		}
		tc.tools = append(tc.tools, t)
		tc.handlers[t.Name] = h
	}
	go func() { _ = tc.notifier.Notify(context.Background()) }()
}

// Add registers h unless a tool with the same name exists. It reports
// whether the tool was added.
func (tc *ToolsContainer) Add(_ context.Context, h tool.Handler) bool {
	t := h.Tool()
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if _, exists := tc.handlers[t.Name]; exists {
		return false
	}
	tc.tools = append(tc.tools, t)
	tc.handlers[t.Name] = h
	go func() { _ = tc.notifier.Notify(context.Background()) }()
	return true
}

// Remove removes a tool by name and reports whether it was present.
func (tc *ToolsContainer) Remove(_ context.Context, name string) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if _, exists := tc.handlers[name]; !exists {
		return false
	}
	delete(tc.handlers, name)
	tc.tools = slices.DeleteFunc(tc.tools, func(t mcp.Tool) bool { return t.Name == name })
	go func() { _ = tc.notifier.Notify(context.Background()) }()
	return true
}

// Subscriber implements ChangeSubscriber.
func (tc *ToolsContainer) Subscriber() <-chan struct{} { return tc.notifier.Subscriber() }

// Close stops change notifications.
func (tc *ToolsContainer) Close() { tc.notifier.Close() }

// ListTools implements ToolsCapability.
func (tc *ToolsContainer) ListTools(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Tool], error) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return pageSlice(tc.tools, cursor, tc.pageSize), nil
}

// CallTool implements ToolsCapability.
func (tc *ToolsContainer) CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req == nil || req.Name == "" {
		return nil, mcp.NewError(mcp.CodeInvalidParams, "invalid tool request: missing name")
	}
	tc.mu.RLock()
	h := tc.handlers[req.Name]
	tc.mu.RUnlock()
	if h == nil {
		tc.log.DebugContext(ctx, "tools.call.unknown", slog.String("tool", req.Name))
		return nil, mcp.NewError(mcp.CodeInvalidParams, "tool not found: %s", req.Name)
	}
	return h.Handle(ctx, session, req)
}

// GetListChangedCapability always reports listChanged support.
func (tc *ToolsContainer) GetListChangedCapability(ctx context.Context, session sessions.Session) (ToolListChangedCapability, bool, error) {
	return toolsListChanged{sub: tc}, true, nil
}
