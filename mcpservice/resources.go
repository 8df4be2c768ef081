package mcpservice

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/resource"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// ResourcesContainer serves bound resource callbacks. Reads match concrete
// URIs first and then templates in registration order.
type ResourcesContainer struct {
	mu        sync.RWMutex
	concrete  []resource.Handler
	templates []resource.Handler

	notifier ChangeNotifier
	pageSize int
	log      *slog.Logger
}

var _ ResourcesCapability = (*ResourcesContainer)(nil)

// NewResourcesContainer returns a container serving handlers.
func NewResourcesContainer(handlers []resource.Handler, opts ...ContainerOption) *ResourcesContainer {
	cfg := newContainerConfig(opts)
	rc := &ResourcesContainer{pageSize: cfg.pageSize, log: cfg.log}
	for _, h := range handlers {
		rc.add(h)
	}
	return rc
}

// key is the URI or URI template a handler is registered under.
func key(h resource.Handler) string {
	if h.IsTemplate() {
		return h.Template().URITemplate
	}
	return h.Resource().URI
}

func (rc *ResourcesContainer) add(h resource.Handler) bool {
	list := &rc.concrete
	if h.IsTemplate() {
		list = &rc.templates
	}
	k := key(h)
	if slices.ContainsFunc(*list, func(x resource.Handler) bool { return key(x) == k }) {
		return false
	}
	*list = append(*list, h)
	return true
}

// Add registers h unless its URI (or template) is already served. It
// reports whether the handler was added.
func (rc *ResourcesContainer) Add(_ context.Context, h resource.Handler) bool {
	rc.mu.Lock()
	added := rc.add(h)
	rc.mu.Unlock()
	if added {
		go func() { _ = rc.notifier.Notify(context.Background()) }()
	}
	return added
}

// Remove removes the handler registered under uri, which is a concrete URI
// or a URI template, and reports whether it was present.
func (rc *ResourcesContainer) Remove(_ context.Context, uri string) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	match := func(h resource.Handler) bool { return key(h) == uri }
	n := len(rc.concrete) + len(rc.templates)
	rc.concrete = slices.DeleteFunc(rc.concrete, match)
	rc.templates = slices.DeleteFunc(rc.templates, match)
	if len(rc.concrete)+len(rc.templates) == n {
		return false
	}
	go func() { _ = rc.notifier.Notify(context.Background()) }()
	return true
}

// Subscriber implements ChangeSubscriber.
func (rc *ResourcesContainer) Subscriber() <-chan struct{} { return rc.notifier.Subscriber() }

// Close stops change notifications.
func (rc *ResourcesContainer) Close() { rc.notifier.Close() }

// ListResources implements ResourcesCapability.
func (rc *ResourcesContainer) ListResources(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Resource], error) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	all := make([]mcp.Resource, len(rc.concrete))
	for i, h := range rc.concrete {
		all[i] = h.Resource()
	}
	return pageSlice(all, cursor, rc.pageSize), nil
}

// ListResourceTemplates implements ResourcesCapability.
func (rc *ResourcesContainer) ListResourceTemplates(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.ResourceTemplate], error) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	all := make([]mcp.ResourceTemplate, len(rc.templates))
	for i, h := range rc.templates {
		all[i] = h.Template()
	}
	return pageSlice(all, cursor, rc.pageSize), nil
}

// ReadResource implements ResourcesCapability.
func (rc *ResourcesContainer) ReadResource(ctx context.Context, session sessions.Session, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if req == nil || req.URI == "" {
		return nil, mcp.NewError(mcp.CodeInvalidParams, "invalid resource request: missing uri")
	}
	h := rc.lookup(req.URI)
	if h == nil {
		rc.log.DebugContext(ctx, "resources.read.unknown", slog.String("uri", req.URI))
		return nil, mcp.NewError(mcp.CodeResourceNotFound, "resource not found: %s", req.URI).WithData(map[string]any{"uri": req.URI})
	}
	return h.Handle(ctx, session, req)
}

func (rc *ResourcesContainer) lookup(uri string) resource.Handler {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	for _, h := range rc.concrete {
		if h.Matches(uri) {
			return h
		}
	}
	for _, h := range rc.templates {
		if h.Matches(uri) {
			return h
		}
	}
	return nil
}

// GetListChangedCapability always reports listChanged support.
func (rc *ResourcesContainer) GetListChangedCapability(ctx context.Context, session sessions.Session) (ResourceListChangedCapability, bool, error) {
	return resourcesListChanged{sub: rc}, true, nil
}
