package gosdk

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/mcpservice"
	"github.com/ggoodman/mcp-methods-go/provider"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// Option configures NewServer and ToolListChangedHandler.
type Option func(*config)

type config struct {
	log  *slog.Logger
	opts *sdk.ServerOptions
}

func newConfig(opts []Option) config {
	cfg := config{log: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithServerOptions passes options through to sdk.NewServer. Its
// CompletionHandler is replaced when the assembly has completions.
func WithServerOptions(o *sdk.ServerOptions) Option {
	return func(c *config) { c.opts = o }
}

// Server mirrors an assembly's containers onto an SDK server.
type Server struct {
	srv         *sdk.Server
	tools       *mcpservice.ToolsContainer
	resources   *mcpservice.ResourcesContainer
	completions *mcpservice.CompletionsContainer
	log         *slog.Logger

	mu        sync.Mutex
	toolNames []string
	uris      []string
	templates []string
}

// NewServer creates an SDK server for a and registers the current tools and
// resources. Any of the assembly's containers may be nil.
func NewServer(impl *sdk.Implementation, a *provider.Assembly, opts ...Option) *Server {
	cfg := newConfig(opts)
	s := &Server{
		tools:       a.Tools,
		resources:   a.Resources,
		completions: a.Completions,
		log:         cfg.log,
	}
	var so sdk.ServerOptions
	if cfg.opts != nil {
		so = *cfg.opts
	}
	if s.completions != nil && len(s.completions.References()) > 0 {
		so.CompletionHandler = s.complete
	}
	s.srv = sdk.NewServer(impl, &so)
	s.Sync(context.Background())
	return s
}

// SDK returns the underlying server for running transports.
func (s *Server) SDK() *sdk.Server { return s.srv }

// Sync reconciles the SDK registrations with the containers. The SDK sends
// list changed notifications to connected clients for each change.
func (s *Server) Sync(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tools != nil {
		s.syncTools(ctx)
	}
	if s.resources != nil {
		s.syncResources(ctx)
	}
}

func (s *Server) syncTools(ctx context.Context) {
	snapshot := s.tools.Snapshot()
	names := make([]string, 0, len(snapshot))
	for _, t := range snapshot {
		var st sdk.Tool
		if err := remarshal(t, &st); err != nil {
			s.log.WarnContext(ctx, "gosdk.sync.tool_skipped", slog.String("tool", t.Name), slog.String("err", err.Error()))
			continue
		}
		s.srv.AddTool(&st, s.callTool)
		names = append(names, t.Name)
	}
	s.srv.RemoveTools(stale(s.toolNames, names)...)
	s.toolNames = names
}

func (s *Server) syncResources(ctx context.Context) {
	var uris, templates []string
	for r, err := range pages(ctx, s.resources.ListResources) {
		if err != nil {
			s.log.WarnContext(ctx, "gosdk.sync.resources_failed", slog.String("err", err.Error()))
			return
		}
		var sr sdk.Resource
		if err := remarshal(r, &sr); err != nil {
			s.log.WarnContext(ctx, "gosdk.sync.resource_skipped", slog.String("uri", r.URI), slog.String("err", err.Error()))
			continue
		}
		s.srv.AddResource(&sr, s.readResource)
		uris = append(uris, r.URI)
	}
	for t, err := range pages(ctx, s.resources.ListResourceTemplates) {
		if err != nil {
			s.log.WarnContext(ctx, "gosdk.sync.resources_failed", slog.String("err", err.Error()))
			return
		}
		var st sdk.ResourceTemplate
		if err := remarshal(t, &st); err != nil {
			s.log.WarnContext(ctx, "gosdk.sync.template_skipped", slog.String("template", t.URITemplate), slog.String("err", err.Error()))
			continue
		}
		s.srv.AddResourceTemplate(&st, s.readResource)
		templates = append(templates, t.URITemplate)
	}
	s.srv.RemoveResources(stale(s.uris, uris)...)
	s.srv.RemoveResourceTemplates(stale(s.templates, templates)...)
	s.uris, s.templates = uris, templates
}

// Watch re-syncs whenever a container changes, until ctx is done or both
// containers are closed.
func (s *Server) Watch(ctx context.Context) error {
	var toolsCh, resourcesCh <-chan struct{}
	if s.tools != nil {
		toolsCh = s.tools.Subscriber()
	}
	if s.resources != nil {
		resourcesCh = s.resources.Subscriber()
	}
	for toolsCh != nil || resourcesCh != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-toolsCh:
			if !ok {
				toolsCh = nil
				continue
			}
		case _, ok := <-resourcesCh:
			if !ok {
				resourcesCh = nil
				continue
			}
		}
		s.Sync(ctx)
	}
	return nil
}

func (s *Server) callTool(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
	session := NewSession(req.Session, req.Extra)
	ctx = sessions.WithTransportContext(ctx, session.TransportContext())
	in := &mcp.CallToolRequest{Name: req.Params.Name, Arguments: req.Params.Arguments, Meta: mcp.Meta(req.Params.Meta)}
	res, err := s.tools.CallTool(ctx, session, in)
	if err != nil {
		return nil, err
	}
	var out sdk.CallToolResult
	if err := remarshal(res, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Server) readResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	session := NewSession(req.Session, req.Extra)
	ctx = sessions.WithTransportContext(ctx, session.TransportContext())
	in := &mcp.ReadResourceRequest{URI: req.Params.URI, Meta: mcp.Meta(req.Params.Meta)}
	res, err := s.resources.ReadResource(ctx, session, in)
	if err != nil {
		var me *mcp.Error
		if errors.As(err, &me) && me.Code == mcp.CodeResourceNotFound {
			return nil, sdk.ResourceNotFoundError(in.URI)
		}
		return nil, err
	}
	var out sdk.ReadResourceResult
	if err := remarshal(res, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Server) complete(ctx context.Context, req *sdk.CompleteRequest) (*sdk.CompleteResult, error) {
	p := req.Params
	in := &mcp.CompleteRequest{
		Argument: mcp.CompleteArgument{Name: p.Argument.Name, Value: p.Argument.Value},
		Meta:     mcp.Meta(p.Meta),
	}
	if p.Ref != nil {
		in.Ref = mcp.CompleteReference{Type: p.Ref.Type, Name: p.Ref.Name, URI: p.Ref.URI}
	}
	session := NewSession(req.Session, req.Extra)
	res, err := s.completions.Complete(sessions.WithTransportContext(ctx, session.TransportContext()), session, in)
	if err != nil {
		return nil, err
	}
	return &sdk.CompleteResult{Completion: sdk.CompletionResultDetails{
		Values:  res.Completion.Values,
		Total:   res.Completion.Total,
		HasMore: res.Completion.HasMore,
	}}, nil
}

// pages walks every page of a container listing.
func pages[T any](ctx context.Context, list func(context.Context, sessions.Session, *string) (mcpservice.Page[T], error)) func(yield func(T, error) bool) {
	return func(yield func(T, error) bool) {
		var cursor *string
		for {
			page, err := list(ctx, nil, cursor)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
			if page.NextCursor == nil {
				return
			}
			cursor = page.NextCursor
		}
	}
}

// stale returns the entries of prev missing from cur.
func stale(prev, cur []string) []string {
	keep := make(map[string]struct{}, len(cur))
	for _, c := range cur {
		keep[c] = struct{}{}
	}
	var out []string
	for _, p := range prev {
		if _, ok := keep[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
