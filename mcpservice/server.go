package mcpservice

import (
	"context"

	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// ServerOption configures a concrete ServerCapabilities implementation.
type ServerOption func(*server)

type server struct {
	staticInfo   *mcp.ImplementationInfo
	infoProvider func(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error)

	staticInstructions   *string
	instructionsProvider func(ctx context.Context, session sessions.Session) (string, bool, error)

	staticToolsCap ToolsCapability
	toolsProvider  func(ctx context.Context, session sessions.Session) (ToolsCapability, bool, error)

	staticResourcesCap ResourcesCapability
	resourcesProvider  func(ctx context.Context, session sessions.Session) (ResourcesCapability, bool, error)

	staticCompletionsCap CompletionsCapability
	completionsProvider  func(ctx context.Context, session sessions.Session) (CompletionsCapability, bool, error)
}

// NewServer builds a ServerCapabilities using functional options. Providers
// take precedence over static values.
func NewServer(opts ...ServerOption) ServerCapabilities {
	s := &server{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithServerInfo sets a static server info value.
func WithServerInfo(info mcp.ImplementationInfo) ServerOption {
	return func(s *server) { s.staticInfo = &info }
}

// WithServerInfoProvider sets a provider for per-session server info.
func WithServerInfoProvider(fn func(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error)) ServerOption {
	return func(s *server) { s.infoProvider = fn }
}

// WithInstructions sets static instructions returned during initialize.
func WithInstructions(instr string) ServerOption {
	return func(s *server) { s.staticInstructions = &instr }
}

// WithInstructionsProvider sets a per-session provider for instructions.
func WithInstructionsProvider(fn func(ctx context.Context, session sessions.Session) (string, bool, error)) ServerOption {
	return func(s *server) { s.instructionsProvider = fn }
}

// WithToolsCapability wires a ToolsCapability used for all sessions.
func WithToolsCapability(cap ToolsCapability) ServerOption {
	return func(s *server) { s.staticToolsCap = cap }
}

// WithToolsProvider wires a per-session tools capability provider.
func WithToolsProvider(fn func(ctx context.Context, session sessions.Session) (ToolsCapability, bool, error)) ServerOption {
	return func(s *server) { s.toolsProvider = fn }
}

// WithResourcesCapability wires a ResourcesCapability used for all sessions.
func WithResourcesCapability(cap ResourcesCapability) ServerOption {
	return func(s *server) { s.staticResourcesCap = cap }
}

// WithResourcesProvider wires a per-session resources capability provider.
func WithResourcesProvider(fn func(ctx context.Context, session sessions.Session) (ResourcesCapability, bool, error)) ServerOption {
	return func(s *server) { s.resourcesProvider = fn }
}

// WithCompletionsCapability wires a CompletionsCapability used for all
// sessions.
func WithCompletionsCapability(cap CompletionsCapability) ServerOption {
	return func(s *server) { s.staticCompletionsCap = cap }
}

// WithCompletionsProvider wires a per-session completions capability
// provider.
func WithCompletionsProvider(fn func(ctx context.Context, session sessions.Session) (CompletionsCapability, bool, error)) ServerOption {
	return func(s *server) { s.completionsProvider = fn }
}

func (s *server) GetServerInfo(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error) {
	if s.infoProvider != nil {
		return s.infoProvider(ctx, session)
	}
	if s.staticInfo != nil {
		return *s.staticInfo, nil
	}
	return mcp.ImplementationInfo{}, nil
}

func (s *server) GetInstructions(ctx context.Context, session sessions.Session) (string, bool, error) {
	if s.instructionsProvider != nil {
		return s.instructionsProvider(ctx, session)
	}
	if s.staticInstructions != nil {
		return *s.staticInstructions, true, nil
	}
	return "", false, nil
}

func (s *server) GetToolsCapability(ctx context.Context, session sessions.Session) (ToolsCapability, bool, error) {
	return resolve(ctx, session, s.toolsProvider, s.staticToolsCap)
}

func (s *server) GetResourcesCapability(ctx context.Context, session sessions.Session) (ResourcesCapability, bool, error) {
	return resolve(ctx, session, s.resourcesProvider, s.staticResourcesCap)
}

func (s *server) GetCompletionsCapability(ctx context.Context, session sessions.Session) (CompletionsCapability, bool, error) {
	return resolve(ctx, session, s.completionsProvider, s.staticCompletionsCap)
}

// resolve prefers the per-session provider, then the static capability.
func resolve[C comparable](ctx context.Context, session sessions.Session, provider func(context.Context, sessions.Session) (C, bool, error), static C) (C, bool, error) {
	if provider != nil {
		return provider(ctx, session)
	}
	var zero C
	if static != zero {
		return static, true, nil
	}
	return zero, false, nil
}
