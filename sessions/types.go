package sessions

import (
	"context"

	"github.com/ggoodman/mcp-methods-go/mcp"
)

// Session represents a negotiated MCP session and exposes optional
// per-session capabilities. It is the exchange handed to bound methods that
// declare a Session parameter. Implementations MUST be safe for concurrent use.
type Session interface {
	SessionID() string
	UserID() string
	// ProtocolVersion is the negotiated MCP protocol version baked into the session.
	ProtocolVersion() string
	ClientInfo() ClientInfo
	ClientCapabilities() mcp.ClientCapabilities
	// TransportContext exposes transport metadata (headers, auth claims, ...)
	// captured when the request was received. It never returns nil.
	TransportContext() TransportContext

	GetSamplingCapability() (cap SamplingCapability, ok bool)
	GetRootsCapability() (cap RootsCapability, ok bool)
	GetElicitationCapability() (cap ElicitationCapability, ok bool)

	// Notify sends a server-to-client notification on this session.
	Notify(ctx context.Context, method mcp.Method, params any) error
	// Ping round-trips a ping request to the client.
	Ping(ctx context.Context) error
}

// ClientInfo identifies the client connecting to the server.
type ClientInfo struct {
	Name    string
	Version string
}

// SamplingCapability when present on a session, enables the sampling surface area.
type SamplingCapability interface {
	CreateMessage(ctx context.Context, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error)
}

// RootsCapability when present, exposes workspace roots.
type RootsCapability interface {
	ListRoots(ctx context.Context) (*mcp.ListRootsResult, error)
}

// ElicitationCapability when present, lets the server ask the user for
// structured input described by a flat object schema.
type ElicitationCapability interface {
	Elicit(ctx context.Context, req *mcp.ElicitRequest) (*mcp.ElicitResult, error)
}
