package mcpservice

import (
	"context"

	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// ServerCapabilities is the surface a transport consults to serve a session.
//
// Capability discovery methods return (cap, ok, err). A false ok indicates
// that the capability is not supported for the given session; err is
// reserved for failures while determining support.
type ServerCapabilities interface {
	// GetServerInfo returns the implementation information surfaced in
	// initialize results.
	GetServerInfo(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error)

	// GetInstructions returns optional human-readable instructions for the
	// client. If ok is false, no instructions are sent.
	GetInstructions(ctx context.Context, session sessions.Session) (instructions string, ok bool, err error)

	// GetToolsCapability returns the tools capability for the session.
	GetToolsCapability(ctx context.Context, session sessions.Session) (cap ToolsCapability, ok bool, err error)

	// GetResourcesCapability returns the resources capability for the session.
	GetResourcesCapability(ctx context.Context, session sessions.Session) (cap ResourcesCapability, ok bool, err error)

	// GetCompletionsCapability returns the completions capability for the
	// session.
	GetCompletionsCapability(ctx context.Context, session sessions.Session) (cap CompletionsCapability, ok bool, err error)
}

// ToolsCapability defines the server's tools surface area. All methods MUST
// be safe for concurrent use.
type ToolsCapability interface {
	// ListTools returns a (possibly paginated) list of tools available to the
	// session. A nil cursor requests the first page.
	ListTools(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Tool], error)

	// CallTool invokes the named tool. Unknown tools yield an *mcp.Error with
	// mcp.CodeInvalidParams.
	CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequest) (*mcp.CallToolResult, error)

	// GetListChangedCapability returns an optional capability that delivers
	// tool list change callbacks. If ok is false, listChanged is not
	// advertised.
	GetListChangedCapability(ctx context.Context, session sessions.Session) (cap ToolListChangedCapability, ok bool, err error)
}

// NotifyToolsListChangedFunc is invoked when the server's tool list changes
// for the session. Implementations MAY coalesce rapid changes.
type NotifyToolsListChangedFunc func(ctx context.Context, session sessions.Session)

// ToolListChangedCapability provides tools list-changed notifications.
// Callbacks stop when ctx is canceled.
type ToolListChangedCapability interface {
	Register(ctx context.Context, session sessions.Session, fn NotifyToolsListChangedFunc) (ok bool, err error)
}

// ResourcesCapability defines the resource operations supported by the
// server. All methods MUST be safe for concurrent use.
type ResourcesCapability interface {
	// ListResources returns the concrete resources available to the session.
	ListResources(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Resource], error)

	// ListResourceTemplates returns the URI templates available to the
	// session.
	ListResourceTemplates(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.ResourceTemplate], error)

	// ReadResource reads req.URI. Unknown URIs yield an *mcp.Error with
	// mcp.CodeResourceNotFound.
	ReadResource(ctx context.Context, session sessions.Session, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)

	// GetListChangedCapability returns an optional capability delivering
	// resource list change callbacks.
	GetListChangedCapability(ctx context.Context, session sessions.Session) (cap ResourceListChangedCapability, ok bool, err error)
}

// NotifyResourceChangeFunc is invoked to signal that the server's resource
// set has changed for the session. An empty uri indicates a general list
// change.
type NotifyResourceChangeFunc func(ctx context.Context, session sessions.Session, uri string)

// ResourceListChangedCapability provides resource list-changed
// notifications.
type ResourceListChangedCapability interface {
	Register(ctx context.Context, session sessions.Session, fn NotifyResourceChangeFunc) (ok bool, err error)
}

// CompletionsCapability enables argument autocompletion for prompts and
// resource templates. Implementations MUST be safe for concurrent use.
type CompletionsCapability interface {
	// Complete returns completion suggestions for the provided request.
	Complete(ctx context.Context, session sessions.Session, req *mcp.CompleteRequest) (*mcp.CompleteResult, error)
}
