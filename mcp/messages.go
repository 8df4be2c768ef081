package mcp

import (
	"encoding/json"
	"fmt"
)

// Method is an MCP method identifier used in JSON-RPC messages.
type Method string

// MCP method names and notifications used by bound callbacks.
const (
	// Tools
	ToolsListMethod                    Method = "tools/list"
	ToolsCallMethod                    Method = "tools/call"
	ToolsListChangedNotificationMethod Method = "notifications/tools/list_changed"

	// Resources
	ResourcesReadMethod Method = "resources/read"

	// Logging
	LoggingMessageNotificationMethod Method = "notifications/message"

	// Sampling
	SamplingCreateMessageMethod Method = "sampling/createMessage"

	// Completion
	CompletionCompleteMethod Method = "completion/complete"

	// Roots
	RootsListMethod Method = "roots/list"

	// Elicitation
	ElicitationCreateMethod Method = "elicitation/create"

	// General
	PingMethod                 Method = "ping"
	ProgressNotificationMethod Method = "notifications/progress"
)

// BaseMetadata carries optional metadata for responses.
type BaseMetadata struct {
	Meta map[string]any `json:"_meta,omitempty"`
}

// ProgressNotificationParams conveys progress of a long-running operation.
type ProgressNotificationParams struct {
	ProgressToken ProgressToken `json:"progressToken"`
	Progress      float64       `json:"progress"`
	Total         float64       `json:"total,omitzero"`
	Message       string        `json:"message,omitzero"`
}

// Tools
// ListToolsResult returns the available tools.
type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitzero"`
	BaseMetadata
}

// CallToolRequest is the server-received representation for a tool call.
// Arguments are kept raw so each bound parameter can be decoded into its own
// Go type.
type CallToolRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Meta      Meta            `json:"_meta,omitempty"`
}

// NewCallToolRequest marshals args into a CallToolRequest. It panics if args
// cannot be encoded, which only happens for programmer errors such as
// channels or funcs in the map.
func NewCallToolRequest(name string, args map[string]any) *CallToolRequest {
	req := &CallToolRequest{Name: name}
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			panic(fmt.Sprintf("mcp: encoding tool arguments: %v", err))
		}
		req.Arguments = b
	}
	return req
}

// ProgressToken returns the progress token carried in the request metadata.
func (r *CallToolRequest) ProgressToken() ProgressToken {
	if r == nil {
		return nil
	}
	return r.Meta.ProgressToken()
}

// GetMeta returns the request metadata.
func (r *CallToolRequest) GetMeta() Meta {
	if r == nil {
		return nil
	}
	return r.Meta
}

// CallToolResult represents a tool invocation result.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitzero"`
	// StructuredContent contains a JSON value that conforms to the tool's
	// OutputSchema when provided.
	StructuredContent any `json:"structuredContent,omitempty"`
	BaseMetadata
}

// Resources
// ReadResourceRequest requests the contents of a resource by URI.
type ReadResourceRequest struct {
	URI  string `json:"uri"`
	Meta Meta   `json:"_meta,omitempty"`
}

// ProgressToken returns the progress token carried in the request metadata.
func (r *ReadResourceRequest) ProgressToken() ProgressToken {
	if r == nil {
		return nil
	}
	return r.Meta.ProgressToken()
}

// GetMeta returns the request metadata.
func (r *ReadResourceRequest) GetMeta() Meta {
	if r == nil {
		return nil
	}
	return r.Meta
}

// ReadResourceResult returns resource contents.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
	BaseMetadata
}

// Logging
// LoggingMessageNotification conveys a structured log message.
type LoggingMessageNotification struct {
	Level  LoggingLevel `json:"level"`
	Data   any          `json:"data"`
	Logger string       `json:"logger,omitzero"`
}

// Sampling
// CreateMessageRequest requests a model-generated message.
type CreateMessageRequest struct {
	Messages         []SamplingMessage `json:"messages"`
	ModelPreferences *ModelPreferences `json:"modelPreferences,omitempty"`
	SystemPrompt     string            `json:"systemPrompt,omitzero"`
	IncludeContext   string            `json:"includeContext,omitzero"`
	Temperature      float64           `json:"temperature,omitzero"`
	MaxTokens        int               `json:"maxTokens,omitzero"`
	StopSequences    []string          `json:"stopSequences,omitempty"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
	Meta             Meta              `json:"_meta,omitempty"`
}

// CreateMessageResult returns a generated message.
type CreateMessageResult struct {
	Role       Role         `json:"role"`
	Content    ContentBlock `json:"content"`
	Model      string       `json:"model"`
	StopReason string       `json:"stopReason,omitzero"`
	BaseMetadata
}

// Completion
// CompleteRequest requests completion suggestions for a reference.
type CompleteRequest struct {
	Ref      CompleteReference `json:"ref"`
	Argument CompleteArgument  `json:"argument"`
	Meta     Meta              `json:"_meta,omitempty"`
}

// ProgressToken returns the progress token carried in the request metadata.
func (r *CompleteRequest) ProgressToken() ProgressToken {
	if r == nil {
		return nil
	}
	return r.Meta.ProgressToken()
}

// GetMeta returns the request metadata.
func (r *CompleteRequest) GetMeta() Meta {
	if r == nil {
		return nil
	}
	return r.Meta
}

// CompleteResult contains completion suggestions.
type CompleteResult struct {
	Completion Completion `json:"completion"`
	BaseMetadata
}

// Roots
// ListRootsResult returns root entries.
type ListRootsResult struct {
	Roots []Root `json:"roots"`
	BaseMetadata
}

// Elicitation
// ElicitRequest asks for structured input per schema.
type ElicitRequest struct {
	Message         string            `json:"message"`
	RequestedSchema ElicitationSchema `json:"requestedSchema"`
}

// ElicitResult returns schema-conformant values.
type ElicitResult struct {
	Action  string         `json:"action"`
	Content map[string]any `json:"content,omitempty"`
	BaseMetadata
}

// Elicitation actions.
const (
	ElicitActionAccept  = "accept"
	ElicitActionDecline = "decline"
	ElicitActionCancel  = "cancel"
)
