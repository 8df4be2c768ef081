package mcp

import "fmt"

// Standard JSON-RPC error codes used by MCP.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeResourceNotFound is the MCP-specific code for unknown resources.
	CodeResourceNotFound = -32002
)

// Error is a protocol-level error. Transports serialize it verbatim as the
// JSON-RPC error object of the response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewError builds an Error with a formatted message.
func NewError(code int, format string, a ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// WithData returns a copy of e carrying data.
func (e *Error) WithData(data any) *Error {
	out := *e
	out.Data = data
	return &out
}
