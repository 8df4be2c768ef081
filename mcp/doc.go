// Package mcp contains the protocol data types bound methods consume and
// produce. It mirrors the wire representation specified by the Model Context
// Protocol while keeping the surface Go-friendly (exported structs with json
// tags, string constants for method names and enumerations).
//
// Two types have a special role in method binding: a parameter declared as
// ProgressToken receives the progress token of the request being served, and
// a parameter declared as Meta receives the request's _meta object.
//
// Example (tool result construction):
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "hello"}},
//	}
//
// Error is the protocol-level error value. Resource callbacks surface failures
// as *Error with CodeInvalidParams so transports can relay them unchanged.
package mcp
