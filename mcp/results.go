package mcp

import "fmt"

// TextResult is a small helper to build a text CallToolResult.
func TextResult(s string) *CallToolResult {
	return &CallToolResult{Content: []ContentBlock{{Type: ContentTypeText, Text: s}}}
}

// ErrorResult returns an error CallToolResult with a single text block and IsError=true.
func ErrorResult(format string, a ...any) *CallToolResult {
	msg := fmt.Sprintf(format, a...)
	return &CallToolResult{Content: []ContentBlock{{Type: ContentTypeText, Text: msg}}, IsError: true}
}

// StructuredResult returns a CallToolResult carrying only structured content.
func StructuredResult(v any) *CallToolResult {
	return &CallToolResult{Content: []ContentBlock{}, StructuredContent: v}
}
