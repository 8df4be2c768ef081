// Package gosdk serves bound beans through the official MCP Go SDK
// (github.com/modelcontextprotocol/go-sdk).
//
// NewServer registers the tools, resources, and completions of a
// provider.Assembly on an SDK server and keeps the registrations in step with
// the containers as they change:
//
//	a, err := provider.Assemble(cfg, beans)
//	if err != nil { /* handle */ }
//	srv := gosdk.NewServer(&sdkmcp.Implementation{Name: "weather", Version: "v1"}, a)
//	go srv.Watch(ctx)
//	_ = srv.SDK().Run(ctx, &sdkmcp.StdioTransport{})
//
// Bound methods that declare a sessions.Session receive an adapter over the
// SDK's *ServerSession; sampling, roots, and elicitation requests travel back
// to the client through it.
//
// On the client side, ToolListChangedHandler plugs a toolchanged dispatcher
// or relay into sdkmcp.ClientOptions so list-changed consumer methods run
// whenever a connected server's tools change.
package gosdk
