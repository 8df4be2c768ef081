// Package mcpservice exposes bound methods as MCP server capabilities.
//
// Containers hold the callbacks built by the tool, resource and complete
// packages and dispatch protocol requests to them:
//
//	tools := mcpservice.NewToolsContainer(echoTool, sumTool)
//	res := mcpservice.NewResourcesContainer(readme, userProfile)
//	comps := mcpservice.NewCompletionsContainer(cityCompleter)
//
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "example", Version: "1.0.0"}),
//	    mcpservice.WithToolsCapability(tools),
//	    mcpservice.WithResourcesCapability(res),
//	    mcpservice.WithCompletionsCapability(comps),
//	)
//
// Per-session capabilities are supported through the With*Provider options.
// Containers are safe for concurrent use; mutations signal their
// ChangeNotifier so list-changed notifications reach registered sessions.
package mcpservice
