package gosdk

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ggoodman/mcp-methods-go/mcp"
)

// PublishFunc receives a server's updated tool list. Both
// (*toolchanged.Dispatcher).Dispatch and (*toolchanged.Relay).Publish fit.
type PublishFunc func(ctx context.Context, clientID string, tools []mcp.Tool) error

// ToolListChangedHandler returns a hook for sdk.ClientOptions that fetches
// the full tool list from the notifying server and hands it to publish under
// clientID.
//
// The list is fetched on a separate goroutine because the SDK delivers
// notifications on the connection's read loop.
func ToolListChangedHandler(clientID string, publish PublishFunc, opts ...Option) func(context.Context, *sdk.ToolListChangedRequest) {
	cfg := newConfig(opts)
	return func(ctx context.Context, req *sdk.ToolListChangedRequest) {
		ctx = context.WithoutCancel(ctx)
		go func() {
			tools, err := ListTools(ctx, req.Session)
			if err != nil {
				cfg.log.WarnContext(ctx, "gosdk.tools_changed.list_failed", slog.String("client", clientID), slog.String("err", err.Error()))
				return
			}
			if err := publish(ctx, clientID, tools); err != nil {
				cfg.log.WarnContext(ctx, "gosdk.tools_changed.publish_failed", slog.String("client", clientID), slog.String("err", err.Error()))
			}
		}()
	}
}

// ListTools collects every page of the server's tools.
func ListTools(ctx context.Context, cs *sdk.ClientSession) ([]mcp.Tool, error) {
	tools := []mcp.Tool{}
	for t, err := range cs.Tools(ctx, nil) {
		if err != nil {
			return nil, err
		}
		var mt mcp.Tool
		if err := remarshal(t, &mt); err != nil {
			return nil, err
		}
		tools = append(tools, mt)
	}
	return tools, nil
}
