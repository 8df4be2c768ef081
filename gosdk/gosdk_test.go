package gosdk

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ggoodman/mcp-methods-go/complete"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/provider"
	"github.com/ggoodman/mcp-methods-go/reqctx"
	"github.com/ggoodman/mcp-methods-go/resource"
	"github.com/ggoodman/mcp-methods-go/sessions"
	"github.com/ggoodman/mcp-methods-go/tool"
	"github.com/ggoodman/mcp-methods-go/toolchanged"
)

type weather struct {
	changes chan []mcp.Tool
}

func (w *weather) Forecast(city string) string { return "sunny in " + city }

func (w *weather) Caller(s sessions.Session) string {
	return s.ClientInfo().Name + "/" + s.ProtocolVersion()
}

func (w *weather) Summarize(ctx context.Context, rc *reqctx.RequestContext, city string) (string, error) {
	res, err := rc.Sample(ctx, "summarize "+city)
	if err != nil {
		return "", err
	}
	return res.Content.Text, nil
}

func (w *weather) Station(id string) string { return "station " + id }

func (w *weather) Cities(prefix string) []string {
	var out []string
	for _, c := range []string{"Paris", "Parma", "Oslo"} {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (w *weather) OnTools(tools []mcp.Tool) { w.changes <- tools }

func (w *weather) MCPTools() []tool.Declaration {
	return []tool.Declaration{
		{Method: "Forecast", Params: []string{"city"}},
		{Method: "Caller"},
		{Method: "Summarize", Params: []string{"city"}},
	}
}

func (w *weather) MCPResources() []resource.Declaration {
	return []resource.Declaration{{Method: "Station", URI: "weather://stations/{id}"}}
}

func (w *weather) MCPCompletions() []complete.Declaration {
	return []complete.Declaration{{Method: "Cities", Prompt: "cities"}}
}

func (w *weather) MCPToolListChanged() []toolchanged.Declaration {
	return []toolchanged.Declaration{{Method: "OnTools", Clients: []string{"upstream"}}}
}

func assemble(t *testing.T, w *weather) *provider.Assembly {
	t.Helper()
	a, err := provider.Assemble(provider.Config{Mode: provider.Sync, PageSize: 50}, []any{w})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return a
}

func connect(t *testing.T, srv *Server, opts *sdk.ClientOptions) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	ct, st := sdk.NewInMemoryTransports()
	ss, err := srv.SDK().Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })
	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v1.0.0"}, opts)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func text(t *testing.T, res *sdk.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content = %d blocks, want 1", len(res.Content))
	}
	tc, ok := res.Content[0].(*sdk.TextContent)
	if !ok {
		t.Fatalf("content = %T, want *TextContent", res.Content[0])
	}
	return tc.Text
}

func TestServer_Tools(t *testing.T) {
	ctx := context.Background()
	srv := NewServer(&sdk.Implementation{Name: "weather", Version: "v1"}, assemble(t, &weather{}))
	cs := connect(t, srv, nil)

	tools, err := ListTools(ctx, cs)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tl := range tools {
		names = append(names, tl.Name)
	}
	if diff := cmp.Diff([]string{"Caller", "Forecast", "Summarize"}, names); diff != "" {
		t.Fatalf("tool names mismatch (-want +got):\n%s", diff)
	}

	res, err := cs.CallTool(ctx, &sdk.CallToolParams{Name: "Forecast", Arguments: map[string]any{"city": "Oslo"}})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if got := text(t, res); got != "sunny in Oslo" {
		t.Fatalf("Forecast = %q", got)
	}

	res, err = cs.CallTool(ctx, &sdk.CallToolParams{Name: "Caller"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if got := text(t, res); !strings.HasPrefix(got, "test-client/") {
		t.Fatalf("Caller = %q, want test-client prefix", got)
	}
}

func TestServer_Sampling(t *testing.T) {
	ctx := context.Background()
	srv := NewServer(&sdk.Implementation{Name: "weather", Version: "v1"}, assemble(t, &weather{}))
	var token any
	cs := connect(t, srv, &sdk.ClientOptions{
		CreateMessageHandler: func(_ context.Context, req *sdk.CreateMessageRequest) (*sdk.CreateMessageResult, error) {
			token = req.Params.GetProgressToken()
			msg := req.Params.Messages[0].Content.(*sdk.TextContent).Text
			return &sdk.CreateMessageResult{Model: "test", Role: "assistant", Content: &sdk.TextContent{Text: "model says: " + msg}}, nil
		},
	})

	res, err := cs.CallTool(ctx, &sdk.CallToolParams{
		Meta:      sdk.Meta{"progressToken": "tok-1"},
		Name:      "Summarize",
		Arguments: map[string]any{"city": "Paris"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if got := text(t, res); got != "model says: summarize Paris" {
		t.Fatalf("Summarize = %q", got)
	}
	if token != "tok-1" {
		t.Fatalf("sampling progress token = %v, want tok-1", token)
	}
}

func TestServer_Resources(t *testing.T) {
	ctx := context.Background()
	srv := NewServer(&sdk.Implementation{Name: "weather", Version: "v1"}, assemble(t, &weather{}))
	cs := connect(t, srv, nil)

	res, err := cs.ReadResource(ctx, &sdk.ReadResourceParams{URI: "weather://stations/42"})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if len(res.Contents) != 1 || res.Contents[0].Text != "station 42" {
		t.Fatalf("contents = %+v", res.Contents)
	}

	if _, err := cs.ReadResource(ctx, &sdk.ReadResourceParams{URI: "weather://nowhere"}); err == nil {
		t.Fatal("expected not found error")
	}
}

func TestServer_Complete(t *testing.T) {
	ctx := context.Background()
	srv := NewServer(&sdk.Implementation{Name: "weather", Version: "v1"}, assemble(t, &weather{}))
	cs := connect(t, srv, nil)

	res, err := cs.Complete(ctx, &sdk.CompleteParams{
		Ref:      &sdk.CompleteReference{Type: mcp.RefTypePrompt, Name: "cities"},
		Argument: sdk.CompleteParamsArgument{Name: "prefix", Value: "Par"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if diff := cmp.Diff([]string{"Paris", "Parma"}, res.Completion.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_SyncRemovesTools(t *testing.T) {
	ctx := context.Background()
	a := assemble(t, &weather{})
	srv := NewServer(&sdk.Implementation{Name: "weather", Version: "v1"}, a)
	cs := connect(t, srv, nil)

	if !a.Tools.Remove(ctx, "Caller") {
		t.Fatal("Remove returned false")
	}
	srv.Sync(ctx)

	tools, err := ListTools(ctx, cs)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 2 {
		t.Fatalf("got %d tools after removal, want 2", len(tools))
	}
	if _, err := cs.CallTool(ctx, &sdk.CallToolParams{Name: "Caller"}); err == nil {
		t.Fatal("expected removed tool to fail")
	}
}

func TestToolListChangedHandler(t *testing.T) {
	ctx := context.Background()
	w := &weather{changes: make(chan []mcp.Tool, 4)}
	a := assemble(t, w)
	srv := NewServer(&sdk.Implementation{Name: "weather", Version: "v1"}, a)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	watched := make(chan error, 1)
	go func() { watched <- srv.Watch(watchCtx) }()

	connect(t, srv, &sdk.ClientOptions{
		ToolListChangedHandler: ToolListChangedHandler("upstream", a.Dispatcher.Dispatch),
	})

	a.Tools.Remove(ctx, "Summarize")
	// Watch may not have subscribed yet; a second Sync is a no-op otherwise.
	srv.Sync(ctx)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case tools := <-w.changes:
			if len(tools) == 2 {
				cancel()
				if err := <-watched; !errors.Is(err, context.Canceled) {
					t.Fatalf("Watch = %v, want context.Canceled", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for tool list change")
		}
	}
}

func TestNewSession_Capabilities(t *testing.T) {
	ctx := context.Background()
	srv := NewServer(&sdk.Implementation{Name: "weather", Version: "v1"}, assemble(t, &weather{}))
	ct, st := sdk.NewInMemoryTransports()
	ss, err := srv.SDK().Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v1.0.0"}, nil)
	client.AddRoots(&sdk.Root{URI: "file:///srv/weather", Name: "weather"})
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })

	sess := NewSession(ss, nil)
	caps := sess.ClientCapabilities()
	if caps.Sampling != nil || caps.Elicitation != nil {
		t.Fatalf("capabilities = %+v, want roots only", caps)
	}
	if caps.Roots == nil || !caps.Roots.ListChanged {
		t.Fatalf("roots capability = %+v, want listChanged", caps.Roots)
	}
	if _, ok := sess.GetSamplingCapability(); ok {
		t.Fatal("sampling reported without a handler")
	}
	rc, ok := sess.GetRootsCapability()
	if !ok {
		t.Fatal("roots not reported")
	}
	res, err := rc.ListRoots(ctx)
	if err != nil {
		t.Fatalf("ListRoots: %v", err)
	}
	if diff := cmp.Diff([]mcp.Root{{URI: "file:///srv/weather", Name: "weather"}}, res.Roots); diff != "" {
		t.Fatalf("roots mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSession_TransportContext(t *testing.T) {
	tc := headerContext(http.Header{"X-Tenant": {"acme", "ignored"}, "Empty": nil})
	want := sessions.MapTransportContext{"header.x-tenant": "acme"}
	if diff := cmp.Diff(want, tc); diff != "" {
		t.Fatalf("transport context mismatch (-want +got):\n%s", diff)
	}
}
