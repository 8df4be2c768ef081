package mcpservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ggoodman/mcp-methods-go/complete"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/resource"
	"github.com/ggoodman/mcp-methods-go/sessions"
	"github.com/ggoodman/mcp-methods-go/sessions/sessiontest"
	"github.com/ggoodman/mcp-methods-go/tool"
)

type weather struct{}

func (weather) Forecast(city string) string { return "sunny in " + city }

func (weather) Station(id string) string { return "station " + id }

func (weather) About() string { return "weather service" }

func (weather) Cities(prefix string) []string {
	var out []string
	for _, c := range []string{"Lisbon", "London", "Lyon"} {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func newTool(t *testing.T, name string) tool.Handler {
	t.Helper()
	cb, err := tool.NewSync(weather{}, tool.Declaration{Method: "Forecast", Name: name, Params: []string{"city"}})
	if err != nil {
		t.Fatalf("tool.NewSync: %v", err)
	}
	return cb
}

func newResource(t *testing.T, method, uri string) resource.Handler {
	t.Helper()
	cb, err := resource.NewSync(weather{}, resource.Declaration{Method: method, URI: uri})
	if err != nil {
		t.Fatalf("resource.NewSync: %v", err)
	}
	return cb
}

func toolNames(ts []mcp.Tool) []string {
	out := make([]string, len(ts))
	for i, tl := range ts {
		out[i] = tl.Name
	}
	return out
}

func TestPageSlice(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}
	cursor := func(s string) *string { return &s }

	p := pageSlice(all, nil, 2)
	if diff := cmp.Diff([]int{1, 2}, p.Items); diff != "" || p.NextCursor == nil || *p.NextCursor != "2" {
		t.Fatalf("first page = %v next=%v", p.Items, p.NextCursor)
	}
	p = pageSlice(all, cursor("4"), 2)
	if diff := cmp.Diff([]int{5}, p.Items); diff != "" || p.NextCursor != nil {
		t.Fatalf("last page = %v next=%v", p.Items, p.NextCursor)
	}
	for _, bad := range []string{"x", "-1", "99"} {
		p = pageSlice(all, cursor(bad), 2)
		if diff := cmp.Diff([]int{1, 2}, p.Items); diff != "" {
			t.Fatalf("cursor %q: items %v", bad, p.Items)
		}
	}
	if p := pageSlice[int](nil, nil, 0); p.Items == nil || len(p.Items) != 0 {
		t.Fatalf("empty page items = %#v", p.Items)
	}
}

func TestToolsContainer(t *testing.T) {
	ctx := context.Background()
	tc := NewToolsContainer([]tool.Handler{newTool(t, "forecast"), newTool(t, "outlook")}, WithPageSize(1))
	sess := sessiontest.New("s1")

	page, err := tc.ListTools(ctx, sess, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if diff := cmp.Diff([]string{"forecast"}, toolNames(page.Items)); diff != "" || page.NextCursor == nil {
		t.Fatalf("first page mismatch: %s next=%v", diff, page.NextCursor)
	}
	page, err = tc.ListTools(ctx, sess, page.NextCursor)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if diff := cmp.Diff([]string{"outlook"}, toolNames(page.Items)); diff != "" || page.NextCursor != nil {
		t.Fatalf("second page mismatch: %s", diff)
	}

	res, err := tc.CallTool(ctx, sess, mcp.NewCallToolRequest("forecast", map[string]any{"city": "Oslo"}))
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if got := res.Content[0].Text; got != "sunny in Oslo" {
		t.Fatalf("result = %q", got)
	}

	_, err = tc.CallTool(ctx, sess, mcp.NewCallToolRequest("missing", nil))
	var mErr *mcp.Error
	if !errors.As(err, &mErr) || mErr.Code != mcp.CodeInvalidParams {
		t.Fatalf("unknown tool err = %v", err)
	}

	if tc.Add(ctx, newTool(t, "forecast")) {
		t.Fatalf("Add accepted a duplicate name")
	}
	if !tc.Add(ctx, newTool(t, "radar")) {
		t.Fatalf("Add rejected a new tool")
	}
	if !tc.Remove(ctx, "outlook") || tc.Remove(ctx, "outlook") {
		t.Fatalf("Remove should succeed once")
	}
	if diff := cmp.Diff([]string{"forecast", "radar"}, toolNames(tc.Snapshot())); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestToolsContainer_ReplaceDuplicates(t *testing.T) {
	tc := NewToolsContainer([]tool.Handler{newTool(t, "a"), newTool(t, "b"), newTool(t, "a")})
	if diff := cmp.Diff([]string{"b", "a"}, toolNames(tc.Snapshot())); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestToolsContainer_ListChanged(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tc := NewToolsContainer(nil)
	lc, ok, err := tc.GetListChangedCapability(ctx, nil)
	if err != nil || !ok {
		t.Fatalf("GetListChangedCapability: ok=%v err=%v", ok, err)
	}
	fired := make(chan string, 4)
	sess := sessiontest.New("watcher")
	if ok, err := lc.Register(ctx, sess, func(_ context.Context, s sessions.Session) { fired <- s.SessionID() }); !ok || err != nil {
		t.Fatalf("Register: ok=%v err=%v", ok, err)
	}
	tc.Add(ctx, newTool(t, "late"))
	select {
	case id := <-fired:
		if id != "watcher" {
			t.Fatalf("notified session %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no list changed notification")
	}
}

func TestResourcesContainer(t *testing.T) {
	ctx := context.Background()
	rc := NewResourcesContainer([]resource.Handler{
		newResource(t, "Station", "weather://stations/{id}"),
		newResource(t, "About", "weather://about"),
		newResource(t, "Station", "weather://stations/{id}"),
	})

	resources, err := rc.ListResources(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(resources.Items) != 1 || resources.Items[0].URI != "weather://about" {
		t.Fatalf("resources = %+v", resources.Items)
	}
	templates, err := rc.ListResourceTemplates(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListResourceTemplates: %v", err)
	}
	if len(templates.Items) != 1 || templates.Items[0].URITemplate != "weather://stations/{id}" {
		t.Fatalf("templates = %+v", templates.Items)
	}

	tests := []struct {
		uri  string
		want string
	}{
		{"weather://about", "weather service"},
		{"weather://stations/42", "station 42"},
	}
	for _, tt := range tests {
		res, err := rc.ReadResource(ctx, nil, &mcp.ReadResourceRequest{URI: tt.uri})
		if err != nil {
			t.Fatalf("ReadResource(%s): %v", tt.uri, err)
		}
		if got := res.Contents[0].Text; got != tt.want {
			t.Fatalf("ReadResource(%s) = %q, want %q", tt.uri, got, tt.want)
		}
	}

	_, err = rc.ReadResource(ctx, nil, &mcp.ReadResourceRequest{URI: "weather://unknown"})
	var mErr *mcp.Error
	if !errors.As(err, &mErr) || mErr.Code != mcp.CodeResourceNotFound {
		t.Fatalf("unknown uri err = %v", err)
	}

	if !rc.Remove(ctx, "weather://stations/{id}") {
		t.Fatalf("Remove(template) = false")
	}
	if _, err := rc.ReadResource(ctx, nil, &mcp.ReadResourceRequest{URI: "weather://stations/42"}); !errors.As(err, &mErr) {
		t.Fatalf("read after remove err = %v", err)
	}
}

func TestResourcesContainer_ConcreteBeforeTemplate(t *testing.T) {
	rc := NewResourcesContainer([]resource.Handler{
		newResource(t, "Station", "weather://stations/{id}"),
		newResource(t, "About", "weather://stations/about"),
	})
	res, err := rc.ReadResource(context.Background(), nil, &mcp.ReadResourceRequest{URI: "weather://stations/about"})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if got := res.Contents[0].Text; got != "weather service" {
		t.Fatalf("got %q, want concrete resource", got)
	}
}

func TestCompletionsContainer(t *testing.T) {
	ctx := context.Background()
	cb, err := complete.NewSync(weather{}, complete.Declaration{Method: "Cities", Prompt: "forecast"})
	if err != nil {
		t.Fatalf("complete.NewSync: %v", err)
	}
	cc := NewCompletionsContainer([]complete.Handler{cb})
	if cc.Add(cb) {
		t.Fatalf("Add accepted a duplicate reference")
	}

	req := &mcp.CompleteRequest{
		Ref:      mcp.CompleteReference{Type: mcp.RefTypePrompt, Name: "forecast", URI: "ignored"},
		Argument: mcp.CompleteArgument{Name: "city", Value: "L"},
	}
	res, err := cc.Complete(ctx, nil, req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	want := mcp.Completion{Values: []string{"Lisbon", "London", "Lyon"}, Total: 3}
	if diff := cmp.Diff(want, res.Completion); diff != "" {
		t.Fatalf("completion mismatch (-want +got):\n%s", diff)
	}

	req.Ref = mcp.PromptReference("unknown")
	var mErr *mcp.Error
	if _, err := cc.Complete(ctx, nil, req); !errors.As(err, &mErr) {
		t.Fatalf("unknown ref err = %v", err)
	}
}

func TestServer(t *testing.T) {
	ctx := context.Background()
	tools := NewToolsContainer(nil)
	srv := NewServer(
		WithServerInfo(mcp.ImplementationInfo{Name: "weather", Version: "1.0.0"}),
		WithInstructions("ask about the weather"),
		WithToolsCapability(tools),
		WithCompletionsProvider(func(ctx context.Context, s sessions.Session) (CompletionsCapability, bool, error) {
			if s == nil {
				return nil, false, fmt.Errorf("session required")
			}
			return NewCompletionsContainer(nil), true, nil
		}),
	)

	info, err := srv.GetServerInfo(ctx, nil)
	if err != nil || info.Name != "weather" {
		t.Fatalf("GetServerInfo = %+v, %v", info, err)
	}
	if instr, ok, _ := srv.GetInstructions(ctx, nil); !ok || instr != "ask about the weather" {
		t.Fatalf("GetInstructions = %q, %v", instr, ok)
	}
	if got, ok, _ := srv.GetToolsCapability(ctx, nil); !ok || got != ToolsCapability(tools) {
		t.Fatalf("GetToolsCapability = %v, %v", got, ok)
	}
	if _, ok, _ := srv.GetResourcesCapability(ctx, nil); ok {
		t.Fatalf("resources reported without configuration")
	}
	if _, _, err := srv.GetCompletionsCapability(ctx, nil); err == nil {
		t.Fatalf("provider error not surfaced")
	}
	if _, ok, err := srv.GetCompletionsCapability(ctx, sessiontest.New("s")); !ok || err != nil {
		t.Fatalf("GetCompletionsCapability: ok=%v err=%v", ok, err)
	}
}

func TestChangeNotifier(t *testing.T) {
	var cn ChangeNotifier
	ch := cn.Subscriber()
	_ = cn.Notify(context.Background())
	_ = cn.Notify(context.Background())
	select {
	case <-ch:
	default:
		t.Fatalf("no signal delivered")
	}
	select {
	case <-ch:
		t.Fatalf("signals were not coalesced")
	default:
	}
	cn.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("channel open after Close")
	}
	if _, ok := <-cn.Subscriber(); ok {
		t.Fatalf("subscriber after Close is open")
	}
}
