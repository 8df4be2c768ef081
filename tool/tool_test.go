package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ggoodman/mcp-methods-go/async"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/reqctx"
	"github.com/ggoodman/mcp-methods-go/sessions"
	"github.com/ggoodman/mcp-methods-go/sessions/sessiontest"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type searchArgs struct {
	Query string `json:"query" jsonschema:"description=What to look for"`
	Limit *int   `json:"limit,omitempty"`
}

var errDomain = errors.New("domain failure")

type tools struct {
	lastToken mcp.ProgressToken
	lastMeta  mcp.Meta
}

func (t *tools) Add(a, b int) int                      { return a + b }
func (t *tools) Greet(name string) string              { return "Hello, " + name }
func (t *tools) Nothing()                              {}
func (t *tools) NilPoint() *point                      { return nil }
func (t *tools) Origin(p point) point                  { return point{X: -p.X, Y: -p.Y} }
func (t *tools) Search(args searchArgs) []string       { return []string{args.Query} }
func (t *tools) Fail(string) (string, error)           { return "", errDomain }
func (t *tools) Panic() string                         { panic("kaboom") }
func (t *tools) Raw() *mcp.CallToolResult              { return mcp.TextResult("raw") }
func (t *tools) Bag(m map[string]any) int              { return len(m) }
func (t *tools) Later(x int) async.Deferred[int]       { return async.Just(x * 10) }
func (t *tools) Chan() <-chan string                   { ch := make(chan string, 1); ch <- "from chan"; return ch }
func (t *tools) WithSession(s sessions.Session) string { return s.SessionID() }

func (t *tools) Injected(ctx context.Context, tok mcp.ProgressToken, meta mcp.Meta, req *mcp.CallToolRequest, v string) string {
	t.lastToken, t.lastMeta = tok, meta
	return req.Name + ":" + v
}

func (t *tools) Tally(words []string, weight *float64, at point, opts struct{ Upper bool }) string {
	w := 1.0
	if weight != nil {
		w = *weight
	}
	out := fmt.Sprintf("%d words x%g at %d,%d", len(words), w, at.X, at.Y)
	if opts.Upper {
		out = strings.ToUpper(out)
	}
	return out
}

func (t *tools) Context(ctx context.Context, rc *reqctx.RequestContext) (string, error) {
	if err := rc.Info(ctx, "working"); err != nil {
		return "", err
	}
	return rc.SessionID(), nil
}

func (t *tools) AsyncContext(arc *reqctx.AsyncRequestContext) async.Deferred[string] {
	return async.Then(arc.Info("async working"), func(context.Context, struct{}) (string, error) {
		return arc.SessionID(), nil
	})
}

func (t *tools) Transport(tc sessions.TransportContext) string {
	v, _ := tc.Get("tenant")
	s, _ := v.(string)
	return s
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 || res.Content[0].Type != mcp.ContentTypeText {
		t.Fatalf("expected single text block, got %+v", res)
	}
	return res.Content[0].Text
}

func mustSync(t *testing.T, decl Declaration, opts ...Option) *SyncCallback {
	t.Helper()
	cb, err := NewSync(&tools{}, decl, opts...)
	if err != nil {
		t.Fatalf("NewSync(%s): %v", decl.Method, err)
	}
	return cb
}

func TestSync_ResultCoercion(t *testing.T) {
	ctx := context.Background()
	sess := sessiontest.New("s1")
	tests := []struct {
		name string
		decl Declaration
		args map[string]any
		want string
	}{
		{"int as json", Declaration{Method: "Add", Params: []string{"a", "b"}}, map[string]any{"a": 2, "b": 3}, "5"},
		{"string verbatim", Declaration{Method: "Greet", Params: []string{"name"}}, map[string]any{"name": "Ada"}, "Hello, Ada"},
		{"void", Declaration{Method: "Nothing"}, nil, `"Done"`},
		{"void mode ignores value", Declaration{Method: "Greet", Params: []string{"name"}, Mode: ReturnVoid}, map[string]any{"name": "x"}, `"Done"`},
		{"nil pointer", Declaration{Method: "NilPoint"}, nil, "null"},
		{"struct as json", Declaration{Method: "Origin"}, map[string]any{"x": 1, "y": 2}, `{"x":-1,"y":-2}`},
		{"missing args are zero", Declaration{Method: "Add", Params: []string{"a", "b"}}, map[string]any{"a": 4}, "4"},
		{"passthrough", Declaration{Method: "Raw"}, nil, "raw"},
		{"map receives all", Declaration{Method: "Bag"}, map[string]any{"a": 1, "b": 2, "c": nil}, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := mustSync(t, tt.decl)
			res, err := cb.Call(ctx, sess, mcp.NewCallToolRequest(cb.Tool().Name, tt.args))
			if err != nil {
				t.Fatalf("Call: %v", err)
			}
			if res.IsError {
				t.Fatalf("unexpected error result %+v", res)
			}
			if got := text(t, res); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSync_Structured(t *testing.T) {
	cb := mustSync(t, Declaration{Method: "Origin", StructuredOutput: true})
	if cb.Mode() != ReturnStructured {
		t.Fatalf("expected structured mode, got %s", cb.Mode())
	}
	res, err := cb.Call(context.Background(), nil, mcp.NewCallToolRequest("Origin", map[string]any{"x": 3, "y": 4}))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(res.Content) != 0 {
		t.Fatalf("expected no content blocks, got %+v", res.Content)
	}
	want := map[string]any{"x": float64(-3), "y": float64(-4)}
	if diff := cmp.Diff(want, res.StructuredContent); diff != "" {
		t.Fatalf("structured content mismatch (-want +got):\n%s", diff)
	}
	out := cb.Tool().OutputSchema
	if out == nil || out.Properties["x"].Type != "integer" {
		t.Fatalf("expected output schema, got %+v", out)
	}
}

func TestSync_Errors(t *testing.T) {
	ctx := context.Background()

	cb := mustSync(t, Declaration{Method: "Fail", Params: []string{"in"}})
	if _, err := cb.Call(ctx, nil, nil); !errors.Is(err, ErrNilRequest) {
		t.Fatalf("expected ErrNilRequest, got %v", err)
	}

	res, err := cb.Call(ctx, nil, mcp.NewCallToolRequest("Fail", nil))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !res.IsError || text(t, res) != "Error invoking method: domain failure" {
		t.Fatalf("unexpected result %+v", res)
	}

	panicking := mustSync(t, Declaration{Method: "Panic"})
	res, err = panicking.Call(ctx, nil, mcp.NewCallToolRequest("Panic", nil))
	if err != nil || !res.IsError || !strings.Contains(text(t, res), "kaboom") {
		t.Fatalf("expected panic to become an error result, got %+v %v", res, err)
	}

	bad := mustSync(t, Declaration{Method: "Add", Params: []string{"a", "b"}})
	res, err = bad.Call(ctx, nil, mcp.NewCallToolRequest("Add", map[string]any{"a": "not a number"}))
	if err != nil || !res.IsError || !strings.Contains(text(t, res), `argument "a"`) {
		t.Fatalf("expected conversion error result, got %+v %v", res, err)
	}

	filtered := mustSync(t, Declaration{Method: "Fail", Params: []string{"in"}}, WithErrorFilter(func(err error) bool {
		return !errors.Is(err, errDomain)
	}))
	if _, err := filtered.Call(ctx, nil, mcp.NewCallToolRequest("Fail", nil)); !errors.Is(err, errDomain) {
		t.Fatalf("expected filtered error to propagate, got %v", err)
	}
}

func TestSync_Injection(t *testing.T) {
	bean := &tools{}
	cb, err := NewSync(bean, Declaration{Method: "Injected", Name: "inject", Params: []string{"v"}})
	if err != nil {
		t.Fatalf("NewSync: %v", err)
	}
	req := mcp.NewCallToolRequest("inject", map[string]any{"v": "val"})
	req.Meta = mcp.Meta{"progressToken": "tok", "k": "v"}
	res, err := cb.Call(context.Background(), nil, req)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if text(t, res) != "inject:val" {
		t.Fatalf("unexpected result %q", text(t, res))
	}
	if bean.lastToken != "tok" || bean.lastMeta.Get("k") != "v" {
		t.Fatalf("unexpected injected values %v %v", bean.lastToken, bean.lastMeta)
	}
	if _, ok := cb.Tool().InputSchema.Properties["v"]; !ok || len(cb.Tool().InputSchema.Properties) != 1 {
		t.Fatalf("special parameters must not appear in the schema: %+v", cb.Tool().InputSchema)
	}
}

func TestSync_RequestContext(t *testing.T) {
	sess := sessiontest.New("s42")
	cb := mustSync(t, Declaration{Method: "Context"})
	res, err := cb.Call(context.Background(), sess, mcp.NewCallToolRequest("Context", nil))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if text(t, res) != "s42" {
		t.Fatalf("unexpected result %q", text(t, res))
	}
	if n := sess.Notifications(); len(n) != 1 || n[0].Method != mcp.LoggingMessageNotificationMethod {
		t.Fatalf("expected one log notification, got %+v", n)
	}
}

func TestInputSchema(t *testing.T) {
	cb := mustSync(t, Declaration{Method: "Search", Description: "search things"})
	schema := cb.Tool().InputSchema
	if schema.Type != "object" {
		t.Fatalf("expected object schema")
	}
	if schema.Properties["query"].Description != "What to look for" {
		t.Fatalf("expected description from struct tag, got %+v", schema.Properties["query"])
	}
	if diff := cmp.Diff([]string{"query"}, schema.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}

	add := mustSync(t, Declaration{Method: "Add", Params: []string{"a", "b"}, Optional: []string{"b"}})
	if diff := cmp.Diff([]string{"a"}, add.Tool().InputSchema.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	if add.Tool().InputSchema.Properties["a"].Type != "integer" {
		t.Fatalf("unexpected property %+v", add.Tool().InputSchema.Properties["a"])
	}
}

func TestInputSchema_NamedParamKinds(t *testing.T) {
	cb := mustSync(t, Declaration{Method: "Tally", Params: []string{"words", "weight", "at", "opts"}})
	schema := cb.Tool().InputSchema

	kinds := map[string]string{}
	for name, p := range schema.Properties {
		kinds[name] = p.Type
	}
	want := map[string]string{"words": "array", "weight": "number", "at": "object", "opts": "object"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("property types mismatch (-want +got):\n%s", diff)
	}
	if items := schema.Properties["words"].Items; items == nil || items.Type != "string" {
		t.Fatalf("words items = %+v, want string", items)
	}
	if _, ok := schema.Properties["at"].Properties["x"]; !ok {
		t.Fatalf("at properties = %+v, want x", schema.Properties["at"].Properties)
	}
	if diff := cmp.Diff([]string{"words", "at", "opts"}, schema.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}

	res, err := cb.Call(context.Background(), sessiontest.New("s1"), mcp.NewCallToolRequest("Tally", map[string]any{
		"words":  []any{"a", "b", "c"},
		"weight": 2.5,
		"at":     map[string]any{"x": 1, "y": 2},
		"opts":   map[string]any{"Upper": true},
	}))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got := text(t, res); got != "3 WORDS X2.5 AT 1,2" {
		t.Fatalf("got %q", got)
	}
}

func TestConstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"unknown method", func() error { _, err := NewSync(&tools{}, Declaration{Method: "Missing"}); return err }},
		{"unnamed payload", func() error { _, err := NewSync(&tools{}, Declaration{Method: "Add"}); return err }},
		{"name count mismatch", func() error { _, err := NewSync(&tools{}, Declaration{Method: "Add", Params: []string{"a"}}); return err }},
		{"duplicate names", func() error { _, err := NewSync(&tools{}, Declaration{Method: "Add", Params: []string{"a", "a"}}); return err }},
		{"unknown optional name", func() error {
			_, err := NewSync(&tools{}, Declaration{Method: "Add", Params: []string{"a", "b"}, Optional: []string{"c"}})
			return err
		}},
		{"optional without params", func() error {
			_, err := NewSync(&tools{}, Declaration{Method: "Search", Optional: []string{"limit"}})
			return err
		}},
		{"sync deferred", func() error { _, err := NewSync(&tools{}, Declaration{Method: "Later", Params: []string{"x"}}); return err }},
		{"sync async context", func() error { _, err := NewSync(&tools{}, Declaration{Method: "AsyncContext"}); return err }},
		{"async sync context", func() error { _, err := NewAsync(&tools{}, Declaration{Method: "Context"}); return err }},
		{"stateless session", func() error { _, err := NewStatelessSync(&tools{}, Declaration{Method: "WithSession"}); return err }},
		{"stateless request context", func() error { _, err := NewStatelessAsync(&tools{}, Declaration{Method: "AsyncContext"}); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err == nil {
				t.Fatalf("expected construction error")
			}
		})
	}
}

func TestAsync(t *testing.T) {
	ctx := context.Background()
	cb, err := NewAsync(&tools{}, Declaration{Method: "Later", Params: []string{"x"}})
	if err != nil {
		t.Fatalf("NewAsync: %v", err)
	}
	res, err := cb.Call(nil, mcp.NewCallToolRequest("Later", map[string]any{"x": 4})).Await(ctx)
	if err != nil || text(t, res) != "40" {
		t.Fatalf("unexpected result %+v %v", res, err)
	}

	if _, err := cb.Call(nil, nil).Await(ctx); !errors.Is(err, ErrNilRequest) {
		t.Fatalf("expected ErrNilRequest, got %v", err)
	}

	ch, err := NewAsync(&tools{}, Declaration{Method: "Chan"})
	if err != nil {
		t.Fatalf("NewAsync: %v", err)
	}
	res, err = ch.Handle(ctx, nil, mcp.NewCallToolRequest("Chan", nil))
	if err != nil || text(t, res) != "from chan" {
		t.Fatalf("unexpected result %+v %v", res, err)
	}

	plain, err := NewAsync(&tools{}, Declaration{Method: "Greet", Params: []string{"name"}})
	if err != nil {
		t.Fatalf("async callbacks accept plain returns: %v", err)
	}
	res, err = plain.Call(nil, mcp.NewCallToolRequest("Greet", map[string]any{"name": "Bo"})).Await(ctx)
	if err != nil || text(t, res) != "Hello, Bo" {
		t.Fatalf("unexpected result %+v %v", res, err)
	}

	failing, _ := NewAsync(&tools{}, Declaration{Method: "Fail", Params: []string{"in"}})
	res, err = failing.Call(nil, mcp.NewCallToolRequest("Fail", nil)).Await(ctx)
	if err != nil || !res.IsError {
		t.Fatalf("expected error result, got %+v %v", res, err)
	}
}

func TestAsync_LazyAndRequestContext(t *testing.T) {
	sess := sessiontest.New("lazy")
	cb, err := NewAsync(&tools{}, Declaration{Method: "AsyncContext"})
	if err != nil {
		t.Fatalf("NewAsync: %v", err)
	}
	d := cb.Call(sess, mcp.NewCallToolRequest("AsyncContext", nil))
	if len(sess.Notifications()) != 0 {
		t.Fatalf("method ran before the deferred was awaited")
	}
	res, err := d.Await(context.Background())
	if err != nil || text(t, res) != "lazy" {
		t.Fatalf("unexpected result %+v %v", res, err)
	}
	if len(sess.Notifications()) != 1 {
		t.Fatalf("expected log notification after await")
	}
}

func TestStateless(t *testing.T) {
	ctx := context.Background()
	cb, err := NewStatelessSync(&tools{}, Declaration{Method: "Transport"})
	if err != nil {
		t.Fatalf("NewStatelessSync: %v", err)
	}
	res, err := cb.Call(ctx, sessions.MapTransportContext{"tenant": "acme"}, mcp.NewCallToolRequest("Transport", nil))
	if err != nil || text(t, res) != "acme" {
		t.Fatalf("unexpected result %+v %v", res, err)
	}
	res, err = cb.Call(ctx, nil, mcp.NewCallToolRequest("Transport", nil))
	if err != nil || text(t, res) != "" {
		t.Fatalf("nil transport should bind an empty context, got %+v %v", res, err)
	}

	hctx := sessions.WithTransportContext(ctx, sessions.MapTransportContext{"tenant": "from-ctx"})
	res, err = cb.Handle(hctx, nil, mcp.NewCallToolRequest("Transport", nil))
	if err != nil || text(t, res) != "from-ctx" {
		t.Fatalf("unexpected result %+v %v", res, err)
	}

	acb, err := NewStatelessAsync(&tools{}, Declaration{Method: "Later", Params: []string{"x"}})
	if err != nil {
		t.Fatalf("NewStatelessAsync: %v", err)
	}
	res, err = acb.Call(nil, mcp.NewCallToolRequest("Later", map[string]any{"x": 1})).Await(ctx)
	if err != nil || text(t, res) != "10" {
		t.Fatalf("unexpected result %+v %v", res, err)
	}
}
