package reqctx_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/reqctx"
	"github.com/ggoodman/mcp-methods-go/sessions/sessiontest"
)

func TestNew_RequiresRequestAndSession(t *testing.T) {
	if _, err := reqctx.New(nil, sessiontest.New("s")); err == nil {
		t.Fatalf("expected error for nil request")
	}
	var nilReq *mcp.CallToolRequest
	if _, err := reqctx.New(nilReq, sessiontest.New("s")); err == nil {
		t.Fatalf("expected error for typed nil request")
	}
	if _, err := reqctx.New(&mcp.CallToolRequest{}, nil); err == nil {
		t.Fatalf("expected error for nil session")
	}
}

func TestCapabilitiesUnsupported(t *testing.T) {
	ctx := context.Background()
	rc, err := reqctx.New(&mcp.CallToolRequest{Name: "x"}, sessiontest.New("s"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if rc.RootsEnabled() || rc.ElicitEnabled() || rc.SampleEnabled() {
		t.Fatalf("expected no capabilities")
	}
	if _, err := rc.Roots(ctx); !errors.Is(err, reqctx.ErrCapabilityUnsupported) {
		t.Fatalf("expected ErrCapabilityUnsupported, got %v", err)
	}
	if _, err := rc.Sample(ctx, "hi"); !errors.Is(err, reqctx.ErrCapabilityUnsupported) {
		t.Fatalf("expected ErrCapabilityUnsupported, got %v", err)
	}
	if _, err := rc.Elicit(ctx, &mcp.ElicitRequest{}); !errors.Is(err, reqctx.ErrCapabilityUnsupported) {
		t.Fatalf("expected ErrCapabilityUnsupported, got %v", err)
	}
}

func TestSample(t *testing.T) {
	sess := sessiontest.New("s")
	var got *mcp.CreateMessageRequest
	sess.Sampling = sessiontest.SamplingFunc(func(_ context.Context, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
		got = req
		return &mcp.CreateMessageResult{Role: mcp.RoleAssistant, Model: "m"}, nil
	})
	rc, _ := reqctx.New(&mcp.CallToolRequest{}, sess)
	res, err := rc.Sample(context.Background(), "one", "two")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if res.Model != "m" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(got.Messages) != 2 || got.Messages[1].Content.Text != "two" || got.MaxTokens != 500 {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Meta != nil {
		t.Fatalf("meta = %v, want none without a progress token", got.Meta)
	}

	rc, _ = reqctx.New(&mcp.CallToolRequest{Meta: mcp.Meta{"progressToken": "tok-1"}}, sess)
	if _, err := rc.Sample(context.Background(), "three"); err != nil {
		t.Fatalf("sample: %v", err)
	}
	if tok := got.Meta.ProgressToken(); tok != "tok-1" {
		t.Fatalf("progress token = %v, want tok-1", tok)
	}
	b, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"_meta":{"progressToken":"tok-1"}`) {
		t.Fatalf("wire form %s lacks progress token", b)
	}
}

type contact struct {
	Name string `json:"name"`
	Age  int    `json:"age" jsonschema:"minimum=0"`
}

func TestElicitInto(t *testing.T) {
	sess := sessiontest.New("s")
	sess.Elicitation = sessiontest.ElicitFunc(func(_ context.Context, req *mcp.ElicitRequest) (*mcp.ElicitResult, error) {
		if req.Message != reqctx.DefaultElicitMessage {
			t.Fatalf("unexpected message %q", req.Message)
		}
		if _, ok := req.RequestedSchema.Properties["name"]; !ok {
			t.Fatalf("schema missing name: %+v", req.RequestedSchema)
		}
		return &mcp.ElicitResult{Action: mcp.ElicitActionAccept, Content: map[string]any{"name": "Ada", "age": float64(36)}}, nil
	})
	rc, _ := reqctx.New(&mcp.CallToolRequest{}, sess)
	res, err := reqctx.ElicitInto[contact](context.Background(), rc, "")
	if err != nil {
		t.Fatalf("elicit: %v", err)
	}
	if !res.Accepted() || res.Value == nil || res.Value.Name != "Ada" || res.Value.Age != 36 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestElicitInto_Declined(t *testing.T) {
	sess := sessiontest.New("s")
	sess.Elicitation = sessiontest.ElicitFunc(func(context.Context, *mcp.ElicitRequest) (*mcp.ElicitResult, error) {
		return &mcp.ElicitResult{Action: mcp.ElicitActionDecline}, nil
	})
	rc, _ := reqctx.New(&mcp.CallToolRequest{}, sess)
	res, err := reqctx.ElicitInto[contact](context.Background(), rc, "who?")
	if err != nil {
		t.Fatalf("elicit: %v", err)
	}
	if res.Accepted() || res.Value != nil {
		t.Fatalf("expected declined result without value, got %+v", res)
	}
}

func TestProgress(t *testing.T) {
	ctx := context.Background()
	sess := sessiontest.New("s")
	req := &mcp.CallToolRequest{Meta: mcp.Meta{"progressToken": "p1"}}
	rc, _ := reqctx.New(req, sess)

	if err := rc.Progress(ctx, 101); err == nil {
		t.Fatalf("expected out of range error")
	}
	if err := rc.Progress(ctx, 50); err != nil {
		t.Fatalf("progress: %v", err)
	}
	n := sess.Notifications()
	if len(n) != 1 || n[0].Method != mcp.ProgressNotificationMethod {
		t.Fatalf("unexpected notifications %+v", n)
	}
	p := n[0].Params.(*mcp.ProgressNotificationParams)
	if p.ProgressToken != "p1" || p.Progress != 0.5 || p.Total != 1.0 {
		t.Fatalf("unexpected params %+v", p)
	}

	// No token: silently skipped.
	rc2, _ := reqctx.New(&mcp.CallToolRequest{}, sess)
	if err := rc2.Progress(ctx, 10); err != nil {
		t.Fatalf("progress without token: %v", err)
	}
	if len(sess.Notifications()) != 1 {
		t.Fatalf("expected no new notification without a progress token")
	}
}

func TestLogging(t *testing.T) {
	ctx := context.Background()
	sess := sessiontest.New("s")
	rc, _ := reqctx.New(&mcp.CallToolRequest{}, sess)
	if err := rc.Info(ctx, ""); err == nil {
		t.Fatalf("expected error for empty message")
	}
	if err := rc.Warn(ctx, "careful"); err != nil {
		t.Fatalf("warn: %v", err)
	}
	n := sess.Notifications()
	if len(n) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(n))
	}
	msg := n[0].Params.(*mcp.LoggingMessageNotification)
	if msg.Level != mcp.LoggingLevelWarning || msg.Data != "careful" {
		t.Fatalf("unexpected log %+v", msg)
	}
}

func TestAsyncRequestContext(t *testing.T) {
	ctx := context.Background()
	sess := sessiontest.New("s")
	sess.Roots = sessiontest.RootsFunc(func(context.Context) (*mcp.ListRootsResult, error) {
		return &mcp.ListRootsResult{Roots: []mcp.Root{{URI: "file:///a"}}}, nil
	})
	arc, err := reqctx.NewAsync(&mcp.CallToolRequest{}, sess)
	if err != nil {
		t.Fatalf("new async: %v", err)
	}
	roots := arc.Roots()
	if sess.Pings() != 0 {
		t.Fatalf("unexpected ping")
	}
	res, err := roots.Await(ctx)
	if err != nil || len(res.Roots) != 1 {
		t.Fatalf("unexpected roots %+v %v", res, err)
	}
	ping := arc.Ping()
	if sess.Pings() != 0 {
		t.Fatalf("ping ran before await")
	}
	if _, err := ping.Await(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if sess.Pings() != 1 {
		t.Fatalf("expected 1 ping, got %d", sess.Pings())
	}
}
