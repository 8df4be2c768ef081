package gosdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// Transport context keys populated from SDK requests.
const (
	SessionIDKey = "session.id"
	// HeaderPrefix precedes the lower-cased name of each HTTP header.
	HeaderPrefix = "header."
	ScopesKey    = "auth.scopes"
	SubjectKey   = "auth.sub"
)

// session adapts an SDK server session to sessions.Session for the duration
// of one request.
type session struct {
	ss *sdk.ServerSession
	tc sessions.MapTransportContext
}

var _ sessions.Session = (*session)(nil)

// NewSession wraps ss. extra may be nil.
func NewSession(ss *sdk.ServerSession, extra *sdk.RequestExtra) sessions.Session {
	s := &session{ss: ss, tc: sessions.MapTransportContext{}}
	if extra != nil {
		s.tc = headerContext(extra.Header)
		if ti := extra.TokenInfo; ti != nil {
			s.tc[ScopesKey] = ti.Scopes
			if sub, ok := ti.Extra["sub"].(string); ok {
				s.tc[SubjectKey] = sub
			}
		}
	}
	s.tc[SessionIDKey] = ss.ID()
	return s
}

func (s *session) params() *sdk.InitializeParams {
	if p := s.ss.InitializeParams(); p != nil {
		return p
	}
	return &sdk.InitializeParams{}
}

func (s *session) SessionID() string { return s.ss.ID() }

// UserID is the "sub" claim of the bearer token, if any.
func (s *session) UserID() string {
	sub, _ := s.tc[SubjectKey].(string)
	return sub
}

func (s *session) ProtocolVersion() string { return s.params().ProtocolVersion }

func (s *session) ClientInfo() sessions.ClientInfo {
	ci := s.params().ClientInfo
	if ci == nil {
		return sessions.ClientInfo{}
	}
	return sessions.ClientInfo{Name: ci.Name, Version: ci.Version}
}

func (s *session) ClientCapabilities() mcp.ClientCapabilities {
	var out mcp.ClientCapabilities
	caps := s.params().Capabilities
	if caps == nil {
		return out
	}
	if caps.Sampling != nil {
		out.Sampling = &struct{}{}
	}
	if caps.Elicitation != nil {
		out.Elicitation = &struct{}{}
	}
	// The SDK decodes roots into a plain struct, so a client that omitted the
	// capability looks the same as one that sent "roots": {}. Roots are
	// reported for every initialized client; one without them answers
	// roots/list with method not found.
	out.Roots = &struct {
		ListChanged bool `json:"listChanged"`
	}{ListChanged: caps.Roots.ListChanged}
	return out
}

func (s *session) TransportContext() sessions.TransportContext { return s.tc }

func (s *session) GetSamplingCapability() (sessions.SamplingCapability, bool) {
	if s.ClientCapabilities().Sampling == nil {
		return nil, false
	}
	return sampling{s.ss}, true
}

func (s *session) GetRootsCapability() (sessions.RootsCapability, bool) {
	if s.ClientCapabilities().Roots == nil {
		return nil, false
	}
	return roots{s.ss}, true
}

func (s *session) GetElicitationCapability() (sessions.ElicitationCapability, bool) {
	if s.ClientCapabilities().Elicitation == nil {
		return nil, false
	}
	return elicitation{s.ss}, true
}

// Notify supports progress and logging notifications. Log messages are
// subject to the level the client selected with logging/setLevel.
func (s *session) Notify(ctx context.Context, method mcp.Method, params any) error {
	switch method {
	case mcp.ProgressNotificationMethod:
		var p sdk.ProgressNotificationParams
		if err := remarshal(params, &p); err != nil {
			return err
		}
		return s.ss.NotifyProgress(ctx, &p)
	case mcp.LoggingMessageNotificationMethod:
		var p sdk.LoggingMessageParams
		if err := remarshal(params, &p); err != nil {
			return err
		}
		return s.ss.Log(ctx, &p)
	}
	return fmt.Errorf("gosdk: unsupported notification %s", method)
}

func (s *session) Ping(ctx context.Context) error { return s.ss.Ping(ctx, nil) }

type sampling struct{ ss *sdk.ServerSession }

func (c sampling) CreateMessage(ctx context.Context, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	var p sdk.CreateMessageParams
	if err := remarshal(req, &p); err != nil {
		return nil, err
	}
	res, err := c.ss.CreateMessage(ctx, &p)
	if err != nil {
		return nil, err
	}
	var out mcp.CreateMessageResult
	if err := remarshal(res, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type roots struct{ ss *sdk.ServerSession }

func (c roots) ListRoots(ctx context.Context) (*mcp.ListRootsResult, error) {
	res, err := c.ss.ListRoots(ctx, nil)
	if err != nil {
		return nil, err
	}
	var out mcp.ListRootsResult
	if err := remarshal(res, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type elicitation struct{ ss *sdk.ServerSession }

func (c elicitation) Elicit(ctx context.Context, req *mcp.ElicitRequest) (*mcp.ElicitResult, error) {
	var p sdk.ElicitParams
	if err := remarshal(req, &p); err != nil {
		return nil, err
	}
	res, err := c.ss.Elicit(ctx, &p)
	if err != nil {
		return nil, err
	}
	var out mcp.ElicitResult
	if err := remarshal(res, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// remarshal converts between this module's wire types and the SDK's, which
// share the MCP JSON encoding.
func remarshal(from, to any) error {
	b, err := json.Marshal(from)
	if err != nil {
		return fmt.Errorf("gosdk: encoding %T: %w", from, err)
	}
	if err := json.Unmarshal(b, to); err != nil {
		return fmt.Errorf("gosdk: decoding %T: %w", to, err)
	}
	return nil
}

// headerContext maps each header to its first value.
func headerContext(h http.Header) sessions.MapTransportContext {
	tc := sessions.MapTransportContext{}
	for name, vals := range h {
		if len(vals) > 0 {
			tc[HeaderPrefix+strings.ToLower(name)] = vals[0]
		}
	}
	return tc
}
