// Package sessiontest provides an in-memory sessions.Session for exercising
// bound methods without a transport.
package sessiontest

import (
	"context"
	"sync"

	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// Notification is a notification recorded by Session.Notify.
type Notification struct {
	Method mcp.Method
	Params any
}

// Session is a recording fake. Zero values are valid; capability fields left
// nil are reported as unsupported.
type Session struct {
	ID       string
	User     string
	Protocol string
	Client   sessions.ClientInfo
	Caps     mcp.ClientCapabilities
	// Transport defaults to sessions.EmptyTransportContext when nil.
	Transport sessions.TransportContext

	Sampling    sessions.SamplingCapability
	Roots       sessions.RootsCapability
	Elicitation sessions.ElicitationCapability

	// PingErr is returned from Ping.
	PingErr error

	mu            sync.Mutex
	notifications []Notification
	pings         int
}

var _ sessions.Session = (*Session)(nil)

// New returns a session with the given id and the latest protocol version.
func New(id string) *Session {
	return &Session{ID: id, User: "user-" + id, Protocol: mcp.LatestProtocolVersion}
}

func (s *Session) SessionID() string                          { return s.ID }
func (s *Session) UserID() string                             { return s.User }
func (s *Session) ProtocolVersion() string                    { return s.Protocol }
func (s *Session) ClientInfo() sessions.ClientInfo            { return s.Client }
func (s *Session) ClientCapabilities() mcp.ClientCapabilities { return s.Caps }

func (s *Session) TransportContext() sessions.TransportContext {
	if s.Transport == nil {
		return sessions.EmptyTransportContext
	}
	return s.Transport
}

func (s *Session) GetSamplingCapability() (sessions.SamplingCapability, bool) {
	return s.Sampling, s.Sampling != nil
}

func (s *Session) GetRootsCapability() (sessions.RootsCapability, bool) {
	return s.Roots, s.Roots != nil
}

func (s *Session) GetElicitationCapability() (sessions.ElicitationCapability, bool) {
	return s.Elicitation, s.Elicitation != nil
}

func (s *Session) Notify(ctx context.Context, method mcp.Method, params any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, Notification{Method: method, Params: params})
	return nil
}

func (s *Session) Ping(ctx context.Context) error {
	s.mu.Lock()
	s.pings++
	s.mu.Unlock()
	return s.PingErr
}

// Notifications returns a copy of the recorded notifications.
func (s *Session) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.notifications...)
}

// Pings returns the number of Ping calls.
func (s *Session) Pings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pings
}

// SamplingFunc adapts a function to sessions.SamplingCapability.
type SamplingFunc func(ctx context.Context, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error)

func (f SamplingFunc) CreateMessage(ctx context.Context, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	return f(ctx, req)
}

// RootsFunc adapts a function to sessions.RootsCapability.
type RootsFunc func(ctx context.Context) (*mcp.ListRootsResult, error)

func (f RootsFunc) ListRoots(ctx context.Context) (*mcp.ListRootsResult, error) { return f(ctx) }

// ElicitFunc adapts a function to sessions.ElicitationCapability.
type ElicitFunc func(ctx context.Context, req *mcp.ElicitRequest) (*mcp.ElicitResult, error)

func (f ElicitFunc) Elicit(ctx context.Context, req *mcp.ElicitRequest) (*mcp.ElicitResult, error) {
	return f(ctx, req)
}
