// Package reqctx provides the request context objects bound methods can
// declare as a parameter. A RequestContext bundles the request being served
// with the session it arrived on and offers convenience operations for the
// bidirectional parts of the protocol: roots, elicitation, sampling,
// progress, ping and client-visible logging.
//
// AsyncRequestContext exposes the same operations as async.Deferred values
// for methods that return deferred results.
package reqctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/ggoodman/mcp-methods-go/internal/elicitation"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// ErrCapabilityUnsupported is returned when the client did not advertise the
// capability an operation needs.
var ErrCapabilityUnsupported = errors.New("capability not supported by the client")

// DefaultElicitMessage is the message used by ElicitInto when none is given.
const DefaultElicitMessage = "Please provide the required information."

// defaultSampleMaxTokens caps Sample when the caller does not set MaxTokens.
const defaultSampleMaxTokens = 500

// Request is implemented by every request type a callback may serve.
type Request interface {
	ProgressToken() mcp.ProgressToken
	GetMeta() mcp.Meta
}

// Option configures a RequestContext.
type Option func(*RequestContext)

// WithLogger sets the server-side logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(rc *RequestContext) {
		if l != nil {
			rc.log = l
		}
	}
}

// RequestContext is the synchronous request context.
type RequestContext struct {
	req     Request
	session sessions.Session
	log     *slog.Logger
}

// New builds a RequestContext. Both req and session are required.
func New(req Request, session sessions.Session, opts ...Option) (*RequestContext, error) {
	if isNil(req) {
		return nil, errors.New("reqctx: request must not be nil")
	}
	if session == nil {
		return nil, errors.New("reqctx: session must not be nil")
	}
	rc := &RequestContext{req: req, session: session, log: slog.Default()}
	for _, o := range opts {
		o(rc)
	}
	return rc, nil
}

// Request returns the request being served.
func (rc *RequestContext) Request() Request { return rc.req }

// Session returns the session the request arrived on.
func (rc *RequestContext) Session() sessions.Session { return rc.session }

func (rc *RequestContext) SessionID() string { return rc.session.SessionID() }

func (rc *RequestContext) ClientInfo() sessions.ClientInfo { return rc.session.ClientInfo() }

func (rc *RequestContext) ClientCapabilities() mcp.ClientCapabilities {
	return rc.session.ClientCapabilities()
}

// RequestMeta returns the _meta object of the request, possibly nil.
func (rc *RequestContext) RequestMeta() mcp.Meta { return rc.req.GetMeta() }

func (rc *RequestContext) TransportContext() sessions.TransportContext {
	return rc.session.TransportContext()
}

// Roots

func (rc *RequestContext) RootsEnabled() bool {
	_, ok := rc.session.GetRootsCapability()
	return ok
}

func (rc *RequestContext) Roots(ctx context.Context) (*mcp.ListRootsResult, error) {
	roots, ok := rc.session.GetRootsCapability()
	if !ok {
		return nil, rc.unsupported("roots")
	}
	return roots.ListRoots(ctx)
}

// Elicitation

func (rc *RequestContext) ElicitEnabled() bool {
	_, ok := rc.session.GetElicitationCapability()
	return ok
}

// Elicit sends a raw elicitation request.
func (rc *RequestContext) Elicit(ctx context.Context, req *mcp.ElicitRequest) (*mcp.ElicitResult, error) {
	elicit, ok := rc.session.GetElicitationCapability()
	if !ok {
		return nil, rc.unsupported("elicitation")
	}
	if req == nil {
		return nil, errors.New("reqctx: elicit request must not be nil")
	}
	return elicit.Elicit(ctx, req)
}

// ElicitResult is the typed outcome of ElicitInto. Value is nil unless the
// user accepted.
type ElicitResult[T any] struct {
	Action string
	Value  *T
	Meta   map[string]any
}

// Accepted reports whether the user accepted the elicitation.
func (r *ElicitResult[T]) Accepted() bool { return r != nil && r.Action == mcp.ElicitActionAccept }

// ElicitInto asks the user for a value of type T, a struct whose exported
// fields describe the requested properties. An empty message uses
// DefaultElicitMessage.
func ElicitInto[T any](ctx context.Context, rc *RequestContext, message string) (*ElicitResult[T], error) {
	if rc == nil {
		return nil, errors.New("reqctx: nil request context")
	}
	proj, err := elicitation.Project(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	if message == "" {
		message = DefaultElicitMessage
	}
	res, err := rc.Elicit(ctx, &mcp.ElicitRequest{Message: message, RequestedSchema: proj.Schema()})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("reqctx: nil elicitation result")
	}
	out := &ElicitResult[T]{Action: res.Action, Meta: res.Meta}
	if res.Action != mcp.ElicitActionAccept {
		return out, nil
	}
	v := new(T)
	if err := proj.Decode(v, res.Content, false); err != nil {
		return nil, err
	}
	out.Value = v
	return out, nil
}

// Sampling

func (rc *RequestContext) SampleEnabled() bool {
	_, ok := rc.session.GetSamplingCapability()
	return ok
}

// Sample requests a completion for the given user messages. The request's
// progress token, if any, is forwarded in the sampling request's metadata.
func (rc *RequestContext) Sample(ctx context.Context, messages ...string) (*mcp.CreateMessageResult, error) {
	req := &mcp.CreateMessageRequest{MaxTokens: defaultSampleMaxTokens}
	if tok := rc.req.ProgressToken(); tok != nil && tok != "" {
		req.Meta = mcp.Meta{"progressToken": tok}
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, mcp.SamplingMessage{
			Role:    mcp.RoleUser,
			Content: mcp.ContentBlock{Type: mcp.ContentTypeText, Text: m},
		})
	}
	return rc.SampleRequest(ctx, req)
}

// SampleRequest sends a raw sampling request.
func (rc *RequestContext) SampleRequest(ctx context.Context, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	sampling, ok := rc.session.GetSamplingCapability()
	if !ok {
		return nil, rc.unsupported("sampling")
	}
	if req == nil {
		return nil, errors.New("reqctx: sampling request must not be nil")
	}
	return sampling.CreateMessage(ctx, req)
}

// Progress

// Progress reports completion as a percentage in [0, 100]. It is a no-op
// when the request carries no progress token.
func (rc *RequestContext) Progress(ctx context.Context, percentage int) error {
	if percentage < 0 || percentage > 100 {
		return fmt.Errorf("reqctx: percentage must be between 0 and 100, got %d", percentage)
	}
	return rc.ProgressNotify(ctx, float64(percentage)/100.0, 1.0, "")
}

// ProgressNotify sends a progress notification correlated to the request's
// progress token. It is a no-op when the request carries no token.
func (rc *RequestContext) ProgressNotify(ctx context.Context, progress, total float64, message string) error {
	tok := rc.req.ProgressToken()
	if tok == nil || tok == "" {
		rc.log.WarnContext(ctx, "reqctx.progress.no_token", slog.String("session_id", rc.session.SessionID()))
		return nil
	}
	return rc.session.Notify(ctx, mcp.ProgressNotificationMethod, &mcp.ProgressNotificationParams{
		ProgressToken: tok,
		Progress:      progress,
		Total:         total,
		Message:       message,
	})
}

// Ping round-trips a ping to the client.
func (rc *RequestContext) Ping(ctx context.Context) error { return rc.session.Ping(ctx) }

// Logging

// Log sends a client-visible log message.
func (rc *RequestContext) Log(ctx context.Context, level mcp.LoggingLevel, logger string, data any) error {
	if !mcp.IsValidLoggingLevel(level) {
		return fmt.Errorf("reqctx: invalid logging level %q", level)
	}
	return rc.session.Notify(ctx, mcp.LoggingMessageNotificationMethod, &mcp.LoggingMessageNotification{
		Level:  level,
		Data:   data,
		Logger: logger,
	})
}

func (rc *RequestContext) Debug(ctx context.Context, message string) error {
	return rc.logText(ctx, mcp.LoggingLevelDebug, message)
}

func (rc *RequestContext) Info(ctx context.Context, message string) error {
	return rc.logText(ctx, mcp.LoggingLevelInfo, message)
}

func (rc *RequestContext) Warn(ctx context.Context, message string) error {
	return rc.logText(ctx, mcp.LoggingLevelWarning, message)
}

func (rc *RequestContext) Error(ctx context.Context, message string) error {
	return rc.logText(ctx, mcp.LoggingLevelError, message)
}

func (rc *RequestContext) logText(ctx context.Context, level mcp.LoggingLevel, message string) error {
	if message == "" {
		return errors.New("reqctx: log message must not be empty")
	}
	return rc.Log(ctx, level, "", message)
}

func (rc *RequestContext) unsupported(what string) error {
	info := rc.session.ClientInfo()
	return fmt.Errorf("%w: %s (client %s %s)", ErrCapabilityUnsupported, what, info.Name, info.Version)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
