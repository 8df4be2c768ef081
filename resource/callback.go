package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/yosida95/uritemplate/v3"

	"github.com/ggoodman/mcp-methods-go/binding"
	"github.com/ggoodman/mcp-methods-go/internal/jsonconv"
	"github.com/ggoodman/mcp-methods-go/internal/logctx"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/reqctx"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

var requestType = reflect.TypeFor[*mcp.ReadResourceRequest]()

type flavour struct {
	name    string
	allowed binding.KindSet
	async   bool
}

var (
	common = binding.Kinds(binding.KindContext, binding.KindTransport, binding.KindProgressToken, binding.KindMeta, binding.KindRequest)
	// Progress tokens may repeat; every other injectable kind is unique.
	unique = binding.Kinds(binding.KindContext, binding.KindSession, binding.KindTransport,
		binding.KindRequestContext, binding.KindAsyncRequestContext, binding.KindMeta, binding.KindRequest)

	syncFlavour           = flavour{name: "sync", allowed: common.Union(binding.Kinds(binding.KindSession, binding.KindRequestContext))}
	asyncFlavour          = flavour{name: "async", allowed: common.Union(binding.Kinds(binding.KindSession, binding.KindAsyncRequestContext)), async: true}
	statelessSyncFlavour  = flavour{name: "stateless sync", allowed: common}
	statelessAsyncFlavour = flavour{name: "stateless async", allowed: common, async: true}
)

// core is the binding shared by every resource callback variant.
type core struct {
	decl  Declaration
	sig   *binding.Signature
	tmpl  *uritemplate.Template // nil for concrete URIs
	vars  []string
	whole bool // a single struct parameter receives every URI variable
	conv  converter
	opts  options
}

func newCore(bean any, decl Declaration, f flavour, opts []Option) (*core, error) {
	target, err := binding.MethodOf(bean, decl.Method)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", decl.URI, err)
	}
	return newCoreFor(target, decl, f, opts)
}

func newCoreFor(target binding.Target, decl Declaration, f flavour, opts []Option) (*core, error) {
	if decl.URI == "" {
		return nil, fmt.Errorf("%s resource %s: URI must not be empty", f.name, target)
	}
	c := &core{decl: decl, opts: newOptions(opts)}
	if binding.IsURITemplate(decl.URI) {
		tmpl, err := uritemplate.New(decl.URI)
		if err != nil {
			return nil, fmt.Errorf("resource %q: invalid URI template: %w", decl.URI, err)
		}
		c.tmpl, c.vars = tmpl, tmpl.Varnames()
	}

	sig, err := binding.Analyze(target, binding.Rules{
		Allowed: f.allowed,
		Unique:  unique,
		Request: requestType,
		Payload: payloadRule,
	})
	if err != nil {
		return nil, fmt.Errorf("%s resource %q: %w", f.name, decl.URI, err)
	}
	if !f.async && sig.Return.Async() {
		return nil, fmt.Errorf("%s resource %q: %s must not return a deferred result", f.name, decl.URI, target)
	}
	if !sig.Return.ProducesValue() || !supportedReturn(sig.Return.Value) {
		return nil, fmt.Errorf("%s resource %q: %s must return %s", f.name, decl.URI, target, returnTypes)
	}
	c.sig = sig

	if err := c.planPayload(); err != nil {
		return nil, fmt.Errorf("%s resource %q: %s: %w", f.name, decl.URI, target, err)
	}
	if c.conv, err = newConverter(decl); err != nil {
		return nil, fmt.Errorf("resource %q: %w", decl.URI, err)
	}
	return c, nil
}

func payloadRule(index int, t reflect.Type) error {
	if t.Kind() == reflect.String || isStruct(t) {
		return nil
	}
	return fmt.Errorf("parameter %d of type %s cannot receive a URI variable", index, t)
}

func isStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// planPayload matches payload parameters to URI variables. Concrete URIs
// accept at most one string parameter, which receives the request URI.
func (c *core) planPayload() error {
	payload := c.sig.Payload()
	if c.tmpl == nil {
		switch {
		case len(payload) == 0:
			return nil
		case len(payload) == 1 && payload[0].Type.Kind() == reflect.String:
			return nil
		}
		return errors.New("method for a concrete URI may only take one string parameter")
	}
	if len(payload) == 1 && isStruct(payload[0].Type) {
		c.whole = true
		return nil
	}
	for _, p := range payload {
		if p.Type.Kind() != reflect.String {
			return fmt.Errorf("parameter %d of type %s must be a string", p.Index, p.Type)
		}
	}
	switch {
	case len(payload) < len(c.vars):
		return fmt.Errorf("method must have parameters for all URI variables %v", c.vars)
	case len(payload) > len(c.vars):
		return fmt.Errorf("method has %d string parameters but the URI has %d variables", len(payload), len(c.vars))
	}
	return nil
}

// IsTemplate reports whether the declaration URI is a template.
func (c *core) IsTemplate() bool { return c.tmpl != nil }

func (c *core) resource() mcp.Resource {
	return mcp.Resource{
		URI:         c.decl.URI,
		Name:        c.decl.ResourceName(),
		Title:       c.decl.Title,
		Description: c.decl.Description,
		MimeType:    c.conv.mimeType,
		Annotations: c.decl.Annotations,
	}
}

func (c *core) template() mcp.ResourceTemplate {
	return mcp.ResourceTemplate{
		URITemplate: c.decl.URI,
		Name:        c.decl.ResourceName(),
		Title:       c.decl.Title,
		Description: c.decl.Description,
		MimeType:    c.conv.mimeType,
		Annotations: c.decl.Annotations,
	}
}

// matches reports whether uri is served by this callback.
func (c *core) matches(uri string) bool {
	if c.tmpl == nil {
		return uri == c.decl.URI
	}
	_, err := c.variables(uri)
	return err == nil
}

// variables extracts the template variables from uri.
func (c *core) variables(uri string) (map[string]string, error) {
	if c.tmpl == nil {
		return nil, nil
	}
	values := c.tmpl.Match(uri)
	out := make(map[string]string, len(c.vars))
	for _, name := range c.vars {
		if v, ok := values[name]; ok {
			out[name] = v.String()
		}
	}
	if len(out) != len(c.vars) {
		return nil, fmt.Errorf("failed to extract all URI variables from request URI: %s", uri)
	}
	return out, nil
}

func (c *core) sources(ctx context.Context, session sessions.Session, tc sessions.TransportContext, req *mcp.ReadResourceRequest) (binding.Sources, error) {
	src := binding.Sources{
		Ctx:           ctx,
		Session:       session,
		Transport:     tc,
		ProgressToken: req.ProgressToken(),
		Meta:          req.Meta,
		Request:       req,
	}
	if session != nil && tc == nil {
		src.Transport = session.TransportContext()
	}
	var err error
	if c.sig.Has(binding.KindRequestContext) {
		src.RequestContext, err = reqctx.New(req, session, reqctx.WithLogger(c.opts.log))
	}
	if c.sig.Has(binding.KindAsyncRequestContext) {
		src.AsyncRequestContext, err = reqctx.NewAsync(req, session, reqctx.WithLogger(c.opts.log))
	}
	return src, err
}

func (c *core) invoke(ctx context.Context, src binding.Sources, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	vars, err := c.variables(req.URI)
	if err != nil {
		return nil, err
	}
	next := 0
	args, err := c.sig.BuildArgs(src, func(p binding.Param) (reflect.Value, error) {
		switch {
		case c.whole:
			raw, err := json.Marshal(vars)
			if err != nil {
				return reflect.Value{}, err
			}
			return jsonconv.Decode(raw, p.Type)
		case c.tmpl == nil:
			return reflect.ValueOf(req.URI).Convert(p.Type), nil
		}
		name := c.vars[next]
		next++
		return reflect.ValueOf(vars[name]).Convert(p.Type), nil
	})
	if err != nil {
		return nil, err
	}
	v, err := c.sig.Await(ctx, args)
	if err != nil {
		return nil, err
	}
	var val any
	if v.IsValid() {
		val = v.Interface()
	}
	return c.conv.convert(val, req.URI), nil
}

// fail reports err as an invalid-params protocol error. Protocol errors
// raised by the method pass through unchanged.
func (c *core) fail(ctx context.Context, err error) error {
	c.opts.log.DebugContext(ctx, "resource.read.fail", slog.String("uri", c.decl.URI), slog.String("err", err.Error()))
	var me *mcp.Error
	if errors.As(err, &me) {
		return me
	}
	cause := binding.Cause(err)
	return mcp.NewError(mcp.CodeInvalidParams, "error invoking resource method %s for %s: %v",
		c.sig, c.decl.URI, cause).WithData(cause.Error())
}

func (c *core) call(ctx context.Context, session sessions.Session, tc sessions.TransportContext, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ctx = logctx.WithCallbackData(ctx, &logctx.CallbackData{Kind: "resource", Name: c.decl.URI, Method: c.sig.String()})
	src, err := c.sources(ctx, session, tc, req)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	res, err := c.invoke(ctx, src, req)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	return res, nil
}
