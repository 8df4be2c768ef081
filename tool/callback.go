package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/ggoodman/mcp-methods-go/binding"
	"github.com/ggoodman/mcp-methods-go/internal/jsonconv"
	"github.com/ggoodman/mcp-methods-go/internal/logctx"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/reqctx"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

var (
	requestType = reflect.TypeFor[*mcp.CallToolRequest]()
	resultType  = reflect.TypeFor[*mcp.CallToolResult]()
)

// doneText is the text reported by void tools: the JSON encoding of "Done".
const doneText = `"Done"`

// flavour captures what differs between the callback variants.
type flavour struct {
	name      string
	allowed   binding.KindSet
	asyncOnly bool // value-returning methods allowed too; deferred allowed
}

var (
	common = binding.Kinds(binding.KindContext, binding.KindTransport, binding.KindProgressToken, binding.KindMeta, binding.KindRequest)
	unique = binding.Kinds(binding.KindContext, binding.KindSession, binding.KindTransport,
		binding.KindRequestContext, binding.KindAsyncRequestContext, binding.KindMeta, binding.KindRequest)

	syncFlavour           = flavour{name: "sync", allowed: common.Union(binding.Kinds(binding.KindSession, binding.KindRequestContext))}
	asyncFlavour          = flavour{name: "async", allowed: common.Union(binding.Kinds(binding.KindSession, binding.KindAsyncRequestContext)), asyncOnly: true}
	statelessSyncFlavour  = flavour{name: "stateless sync", allowed: common}
	statelessAsyncFlavour = flavour{name: "stateless async", allowed: common, asyncOnly: true}
)

// core is the binding shared by every tool callback variant.
type core struct {
	decl  Declaration
	sig   *binding.Signature
	mode  ReturnMode
	whole bool           // a single payload parameter receives the whole object
	names map[int]string // payload parameter index -> argument name
	tool  mcp.Tool
	opts  options
}

func newCore(bean any, decl Declaration, f flavour, opts []Option) (*core, error) {
	target, err := binding.MethodOf(bean, decl.Method)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", decl.ToolName(), err)
	}
	return newCoreFor(target, decl, f, opts)
}

func newCoreFor(target binding.Target, decl Declaration, f flavour, opts []Option) (*core, error) {
	sig, err := binding.Analyze(target, binding.Rules{
		Allowed: f.allowed,
		Unique:  unique,
		Request: requestType,
		Payload: payloadRule,
	})
	if err != nil {
		return nil, fmt.Errorf("%s tool %q: %w", f.name, decl.ToolName(), err)
	}
	if !f.asyncOnly && sig.Return.Async() {
		return nil, fmt.Errorf("%s tool %q: %s must not return a deferred result", f.name, decl.ToolName(), target)
	}

	c := &core{decl: decl, sig: sig, opts: newOptions(opts)}
	payload := sig.Payload()
	switch {
	case len(decl.Params) == 0 && len(decl.Optional) > 0:
		return nil, fmt.Errorf("tool %q: Optional requires named parameters in Params", decl.ToolName())
	case len(decl.Params) > 0:
		if len(decl.Params) != len(payload) {
			return nil, fmt.Errorf("tool %q: %d parameter names declared but %s has %d payload parameters",
				decl.ToolName(), len(decl.Params), target, len(payload))
		}
		c.names = make(map[int]string, len(payload))
		for i, p := range payload {
			name := decl.Params[i]
			if name == "" || slices.Index(decl.Params, name) != i {
				return nil, fmt.Errorf("tool %q: parameter names must be unique and non-empty", decl.ToolName())
			}
			c.names[p.Index] = name
		}
		for _, name := range decl.Optional {
			if !slices.Contains(decl.Params, name) {
				return nil, fmt.Errorf("tool %q: optional parameter %q is not declared in Params", decl.ToolName(), name)
			}
		}
	case len(payload) == 1 && isObjectType(payload[0].Type):
		c.whole = true
	case len(payload) > 0:
		return nil, fmt.Errorf("tool %q: %s has %d payload parameters; name them with Declaration.Params",
			decl.ToolName(), target, len(payload))
	}

	c.mode = resolveMode(decl, sig.Return)
	c.tool = c.describe(payload)
	return c, nil
}

func payloadRule(index int, t reflect.Type) error {
	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Errorf("parameter %d of type %s cannot be decoded from JSON arguments", index, t)
	}
	return nil
}

func resolveMode(decl Declaration, ret binding.ReturnShape) ReturnMode {
	if !ret.ProducesValue() {
		return ReturnVoid
	}
	if decl.Mode != ReturnAuto {
		return decl.Mode
	}
	if decl.StructuredOutput && ret.Value != resultType && isObjectType(ret.Value) {
		return ReturnStructured
	}
	return ReturnText
}

// isObjectType reports whether values of t encode as JSON objects.
func isObjectType(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		return true
	case reflect.Map:
		return t.Key().Kind() == reflect.String
	}
	return false
}

func (c *core) describe(payload []binding.Param) mcp.Tool {
	t := mcp.Tool{
		Name:        c.decl.ToolName(),
		Title:       c.decl.Title,
		Description: c.decl.Description,
		Annotations: c.decl.Annotations,
		Meta:        c.decl.Meta,
	}
	switch {
	case c.whole:
		t.InputSchema = objectInputSchema(payload[0].Type)
	default:
		names := make([]string, len(payload))
		types := make([]reflect.Type, len(payload))
		for i, p := range payload {
			names[i], types[i] = c.names[p.Index], p.Type
		}
		t.InputSchema = namedInputSchema(names, types, c.decl.Optional)
	}
	if c.mode == ReturnStructured && c.decl.StructuredOutput {
		t.OutputSchema = outputSchema(c.sig.Return.Value)
	}
	return t
}

// sources assembles injectable values for one call. session may be nil.
func (c *core) sources(ctx context.Context, session sessions.Session, tc sessions.TransportContext, req *mcp.CallToolRequest) (binding.Sources, error) {
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

// invoke runs the method and converts its value. Errors returned here are
// raw invocation or argument errors; callers pass them through fail.
func (c *core) invoke(ctx context.Context, src binding.Sources, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var fields map[string]json.RawMessage
	if len(c.names) > 0 {
		var err error
		if fields, err = jsonconv.Fields(req.Arguments); err != nil {
			return nil, err
		}
	}
	args, err := c.sig.BuildArgs(src, func(p binding.Param) (reflect.Value, error) {
		if c.whole {
			return jsonconv.Decode(req.Arguments, p.Type)
		}
		name := c.names[p.Index]
		v, err := jsonconv.Decode(fields[name], p.Type)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("argument %q: %w", name, err)
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	v, err := c.sig.Await(ctx, args)
	if err != nil {
		return nil, err
	}
	return c.convert(v)
}

// convert turns a method value into a CallToolResult.
func (c *core) convert(v reflect.Value) (*mcp.CallToolResult, error) {
	if v.IsValid() && v.CanInterface() {
		switch r := v.Interface().(type) {
		case *mcp.CallToolResult:
			if r != nil {
				return r, nil
			}
		case mcp.CallToolResult:
			return &r, nil
		}
	}
	if c.mode == ReturnVoid {
		return mcp.TextResult(doneText), nil
	}
	val := valueInterface(v)
	if c.mode == ReturnStructured {
		structured, err := jsonconv.Generic(val)
		if err != nil {
			return nil, fmt.Errorf("encoding structured result: %w", err)
		}
		return mcp.StructuredResult(structured), nil
	}
	if val == nil {
		return mcp.TextResult("null"), nil
	}
	if s, ok := val.(string); ok {
		return mcp.TextResult(s), nil
	}
	text, err := jsonconv.Text(val)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.TextResult(text), nil
}

// valueInterface unwraps v, mapping invalid values and nil references to nil.
func valueInterface(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

// fail maps an invocation error to an isError result when the filter accepts
// it, and returns it unchanged otherwise.
func (c *core) fail(ctx context.Context, err error) (*mcp.CallToolResult, error) {
	cause := binding.Cause(err)
	c.opts.log.DebugContext(ctx, "tool.invoke.fail", slog.String("err", err.Error()))
	if !c.opts.filter(cause) {
		return nil, err
	}
	return mcp.ErrorResult("Error invoking method: %s", cause.Error()), nil
}

func (c *core) logContext(ctx context.Context) context.Context {
	return logctx.WithCallbackData(ctx, &logctx.CallbackData{Kind: "tool", Name: c.tool.Name, Method: c.sig.String()})
}

func (c *core) call(ctx context.Context, session sessions.Session, tc sessions.TransportContext, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = c.logContext(ctx)
	src, err := c.sources(ctx, session, tc, req)
	if err != nil {
		return c.fail(ctx, err)
	}
	res, err := c.invoke(ctx, src, req)
	if err != nil {
		return c.fail(ctx, err)
	}
	return res, nil
}
