package complete

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/yosida95/uritemplate/v3"

	"github.com/ggoodman/mcp-methods-go/binding"
	"github.com/ggoodman/mcp-methods-go/internal/logctx"
	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/reqctx"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// maxInputParams bounds the parameters other than progress tokens and meta.
const maxInputParams = 3

var (
	requestType  = reflect.TypeFor[*mcp.CompleteRequest]()
	argumentType = reflect.TypeFor[mcp.CompleteArgument]()

	returnTypes = []reflect.Type{
		reflect.TypeFor[*mcp.CompleteResult](),
		reflect.TypeFor[mcp.CompleteResult](),
		reflect.TypeFor[mcp.Completion](),
		reflect.TypeFor[*mcp.Completion](),
		reflect.TypeFor[[]string](),
		reflect.TypeFor[string](),
	}
)

type flavour struct {
	name      string
	stateless bool
	async     bool
}

var (
	syncFlavour           = flavour{name: "sync"}
	asyncFlavour          = flavour{name: "async", async: true}
	statelessSyncFlavour  = flavour{name: "stateless sync", stateless: true}
	statelessAsyncFlavour = flavour{name: "stateless async", stateless: true, async: true}
)

func (f flavour) rules() binding.Rules {
	allowed := binding.Kinds(binding.KindContext, binding.KindTransport, binding.KindProgressToken,
		binding.KindMeta, binding.KindRequest, binding.KindRequestContext, binding.KindAsyncRequestContext)
	if !f.stateless {
		allowed = allowed.Union(binding.Kinds(binding.KindSession))
	} else {
		allowed = allowed.Without(binding.KindRequestContext, binding.KindAsyncRequestContext)
	}
	return binding.Rules{
		Allowed: allowed,
		Unique: binding.Kinds(binding.KindContext, binding.KindSession, binding.KindTransport, binding.KindProgressToken,
			binding.KindMeta, binding.KindRequest, binding.KindRequestContext, binding.KindAsyncRequestContext),
		Request: requestType,
		Payload: payloadRule,
	}
}

func payloadRule(index int, t reflect.Type) error {
	if t == argumentType || t.Kind() == reflect.String {
		return nil
	}
	return fmt.Errorf("parameter %d of type %s must be a string or mcp.CompleteArgument", index, t)
}

// core is the binding shared by every completion callback variant.
type core struct {
	decl Declaration
	ref  mcp.CompleteReference
	vars []string
	sig  *binding.Signature
	opts options
}

func newCore(bean any, decl Declaration, f flavour, opts []Option) (*core, error) {
	target, err := binding.MethodOf(bean, decl.Method)
	if err != nil {
		return nil, fmt.Errorf("completion %s: %w", decl.Method, err)
	}
	return newCoreFor(target, decl, f, opts)
}

func newCoreFor(target binding.Target, decl Declaration, f flavour, opts []Option) (*core, error) {
	if err := decl.validate(); err != nil {
		return nil, fmt.Errorf("%s completion %s: %w", f.name, target, err)
	}
	c := &core{decl: decl, opts: newOptions(opts)}
	if decl.Prompt != "" {
		c.ref = mcp.PromptReference(decl.Prompt)
	} else {
		c.ref = mcp.ResourceReference(decl.URI)
		tmpl, err := uritemplate.New(decl.URI)
		if err != nil {
			return nil, fmt.Errorf("%s completion %s: invalid URI template %q: %w", f.name, target, decl.URI, err)
		}
		c.vars = tmpl.Varnames()
	}

	sig, err := binding.Analyze(target, f.rules())
	if err != nil {
		return nil, fmt.Errorf("%s completion %s: %w", f.name, c.ref.Identifier(), err)
	}
	if err := validateSignature(sig, f); err != nil {
		return nil, fmt.Errorf("%s completion %s: %s: %w", f.name, c.ref.Identifier(), target, err)
	}
	c.sig = sig
	return c, nil
}

func validateSignature(sig *binding.Signature, f flavour) error {
	inputs := len(sig.Params) - sig.Count(binding.KindProgressToken) - sig.Count(binding.KindMeta)
	if inputs > maxInputParams {
		return fmt.Errorf("method can have at most %d input parameters (excluding mcp.ProgressToken and mcp.Meta), has %d",
			maxInputParams, inputs)
	}
	arguments := 0
	for _, p := range sig.Payload() {
		if p.Type == argumentType {
			arguments++
		}
	}
	if arguments > 1 {
		return errors.New("method cannot have more than one mcp.CompleteArgument parameter")
	}
	if sig.Has(binding.KindRequestContext) && sig.Has(binding.KindAsyncRequestContext) {
		return errors.New("method cannot have more than one request context parameter")
	}
	async := f.async && sig.Return.Async()
	switch {
	case sig.Has(binding.KindRequestContext) && async:
		return errors.New("async complete methods should use *reqctx.AsyncRequestContext instead of *reqctx.RequestContext")
	case sig.Has(binding.KindAsyncRequestContext) && !async:
		return errors.New("sync complete methods should use *reqctx.RequestContext instead of *reqctx.AsyncRequestContext")
	}
	if !f.async && sig.Return.Async() {
		return errors.New("method must not return a deferred result")
	}
	if !sig.Return.ProducesValue() || !slices.Contains(returnTypes, sig.Return.Value) {
		return errors.New("method must return *mcp.CompleteResult, mcp.Completion, []string or string")
	}
	return nil
}

// Reference returns the prompt or resource reference the callback completes.
func (c *core) Reference() mcp.CompleteReference { return c.ref }

// URIVariables returns the template variables of a resource reference.
func (c *core) URIVariables() []string { return append([]string(nil), c.vars...) }

func (c *core) sources(ctx context.Context, session sessions.Session, tc sessions.TransportContext, req *mcp.CompleteRequest) (binding.Sources, error) {
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

func (c *core) invoke(ctx context.Context, src binding.Sources, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	args, err := c.sig.BuildArgs(src, func(p binding.Param) (reflect.Value, error) {
		if p.Type == argumentType {
			return reflect.ValueOf(req.Argument), nil
		}
		return reflect.ValueOf(req.Argument.Value).Convert(p.Type), nil
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
	return convert(val), nil
}

func convert(v any) *mcp.CompleteResult {
	switch r := v.(type) {
	case *mcp.CompleteResult:
		if r != nil {
			return r
		}
	case mcp.CompleteResult:
		return &r
	case mcp.Completion:
		return &mcp.CompleteResult{Completion: r}
	case *mcp.Completion:
		if r != nil {
			return &mcp.CompleteResult{Completion: *r}
		}
	case []string:
		if r != nil {
			return &mcp.CompleteResult{Completion: mcp.Completion{Values: r, Total: len(r)}}
		}
	case string:
		return &mcp.CompleteResult{Completion: mcp.Completion{Values: []string{r}, Total: 1}}
	}
	return &mcp.CompleteResult{Completion: mcp.Completion{Values: []string{}}}
}

func (c *core) call(ctx context.Context, session sessions.Session, tc sessions.TransportContext, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	ctx = logctx.WithCallbackData(ctx, &logctx.CallbackData{Kind: "complete", Name: c.ref.Identifier(), Method: c.sig.String()})
	src, err := c.sources(ctx, session, tc, req)
	if err == nil {
		var res *mcp.CompleteResult
		if res, err = c.invoke(ctx, src, req); err == nil {
			return res, nil
		}
	}
	c.opts.log.DebugContext(ctx, "complete.invoke.fail", slog.String("err", err.Error()))
	return nil, &MethodError{Method: c.sig.String(), Err: binding.Cause(err)}
}
