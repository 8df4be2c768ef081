package toolchanged

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/ggoodman/mcp-methods-go/async"
	"github.com/ggoodman/mcp-methods-go/binding"
	"github.com/ggoodman/mcp-methods-go/internal/logctx"
	"github.com/ggoodman/mcp-methods-go/mcp"
)

var toolsType = reflect.TypeFor[[]mcp.Tool]()

// Handler receives tool list updates for its clients.
type Handler interface {
	Clients() []string
	Handle(ctx context.Context, tools []mcp.Tool) error
}

type core struct {
	decl Declaration
	sig  *binding.Signature
	opts options
}

func newCore(bean any, decl Declaration, async bool, opts []Option) (*core, error) {
	target, err := binding.MethodOf(bean, decl.Method)
	if err != nil {
		return nil, fmt.Errorf("tool list changed listener: %w", err)
	}
	return newCoreFor(target, decl, async, opts)
}

func newCoreFor(target binding.Target, decl Declaration, async bool, opts []Option) (*core, error) {
	if len(decl.Clients) == 0 || slices.Contains(decl.Clients, "") {
		return nil, fmt.Errorf("tool list changed listener %s: at least one non-empty client id is required", target)
	}
	ft := target.Type()
	inputs := 0
	for i := 0; i < ft.NumIn(); i++ {
		if binding.Classify(ft.In(i), nil) != binding.KindContext {
			inputs++
		}
	}
	if inputs != 1 {
		return nil, fmt.Errorf("tool list changed listener %s: method must have exactly 1 parameter ([]mcp.Tool)", target)
	}
	sig, err := binding.Analyze(target, binding.Rules{
		Allowed: binding.Kinds(binding.KindContext),
		Unique:  binding.Kinds(binding.KindContext),
		Payload: func(_ int, t reflect.Type) error {
			if t != toolsType {
				return errors.New("parameter must be of type []mcp.Tool")
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tool list changed listener: %w", err)
	}
	switch {
	case async && sig.Return.ProducesValue() && !sig.Return.Async():
		return nil, fmt.Errorf("tool list changed listener %s: method must return nothing, an error or a deferred", target)
	case !async && sig.Return.ProducesValue():
		return nil, fmt.Errorf("tool list changed listener %s: method must return nothing or an error", target)
	}
	return &core{decl: decl, sig: sig, opts: newOptions(opts)}, nil
}

// Clients returns the client ids the listener is registered for.
func (c *core) Clients() []string { return slices.Clone(c.decl.Clients) }

func (c *core) call(ctx context.Context, tools []mcp.Tool) error {
	if tools == nil {
		return ErrNilToolList
	}
	ctx = logctx.WithCallbackData(ctx, &logctx.CallbackData{Kind: "tool_list_changed", Method: c.sig.String()})
	args, err := c.sig.BuildArgs(binding.Sources{Ctx: ctx}, func(binding.Param) (reflect.Value, error) {
		return reflect.ValueOf(slices.Clone(tools)), nil
	})
	if err == nil {
		_, err = c.sig.Await(ctx, args)
	}
	if err != nil {
		c.opts.log.DebugContext(ctx, "toolchanged.invoke.fail", slog.String("err", err.Error()))
		return &MethodError{Method: c.sig.String(), Err: binding.Cause(err)}
	}
	return nil
}

// SyncCallback invokes a listener on the calling goroutine. The method takes
// []mcp.Tool, optionally alongside context.Context, and returns nothing or an
// error.
type SyncCallback struct{ *core }

var _ Handler = (*SyncCallback)(nil)

// NewSync binds decl.Method on bean.
func NewSync(bean any, decl Declaration, opts ...Option) (*SyncCallback, error) {
	c, err := newCore(bean, decl, false, opts)
	if err != nil {
		return nil, err
	}
	return &SyncCallback{c}, nil
}

// NewSyncFunc binds a plain func; decl.Method is used as its name.
func NewSyncFunc(fn any, decl Declaration, opts ...Option) (*SyncCallback, error) {
	target, err := binding.FuncOf(fn, decl.Method)
	if err != nil {
		return nil, err
	}
	c, err := newCoreFor(target, decl, false, opts)
	if err != nil {
		return nil, err
	}
	return &SyncCallback{c}, nil
}

// Call delivers tools to the listener.
func (cb *SyncCallback) Call(ctx context.Context, tools []mcp.Tool) error { return cb.call(ctx, tools) }

func (cb *SyncCallback) Handle(ctx context.Context, tools []mcp.Tool) error { return cb.call(ctx, tools) }

// AsyncCallback defers delivery until the returned deferred is awaited. The
// method may also return a deferred or channel, which is awaited in turn.
type AsyncCallback struct{ *core }

var _ Handler = (*AsyncCallback)(nil)

// NewAsync binds decl.Method on bean.
func NewAsync(bean any, decl Declaration, opts ...Option) (*AsyncCallback, error) {
	c, err := newCore(bean, decl, true, opts)
	if err != nil {
		return nil, err
	}
	return &AsyncCallback{c}, nil
}

// Call returns a deferred delivery of tools.
func (cb *AsyncCallback) Call(tools []mcp.Tool) async.Deferred[struct{}] {
	if tools == nil {
		return async.Fail[struct{}](ErrNilToolList)
	}
	return func(ctx context.Context) (struct{}, error) {
		return struct{}{}, cb.call(ctx, tools)
	}
}

func (cb *AsyncCallback) Handle(ctx context.Context, tools []mcp.Tool) error {
	_, err := cb.Call(tools).Await(ctx)
	return err
}
