// Package provider turns beans into bound callbacks.
//
// A bean advertises the methods it wants bound by implementing one or more
// of ToolBean, ResourceBean, CompleteBean and ToolListChangedBean. Providers
// collect the declarations, drop methods whose shape does not fit the
// provider's Mode (logging a warning for each), and bind the rest:
//
//	tools, err := provider.NewToolProvider(provider.Sync, []any{&weather{}}).Container()
//
// Binding errors for methods that pass the filters are returned, not
// skipped.
package provider

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/ggoodman/mcp-methods-go/binding"
	"github.com/ggoodman/mcp-methods-go/complete"
	"github.com/ggoodman/mcp-methods-go/internal/logctx"
	"github.com/ggoodman/mcp-methods-go/resource"
	"github.com/ggoodman/mcp-methods-go/tool"
	"github.com/ggoodman/mcp-methods-go/toolchanged"
)

// ToolBean declares tool methods.
type ToolBean interface {
	MCPTools() []tool.Declaration
}

// ResourceBean declares resource methods.
type ResourceBean interface {
	MCPResources() []resource.Declaration
}

// CompleteBean declares completion methods.
type CompleteBean interface {
	MCPCompletions() []complete.Declaration
}

// ToolListChangedBean declares tool list change listeners.
type ToolListChangedBean interface {
	MCPToolListChanged() []toolchanged.Declaration
}

// Mode selects the callback flavour a provider builds.
type Mode int

const (
	// Sync binds methods that return plain values. Methods returning a
	// deferred or channel are skipped.
	Sync Mode = iota
	// Async binds methods that return a deferred or channel. Other methods
	// are skipped.
	Async
	// StatelessSync is Sync for servers without sessions. Methods taking a
	// session or request context are skipped.
	StatelessSync
	// StatelessAsync is Async for servers without sessions.
	StatelessAsync
)

var modeNames = map[Mode]string{
	Sync:           "sync",
	Async:          "async",
	StatelessSync:  "stateless-sync",
	StatelessAsync: "stateless-async",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Decode implements envdecode.Decoder.
func (m *Mode) Decode(s string) error {
	for mode, name := range modeNames {
		if name == s {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown provider mode %q", s)
}

func (m Mode) async() bool     { return m == Async || m == StatelessAsync }
func (m Mode) stateless() bool { return m == StatelessSync || m == StatelessAsync }

// Option configures a provider.
type Option func(*options)

type options struct {
	log *slog.Logger
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logctx.Wrap(o.log)
	return o
}

// WithLogger sets the logger for filter decisions and the callbacks built.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// accept reports whether the method named on bean fits mode. Rejected
// methods are logged at warn. Methods that cannot be resolved are accepted so
// that binding reports the problem.
func accept(log *slog.Logger, mode Mode, kind string, bean any, method string) bool {
	target, err := binding.MethodOf(bean, method)
	if err != nil {
		return true
	}
	ft := target.Type()
	deferred := binding.IsDeferredReturn(ft)
	switch {
	case mode.async() && !deferred:
		log.Warn("provider.skip.non_deferred_return",
			slog.String("kind", kind), slog.String("method", target.String()),
			slog.String("return", returnString(ft)),
			slog.String("reason", "async providers only bind methods returning a deferred or channel"))
		return false
	case !mode.async() && deferred:
		log.Warn("provider.skip.deferred_return",
			slog.String("kind", kind), slog.String("method", target.String()),
			slog.String("return", returnString(ft)),
			slog.String("reason", "sync providers do not bind methods returning a deferred or channel"))
		return false
	case mode.stateless() && binding.HasBidirectionalParams(ft):
		log.Warn("provider.skip.bidirectional",
			slog.String("kind", kind), slog.String("method", target.String()),
			slog.String("reason", "stateless providers do not bind methods taking a session or request context"))
		return false
	}
	return true
}

func returnString(ft reflect.Type) string {
	if ft.NumOut() == 0 {
		return "none"
	}
	s := ft.Out(0).String()
	for i := 1; i < ft.NumOut(); i++ {
		s += ", " + ft.Out(i).String()
	}
	return s
}

type entry[D any] struct {
	bean any
	decl D
}

// collect gathers the declarations of every bean implementing B.
func collect[B any, D any](log *slog.Logger, kind string, beans []any, decls func(B) []D) []entry[D] {
	var out []entry[D]
	for _, bean := range beans {
		b, ok := bean.(B)
		if !ok {
			log.Debug("provider.bean.no_declarations", slog.String("kind", kind), slog.String("bean", fmt.Sprintf("%T", bean)))
			continue
		}
		for _, d := range decls(b) {
			out = append(out, entry[D]{bean: bean, decl: d})
		}
	}
	return out
}
