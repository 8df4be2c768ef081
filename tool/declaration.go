package tool

import (
	"errors"
	"log/slog"

	"github.com/ggoodman/mcp-methods-go/internal/logctx"
	"github.com/ggoodman/mcp-methods-go/mcp"
)

// ReturnMode selects how a method's return value becomes a CallToolResult.
type ReturnMode int

const (
	// ReturnAuto picks ReturnVoid for methods without a value, ReturnStructured
	// when the declaration asks for an output schema and the value is an object,
	// and ReturnText otherwise.
	ReturnAuto ReturnMode = iota
	// ReturnText renders the value as a single text block: strings verbatim,
	// everything else as JSON.
	ReturnText
	// ReturnStructured places the JSON form of the value in structuredContent.
	ReturnStructured
	// ReturnVoid ignores the value and reports "Done".
	ReturnVoid
)

func (m ReturnMode) String() string {
	switch m {
	case ReturnAuto:
		return "auto"
	case ReturnText:
		return "text"
	case ReturnStructured:
		return "structured"
	case ReturnVoid:
		return "void"
	}
	return "unknown"
}

// Declaration names a method as a tool and carries the tool's metadata.
type Declaration struct {
	// Method is the exported method name on the bean.
	Method string
	// Name is the tool name. Defaults to Method.
	Name        string
	Title       string
	Description string
	// Params names the payload parameters in declaration order. Leave empty
	// when the method takes a single struct or map receiving all arguments.
	Params []string
	// Optional lists names from Params that are not required in the input
	// schema. Pointer-typed parameters are always optional.
	Optional []string
	Mode     ReturnMode
	// StructuredOutput asks for an output schema derived from the return type
	// and, under ReturnAuto, for structured results.
	StructuredOutput bool
	Annotations      *mcp.ToolAnnotations
	Meta             map[string]any
}

// ToolName returns the advertised tool name.
func (d Declaration) ToolName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Method
}

// ErrNilRequest is returned when a callback is invoked without a request.
var ErrNilRequest = errors.New("request must not be nil")

// ErrorFilter decides whether an invocation error becomes an isError result
// (true) or is returned to the caller (false).
type ErrorFilter func(err error) bool

// AllErrors converts every invocation error into an isError result.
func AllErrors(error) bool { return true }

// Option configures a tool callback.
type Option func(*options)

type options struct {
	filter ErrorFilter
	log    *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{filter: AllErrors}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logctx.Wrap(o.log)
	return o
}

// WithErrorFilter limits which invocation errors are reported as isError
// results. Errors rejected by the filter are returned from Call.
func WithErrorFilter(f ErrorFilter) Option {
	return func(o *options) {
		if f != nil {
			o.filter = f
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}
