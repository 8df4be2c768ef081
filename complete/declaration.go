package complete

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ggoodman/mcp-methods-go/internal/logctx"
)

// Declaration binds a method as the completion provider for a prompt or a
// resource URI. Exactly one of Prompt and URI must be set.
type Declaration struct {
	// Method is the exported method name on the bean.
	Method string
	Prompt string
	URI    string
}

func (d Declaration) validate() error {
	switch {
	case d.Prompt == "" && d.URI == "":
		return errors.New("either prompt or uri must be provided")
	case d.Prompt != "" && d.URI != "":
		return errors.New("only one of prompt or uri can be provided")
	}
	return nil
}

// ErrNilRequest is returned when a callback is invoked without a request.
var ErrNilRequest = errors.New("request must not be nil")

// MethodError wraps any failure raised while invoking a completion method or
// converting its result.
type MethodError struct {
	Method string
	Err    error
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("error invoking complete method %s: %v", e.Method, e.Err)
}

func (e *MethodError) Unwrap() error { return e.Err }

// Option configures a completion callback.
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

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}
