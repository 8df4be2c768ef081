package toolchanged

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ggoodman/mcp-methods-go/internal/logctx"
)

// Declaration binds a method as a listener for tool list changes reported
// by the named clients.
type Declaration struct {
	// Method is the exported method name on the bean.
	Method string
	// Clients lists the client connection ids whose tool lists the method
	// receives.
	Clients []string
}

// ErrNilToolList is returned when a callback is invoked with a nil list. An
// empty list is a valid update.
var ErrNilToolList = errors.New("updated tools list must not be nil")

// MethodError wraps a failure raised by a listener method.
type MethodError struct {
	Method string
	Err    error
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("error invoking tool list changed consumer method %s: %v", e.Method, e.Err)
}

func (e *MethodError) Unwrap() error { return e.Err }

// Option configures callbacks, dispatchers and relays.
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
