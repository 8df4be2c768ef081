package toolchanged

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/ggoodman/mcp-methods-go/mcp"
)

// Dispatcher routes tool list updates to the listeners registered for the
// reporting client. It is safe for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	byClient map[string][]Handler
	log      *slog.Logger
}

// NewDispatcher returns a dispatcher serving handlers.
func NewDispatcher(handlers []Handler, opts ...Option) *Dispatcher {
	o := newOptions(opts)
	d := &Dispatcher{byClient: make(map[string][]Handler), log: o.log}
	for _, h := range handlers {
		d.Add(h)
	}
	return d
}

// Add registers h for each of its clients.
func (d *Dispatcher) Add(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range h.Clients() {
		d.byClient[id] = append(d.byClient[id], h)
	}
}

// Clients returns the sorted client ids that have listeners.
func (d *Dispatcher) Clients() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.byClient))
	for id := range d.byClient {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Handlers returns the listeners registered for clientID.
func (d *Dispatcher) Handlers(clientID string) []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.byClient[clientID])
}

// Dispatch delivers tools to every listener of clientID in registration
// order. All listeners run even when some fail; their errors are joined.
func (d *Dispatcher) Dispatch(ctx context.Context, clientID string, tools []mcp.Tool) error {
	if tools == nil {
		return ErrNilToolList
	}
	handlers := d.Handlers(clientID)
	if len(handlers) == 0 {
		d.log.DebugContext(ctx, "toolchanged.dispatch.no_listeners", slog.String("client", clientID))
		return nil
	}
	var errs []error
	for _, h := range handlers {
		if err := h.Handle(ctx, tools); err != nil {
			d.log.WarnContext(ctx, "toolchanged.dispatch.fail", slog.String("client", clientID), slog.String("err", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
