package toolchanged

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ggoodman/mcp-methods-go/broker"
	"github.com/ggoodman/mcp-methods-go/mcp"
)

// DefaultNamespace is the broker namespace relays use unless configured.
const DefaultNamespace = "tools-list-changed"

// Snapshot is the message relays exchange through a broker.
type Snapshot struct {
	ID     string     `json:"id"`
	Client string     `json:"client"`
	Tools  []mcp.Tool `json:"tools"`
	SentAt time.Time  `json:"sentAt"`
}

// ToolSource is a changing tool list, such as *mcpservice.ToolsContainer.
type ToolSource interface {
	Snapshot() []mcp.Tool
	Subscriber() <-chan struct{}
}

// Relay carries tool list updates to a Dispatcher. Without a broker updates
// are dispatched in process; with one they are published and every relay
// listening on the namespace dispatches them.
type Relay struct {
	dispatcher *Dispatcher
	broker     broker.Broker
	namespace  string
	log        *slog.Logger
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithBroker publishes snapshots to b under namespace. An empty namespace
// selects DefaultNamespace.
func WithBroker(b broker.Broker, namespace string) RelayOption {
	return func(r *Relay) {
		r.broker = b
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithRelayLogger sets the relay logger.
func WithRelayLogger(l *slog.Logger) RelayOption {
	return func(r *Relay) { r.log = newOptions([]Option{WithLogger(l)}).log }
}

// NewRelay returns a relay feeding d.
func NewRelay(d *Dispatcher, opts ...RelayOption) *Relay {
	r := &Relay{dispatcher: d, namespace: DefaultNamespace, log: d.log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish reports that clientID's tool list is now tools.
func (r *Relay) Publish(ctx context.Context, clientID string, tools []mcp.Tool) error {
	if tools == nil {
		return ErrNilToolList
	}
	snap := Snapshot{ID: uuid.NewString(), Client: clientID, Tools: tools, SentAt: time.Now().UTC()}
	if r.broker == nil {
		return r.deliver(ctx, snap)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding tool list snapshot: %w", err)
	}
	eventID, err := r.broker.Publish(ctx, r.namespace, data)
	if err != nil {
		return err
	}
	r.log.DebugContext(ctx, "toolchanged.relay.published",
		slog.String("client", clientID), slog.String("snapshot", snap.ID), slog.String("event", eventID))
	return nil
}

// Watch publishes src's tool list as clientID's whenever src signals a
// change. It returns when ctx is done or src stops signalling.
func (r *Relay) Watch(ctx context.Context, clientID string, src ToolSource) error {
	ch := src.Subscriber()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			if err := r.Publish(ctx, clientID, src.Snapshot()); err != nil {
				r.log.WarnContext(ctx, "toolchanged.relay.publish_fail", slog.String("client", clientID), slog.String("err", err.Error()))
			}
		}
	}
}

// Listen dispatches snapshots published on the broker until ctx is done.
// Listener failures are logged and do not stop the relay. Without a broker
// Listen blocks until ctx is done.
func (r *Relay) Listen(ctx context.Context) error {
	if r.broker == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return r.broker.Subscribe(ctx, r.namespace, "", func(ctx context.Context, env broker.MessageEnvelope) error {
		var snap Snapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			r.log.WarnContext(ctx, "toolchanged.relay.bad_snapshot", slog.String("event", env.ID), slog.String("err", err.Error()))
			return nil
		}
		if snap.Tools == nil {
			snap.Tools = []mcp.Tool{}
		}
		if err := r.deliver(ctx, snap); err != nil {
			r.log.WarnContext(ctx, "toolchanged.relay.dispatch_fail", slog.String("snapshot", snap.ID), slog.String("err", err.Error()))
		}
		return nil
	})
}

func (r *Relay) deliver(ctx context.Context, snap Snapshot) error {
	return r.dispatcher.Dispatch(ctx, snap.Client, snap.Tools)
}
