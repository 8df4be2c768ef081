package mcpservice

import (
	"context"
	"sync"

	"github.com/ggoodman/mcp-methods-go/sessions"
)

// ChangeNotifier is an in-process fan-out of change signals. Containers use
// it to report list mutations; the zero value is ready to use.
type ChangeNotifier struct {
	mu     sync.RWMutex
	subs   []chan struct{}
	closed bool
}

// ChangeSubscriber hands out channels that receive a signal per change.
type ChangeSubscriber interface {
	Subscriber() <-chan struct{}
}

// Notify signals every subscriber. Sends never block: a subscriber that has
// not drained its previous signal keeps only that one.
func (cn *ChangeNotifier) Notify(ctx context.Context) error {
	cn.mu.RLock()
	defer cn.mu.RUnlock()
	if cn.closed {
		return nil
	}
	for _, ch := range cn.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Close closes every subscriber channel. Later subscribers receive a closed
// channel.
func (cn *ChangeNotifier) Close() {
	cn.mu.Lock()
	if cn.closed {
		cn.mu.Unlock()
		return
	}
	cn.closed = true
	subs := cn.subs
	cn.subs = nil
	cn.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}

// Subscriber returns a channel with a buffer of one that receives a signal
// whenever Notify is called.
func (cn *ChangeNotifier) Subscriber() <-chan struct{} {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	ch := make(chan struct{}, 1)
	if cn.closed {
		close(ch)
		return ch
	}
	cn.subs = append(cn.subs, ch)
	return ch
}

// watch calls fn for every signal on sub's channel until ctx is done or the
// channel closes.
func watch(ctx context.Context, sub ChangeSubscriber, fn func()) {
	ch := sub.Subscriber()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				fn()
			}
		}
	}()
}

type toolsListChanged struct{ sub ChangeSubscriber }

func (t toolsListChanged) Register(ctx context.Context, session sessions.Session, fn NotifyToolsListChangedFunc) (bool, error) {
	if t.sub == nil || fn == nil {
		return false, nil
	}
	watch(ctx, t.sub, func() { fn(ctx, session) })
	return true, nil
}

type resourcesListChanged struct{ sub ChangeSubscriber }

func (r resourcesListChanged) Register(ctx context.Context, session sessions.Session, fn NotifyResourceChangeFunc) (bool, error) {
	if r.sub == nil || fn == nil {
		return false, nil
	}
	watch(ctx, r.sub, func() { fn(ctx, session, "") })
	return true, nil
}
