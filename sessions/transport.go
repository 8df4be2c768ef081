package sessions

import (
	"context"
	"maps"
	"slices"
)

// TransportContext is a read-only view of metadata the transport captured for
// the current request. Stateless callbacks receive it in place of a Session.
type TransportContext interface {
	Get(key string) (any, bool)
	Keys() []string
}

// MapTransportContext is a TransportContext backed by a map. The zero value is
// an empty context.
type MapTransportContext map[string]any

var _ TransportContext = MapTransportContext(nil)

func (m MapTransportContext) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys returns the keys in sorted order.
func (m MapTransportContext) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// EmptyTransportContext carries no values.
var EmptyTransportContext TransportContext = MapTransportContext(nil)

type transportContextKey struct{}

// WithTransportContext returns a child context carrying tc.
func WithTransportContext(ctx context.Context, tc TransportContext) context.Context {
	return context.WithValue(ctx, transportContextKey{}, tc)
}

// TransportContextFrom returns the transport context attached to ctx, or
// EmptyTransportContext.
func TransportContextFrom(ctx context.Context) TransportContext {
	if ctx != nil {
		if tc, ok := ctx.Value(transportContextKey{}).(TransportContext); ok && tc != nil {
			return tc
		}
	}
	return EmptyTransportContext
}
