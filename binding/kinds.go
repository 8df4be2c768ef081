package binding

import (
	"context"
	"reflect"
	"strings"

	"github.com/ggoodman/mcp-methods-go/mcp"
	"github.com/ggoodman/mcp-methods-go/reqctx"
	"github.com/ggoodman/mcp-methods-go/sessions"
)

// ParamKind classifies a method parameter by what gets injected into it.
type ParamKind uint8

const (
	// KindPayload parameters are bound from request data by the callback
	// (tool arguments, URI variables, completion values).
	KindPayload ParamKind = iota
	KindContext
	KindSession
	KindTransport
	KindRequestContext
	KindAsyncRequestContext
	KindProgressToken
	KindMeta
	KindRequest

	numKinds
)

var kindNames = [...]string{
	KindPayload:             "payload",
	KindContext:             "context.Context",
	KindSession:             "sessions.Session",
	KindTransport:           "sessions.TransportContext",
	KindRequestContext:      "*reqctx.RequestContext",
	KindAsyncRequestContext: "*reqctx.AsyncRequestContext",
	KindProgressToken:       "mcp.ProgressToken",
	KindMeta:                "mcp.Meta",
	KindRequest:             "request",
}

func (k ParamKind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return "unknown"
}

// KindSet is a set of ParamKinds.
type KindSet uint16

// Kinds builds a KindSet.
func Kinds(ks ...ParamKind) KindSet {
	var s KindSet
	for _, k := range ks {
		s |= 1 << k
	}
	return s
}

func (s KindSet) Has(k ParamKind) bool { return s&(1<<k) != 0 }

// Union returns the kinds in either set.
func (s KindSet) Union(o KindSet) KindSet { return s | o }

// Without returns s minus the given kinds.
func (s KindSet) Without(ks ...ParamKind) KindSet { return s &^ Kinds(ks...) }

func (s KindSet) String() string {
	var parts []string
	for k := ParamKind(0); k < numKinds; k++ {
		if s.Has(k) {
			parts = append(parts, k.String())
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Bidirectional kinds require a live session; stateless callbacks cannot
// provide them.
var Bidirectional = Kinds(KindSession, KindRequestContext, KindAsyncRequestContext)

var (
	contextType             = reflect.TypeFor[context.Context]()
	errorType               = reflect.TypeFor[error]()
	sessionType             = reflect.TypeFor[sessions.Session]()
	transportType           = reflect.TypeFor[sessions.TransportContext]()
	requestContextType      = reflect.TypeFor[*reqctx.RequestContext]()
	asyncRequestContextType = reflect.TypeFor[*reqctx.AsyncRequestContext]()
	progressTokenType       = reflect.TypeFor[mcp.ProgressToken]()
	metaType                = reflect.TypeFor[mcp.Meta]()
)

// Classify maps a parameter type to its kind. requestType is the request
// type of the callback being built (nil when it has none).
func Classify(t, requestType reflect.Type) ParamKind {
	switch t {
	case contextType:
		return KindContext
	case sessionType:
		return KindSession
	case transportType:
		return KindTransport
	case requestContextType:
		return KindRequestContext
	case asyncRequestContextType:
		return KindAsyncRequestContext
	case progressTokenType:
		return KindProgressToken
	case metaType:
		return KindMeta
	}
	if requestType != nil && t == requestType {
		return KindRequest
	}
	return KindPayload
}
