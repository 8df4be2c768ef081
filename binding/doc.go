// Package binding is the signature analysis and invocation engine shared by
// every callback kind.
//
// A callback package (tool, resource, complete, toolchanged) describes the
// parameter shapes it accepts with a Rules table and hands a Target to
// Analyze. Each parameter is classified by type:
//
//	context.Context              the call's context
//	sessions.Session             the exchange of the request
//	sessions.TransportContext    transport metadata
//	*reqctx.RequestContext       sync request context
//	*reqctx.AsyncRequestContext  async request context
//	mcp.ProgressToken            the request's progress token
//	mcp.Meta                     the request's _meta object
//	the callback's request type  the request itself
//	anything else                payload, bound by the callback
//
// Results may be returned directly, through a deferred
// (func(context.Context) (T, error), e.g. async.Deferred[T]) or through a
// receive channel, optionally followed by an error.
//
// At call time the callback fills Sources, lets BuildArgs assemble the
// argument list and invokes the method with Call and Resolve. Panics are
// recovered into *PanicError and every failure surfaces as *InvocationError.
package binding
