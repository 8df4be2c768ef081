// Package sessions defines the session abstraction handed to bound methods.
// A session represents the negotiated protocol version, authenticated
// principal, client identity and optional capability surface for a connected
// client. Transports (or an SDK adapter such as package gosdk) implement
// Session and pass it to callbacks on every request.
//
// # Capabilities
//
// A Session may expose optional capability interfaces (sampling, roots,
// elicitation). Absence simply means the client did not advertise that
// surface; request contexts translate absence into ErrCapabilityUnsupported.
//
// # Transport context
//
// Stateless servers have no session. They hand callbacks a TransportContext
// instead, a read-only bag of transport metadata. WithTransportContext and
// TransportContextFrom carry it through a context.Context:
//
//	ctx = sessions.WithTransportContext(ctx, sessions.MapTransportContext{"authorization": tok})
//	res, err := cb.Call(ctx, sessions.TransportContextFrom(ctx), req)
package sessions
