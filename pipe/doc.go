// Package pipe runs an ordered chain of handlers against a single request.
//
// Each handler receives the request, a shared Params bag and a continuation
// (Next). A handler either answers the request by returning Respond(r), which
// stops the chain, or hands control to the rest of the chain by calling next.
// A handler that returns Continue() without calling next ends the run with no
// response, which callers treat as "fall through to default handling".
//
//	p := pipe.New[*http.Request, *Reply]()
//	entry := p.Build(authenticate, loadUser, render)
//	out, err := entry(ctx, r, pipe.NewParams(routeParams))
//	if reply, ok := out.Response(); ok {
//		// write reply
//	}
//
// # Payload
//
// next accepts an optional payload. The payload is stored in Params under
// PayloadKey for the next handler only: calling next with no payload clears
// it.
//
//	func decode(ctx context.Context, r *http.Request, p pipe.Params, next pipe.Next[*Reply]) (pipe.Outcome[*Reply], error) {
//		var body Body
//		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
//			return pipe.Respond(badRequest(err)), nil
//		}
//		return next(ctx, body)
//	}
//
// # Outcome precedence
//
// A returned Respond always wins, even when the handler already called next.
// A handler that called next and returns Continue() relays whatever the rest
// of the chain produced.
//
// # Errors
//
// The driver never recovers panics or swallows errors: they surface from the
// entry point unchanged. Use WithErrorHandler to decorate the entry point with
// a policy of your own.
package pipe
