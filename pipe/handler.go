package pipe

import "context"

// Next advances the pipeline to the following handler, optionally forwarding
// a payload, and returns what the rest of the chain produced. It may be
// called at most once.
type Next[Resp any] func(ctx context.Context, payload ...any) (Outcome[Resp], error)

// Handler is one unit of request processing in a chain.
type Handler[Req, Resp any] interface {
	Serve(ctx context.Context, req Req, params Params, next Next[Resp]) (Outcome[Resp], error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc[Req, Resp any] func(ctx context.Context, req Req, params Params, next Next[Resp]) (Outcome[Resp], error)

// Serve calls f.
func (f HandlerFunc[Req, Resp]) Serve(ctx context.Context, req Req, params Params, next Next[Resp]) (Outcome[Resp], error) {
	return f(ctx, req, params, next)
}
