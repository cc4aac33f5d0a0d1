package pipe

import (
	"context"
	"errors"
)

// ErrNextCalledTwice is returned by a continuation that was already invoked.
var ErrNextCalledTwice = errors.New("pipe: next called more than once")

// Run executes chain starting at index and returns the first terminal
// outcome, or Continue() when the chain ends or a handler stops without
// calling next. Errors returned by handlers are passed through untouched.
func Run[Req, Resp any](ctx context.Context, req Req, params Params, chain []Handler[Req, Resp], index int) (Outcome[Resp], error) {
	if params == nil {
		params = make(Params)
	}
	if index < 0 {
		index = 0
	}
	return run(ctx, req, params, chain, index)
}

func run[Req, Resp any](ctx context.Context, req Req, params Params, chain []Handler[Req, Resp], index int) (Outcome[Resp], error) {
	if index >= len(chain) {
		return Continue[Resp](), nil
	}

	var (
		called     bool
		downstream Outcome[Resp]
	)
	next := func(ctx context.Context, payload ...any) (Outcome[Resp], error) {
		if called {
			return Continue[Resp](), ErrNextCalledTwice
		}
		called = true
		params.setPayload(payload)

		var err error
		downstream, err = run(ctx, req, params, chain, index+1)
		return downstream, err
	}

	out, err := chain[index].Serve(ctx, req, params, next)
	if err != nil {
		return out, err
	}
	if out.Terminal() {
		return out, nil
	}
	if called {
		return downstream, nil
	}
	return Continue[Resp](), nil
}
