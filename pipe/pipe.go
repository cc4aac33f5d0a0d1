package pipe

import (
	"context"
	"slices"
)

// EntryPoint is the single callable a built pipeline exposes.
type EntryPoint[Req, Resp any] func(ctx context.Context, req Req, params Params) (Outcome[Resp], error)

// ErrorHandler decorates an entry point. It is applied once, at build time,
// and decides how errors raised while running the raw entry point are
// handled.
type ErrorHandler[Req, Resp any] func(EntryPoint[Req, Resp]) EntryPoint[Req, Resp]

// Option configures a Pipe.
type Option[Req, Resp any] func(*Pipe[Req, Resp])

// WithErrorHandler sets the wrapper applied to every entry point built by
// the Pipe.
func WithErrorHandler[Req, Resp any](h ErrorHandler[Req, Resp]) Option[Req, Resp] {
	return func(p *Pipe[Req, Resp]) {
		p.errorHandler = h
	}
}

// Pipe builds entry points from handler chains.
type Pipe[Req, Resp any] struct {
	errorHandler ErrorHandler[Req, Resp]
}

// New returns a Pipe configured with opts.
func New[Req, Resp any](opts ...Option[Req, Resp]) *Pipe[Req, Resp] {
	p := &Pipe[Req, Resp]{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Build returns an entry point running handlers in the order given. The
// handler list is copied, so later changes to the caller's slice do not
// affect the built pipeline. If the Pipe has an error handler, the returned
// entry point is the error handler applied to the raw one.
func (p *Pipe[Req, Resp]) Build(handlers ...Handler[Req, Resp]) EntryPoint[Req, Resp] {
	chain := slices.Clone(handlers)

	entry := func(ctx context.Context, req Req, params Params) (Outcome[Resp], error) {
		return Run(ctx, req, params, chain, 0)
	}

	if p.errorHandler != nil {
		return p.errorHandler(entry)
	}
	return entry
}

// Compose combines wrappers into one ErrorHandler. The first wrapper is the
// outermost: it sees the call first and the result last.
func Compose[Req, Resp any](wrappers ...ErrorHandler[Req, Resp]) ErrorHandler[Req, Resp] {
	return func(entry EntryPoint[Req, Resp]) EntryPoint[Req, Resp] {
		for i := len(wrappers) - 1; i >= 0; i-- {
			entry = wrappers[i](entry)
		}
		return entry
	}
}
