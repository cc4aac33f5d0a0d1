package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/menezmethod/mwpipe/pipe"
)

const tracerName = "github.com/menezmethod/mwpipe/pipe"

// Trace returns a pipe wrapper that records one span per pipeline run. The
// span is named "pipe <name>" and carries the run's outcome. Errors are
// recorded on the span and returned unchanged.
func Trace[Req, Resp any](name string) pipe.ErrorHandler[Req, Resp] {
	return func(next pipe.EntryPoint[Req, Resp]) pipe.EntryPoint[Req, Resp] {
		return func(ctx context.Context, req Req, params pipe.Params) (pipe.Outcome[Resp], error) {
			ctx, span := otel.Tracer(tracerName).Start(ctx, "pipe "+name,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attribute.String("pipe.name", name)),
			)
			defer span.End()

			out, err := next(ctx, req, params)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.SetAttributes(attribute.String("pipe.outcome", "error"))
				return out, err
			}
			span.SetAttributes(attribute.String("pipe.outcome", out.String()))
			return out, nil
		}
	}
}
