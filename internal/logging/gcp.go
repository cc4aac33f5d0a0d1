package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Special payload fields understood by Cloud Logging.
// https://cloud.google.com/logging/docs/structured-logging#special-payload-fields
const (
	gcpTraceKey   = "logging.googleapis.com/trace"
	gcpSpanKey    = "logging.googleapis.com/spanId"
	gcpSampledKey = "logging.googleapis.com/trace_sampled"
)

var severityByLevel = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARNING",
	slog.LevelError: "ERROR",
}

// GCPOptions configures a GCPHandler.
type GCPOptions struct {
	// Service labels the generic_task resource.
	Service string
	// Project prefixes trace IDs as projects/<Project>/traces/<id>. Empty
	// writes the bare trace ID.
	Project string
	// AddResource attaches a generic_task resource to every record.
	AddResource bool
}

// GCPHandler decorates records so Cloud Logging parses them natively: it
// adds severity, the optional resource, and the trace and span of the
// active OpenTelemetry span so log lines join their pipeline traces.
type GCPHandler struct {
	inner slog.Handler
	opts  GCPOptions
}

// NewGCPHandler returns a GCPHandler wrapping inner.
func NewGCPHandler(inner slog.Handler, opts GCPOptions) *GCPHandler {
	return &GCPHandler{inner: inner, opts: opts}
}

func (h *GCPHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *GCPHandler) Handle(ctx context.Context, r slog.Record) error {
	sev, ok := severityByLevel[r.Level]
	if !ok {
		sev = "DEFAULT"
	}
	r.AddAttrs(slog.String("severity", sev))

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		traceID := sc.TraceID().String()
		if h.opts.Project != "" {
			traceID = "projects/" + h.opts.Project + "/traces/" + traceID
		}
		r.AddAttrs(
			slog.String(gcpTraceKey, traceID),
			slog.String(gcpSpanKey, sc.SpanID().String()),
			slog.Bool(gcpSampledKey, sc.IsSampled()),
		)
	}

	if h.opts.AddResource {
		r.AddAttrs(slog.Group("resource",
			slog.String("type", "generic_task"),
			slog.Group("labels", slog.String("service", h.opts.Service)),
		))
	}
	return h.inner.Handle(ctx, r)
}

func (h *GCPHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &GCPHandler{inner: h.inner.WithAttrs(attrs), opts: h.opts}
}

func (h *GCPHandler) WithGroup(name string) slog.Handler {
	return &GCPHandler{inner: h.inner.WithGroup(name), opts: h.opts}
}
