package httppipe

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/menezmethod/mwpipe/pipe"
)

var (
	pipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mwpipe",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Pipeline runs by pipe name and outcome (response, passthrough, error).",
	}, []string{"pipe", "outcome"})

	pipelineRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mwpipe",
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "Pipeline run latency in seconds.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"pipe"})
)

// Instrument returns an error handler recording Prometheus metrics for every
// run of the pipe called name. It never alters the run's result.
func Instrument(name string) ErrorHandler {
	return func(next EntryPoint) EntryPoint {
		return func(ctx context.Context, req *http.Request, params pipe.Params) (Outcome, error) {
			start := time.Now()
			out, err := next(ctx, req, params)

			outcome := out.String()
			if err != nil {
				outcome = "error"
			}
			pipelineRunsTotal.WithLabelValues(name, outcome).Inc()
			pipelineRunDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			return out, err
		}
	}
}
