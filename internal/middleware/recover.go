package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/menezmethod/mwpipe/internal/apierror"
)

var httpPanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mwpipe",
	Subsystem: "http",
	Name:      "panics_recovered_total",
	Help:      "Panics recovered by the HTTP middleware, by route.",
}, []string{"route"})

// Recover returns middleware that turns a panic into a JSON 500. The panic
// value and stack are logged with the request ID. http.ErrAbortHandler is
// re-raised so net/http can abort the connection as intended.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				route := routeOf(r)
				httpPanicsTotal.WithLabelValues(route).Inc()
				logger.LogAttrs(r.Context(), slog.LevelError, "panic recovered",
					slog.Any("error", v),
					slog.String("stack", string(debug.Stack())),
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("method", r.Method),
					slog.String("route", route),
				)
				apierror.Write(w, apierror.Internal("Internal server error."))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
