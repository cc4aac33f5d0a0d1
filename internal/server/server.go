// Package server configures and runs the HTTP server.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/menezmethod/mwpipe/internal/apierror"
	"github.com/menezmethod/mwpipe/internal/auth"
	"github.com/menezmethod/mwpipe/internal/config"
	"github.com/menezmethod/mwpipe/internal/handler"
	"github.com/menezmethod/mwpipe/internal/httppipe"
	"github.com/menezmethod/mwpipe/internal/middleware"
	"github.com/menezmethod/mwpipe/internal/observability"
	"github.com/menezmethod/mwpipe/internal/stage"
	"github.com/menezmethod/mwpipe/pipe"
)

// New creates a configured *http.Server with all routes, pipelines and
// middleware wired. The returned closer releases background resources (the
// rate limiter's cleanup goroutine) and must be closed after shutdown.
func New(cfg config.Config, ks *auth.KeyStore, logger *slog.Logger) (*http.Server, io.Closer) {
	rl := stage.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	router := &httprouter.Router{
		RedirectTrailingSlash:  true,
		HandleMethodNotAllowed: true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apierror.Write(w, apierror.NotFound("Endpoint "+r.URL.Path+" not found."))
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apierror.Write(w, &apierror.Error{
				Status:  http.StatusMethodNotAllowed,
				Message: "Method " + r.Method + " not allowed.",
				Type:    apierror.TypeInvalidRequest,
				Code:    "method_not_allowed",
			})
		}),
	}

	// Order (outermost → innermost): RequestID → Recover → Metrics → Logging.
	// Applied per route so httprouter's params are already on the context.
	handle := func(method, path string, h http.Handler) {
		router.Handler(method, path, middleware.Chain(h,
			middleware.RequestID(),
			middleware.Recover(logger),
			middleware.Metrics(),
			middleware.Logging(logger),
		))
	}

	// mount builds the handlers into a pipeline named after its route and
	// serves it, falling back to fallback when nothing responds.
	mount := func(method, path, name string, fallback http.Handler, handlers ...httppipe.Handler) {
		p := pipe.New(pipe.WithErrorHandler(pipe.Compose(
			observability.Trace[*http.Request, *httppipe.Response](name),
			httppipe.Instrument(name),
			httppipe.Intercept(logger, cfg.Pipeline.ExposeErrors),
		)))
		handle(method, path, httppipe.Route(p.Build(handlers...), fallback, logger))
	}

	// Health, docs and metrics need no auth.
	handle(http.MethodGet, "/health", handler.Health(time.Now()))
	handle(http.MethodGet, "/version", handler.VersionInfo())
	handle(http.MethodGet, "/openapi.yaml", handler.OpenAPI())
	handle(http.MethodGet, "/docs", handler.SwaggerUI("/openapi.yaml"))
	handle(http.MethodGet, "/metrics", promhttp.Handler())

	// Pipelines. Auth and rate limiting are stages, added where a route needs them.
	mount(http.MethodGet, "/v1/greet/:name", "greet", nil,
		stage.Auth(ks),
		stage.RateLimit(rl),
		stage.RequireParam("name"),
		handler.Greet(),
	)
	mount(http.MethodPost, "/v1/echo", "echo", nil,
		stage.Auth(ks),
		stage.RateLimit(rl),
		stage.DecodeJSON[handler.EchoRequest](cfg.Pipeline.MaxBodyBytes),
		handler.Echo(time.Now),
	)
	mount(http.MethodGet, "/v1/params/*path", "params", nil,
		stage.Auth(ks),
		handler.Inspect(),
	)
	mount(http.MethodGet, "/v1/passthrough", "passthrough", handler.Fallback(),
		handler.PassThrough(),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	return srv, rl
}

// Shutdown gracefully shuts down the server with the given context.
func Shutdown(ctx context.Context, srv *http.Server, logger *slog.Logger) {
	logger.Info("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
}
