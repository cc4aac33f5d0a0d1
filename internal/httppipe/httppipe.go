package httppipe

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/menezmethod/mwpipe/internal/apierror"
	"github.com/menezmethod/mwpipe/internal/middleware"
	"github.com/menezmethod/mwpipe/pipe"
)

type (
	// Handler is a pipeline handler for HTTP requests.
	Handler = pipe.Handler[*http.Request, *Response]
	// HandlerFunc adapts a function to Handler.
	HandlerFunc = pipe.HandlerFunc[*http.Request, *Response]
	// Next is the continuation passed to HTTP pipeline handlers.
	Next = pipe.Next[*Response]
	// Outcome is the result of an HTTP pipeline handler.
	Outcome = pipe.Outcome[*Response]
	// EntryPoint is a built HTTP pipeline.
	EntryPoint = pipe.EntryPoint[*http.Request, *Response]
	// ErrorHandler decorates an HTTP pipeline entry point.
	ErrorHandler = pipe.ErrorHandler[*http.Request, *Response]
)

// Respond is shorthand for pipe.Respond with a *Response.
func Respond(r *Response) Outcome {
	return pipe.Respond(r)
}

// Continue is shorthand for pipe.Continue with a *Response.
func Continue() Outcome {
	return pipe.Continue[*Response]()
}

// ParamsFrom returns fresh Params holding the route params httprouter
// stored on r.
func ParamsFrom(r *http.Request) pipe.Params {
	ps := httprouter.ParamsFromContext(r.Context())
	route := make(map[string]string, len(ps))
	for _, p := range ps {
		if p.Key == httprouter.MatchedRoutePathParam {
			continue
		}
		route[p.Key] = p.Value
	}
	return pipe.NewParams(route)
}

// Route returns an http.Handler running entry for every request. Terminal
// responses are written; when the run yields no response, fallback serves
// the request. Errors that escape entry are logged and answered with a 500.
//
// A handler returning Respond(nil) still ends the run, so later handlers
// are skipped, but with nothing to write the fallback serves the request.
// Such runs are logged at debug level.
func Route(entry EntryPoint, fallback http.Handler, logger *slog.Logger) http.Handler {
	if fallback == nil {
		fallback = NotFound()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, entry, fallback, logger)
	})
}

// Middleware returns middleware running entry in front of the wrapped
// handler. The wrapped handler serves the request when the run yields no
// response, including a terminal Respond(nil) as described on Route.
func Middleware(entry EntryPoint, logger *slog.Logger) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			serve(w, r, entry, next, logger)
		})
	}
}

// NotFound returns the default fallback: a JSON 404.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apierror.Write(w, apierror.NotFound("No handler produced a response for "+r.URL.Path+"."))
	})
}

func serve(w http.ResponseWriter, r *http.Request, entry EntryPoint, fallback http.Handler, logger *slog.Logger) {
	out, err := entry(r.Context(), r, ParamsFrom(r))
	if err != nil {
		logFailure(r.Context(), logger, r, err)
		apierror.Write(w, apierror.Internal("Internal server error."))
		return
	}

	resp, ok := out.Response()
	if ok && resp == nil {
		logger.DebugContext(r.Context(), "pipeline responded with a nil response, using fallback",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
		)
	}
	if resp == nil {
		fallback.ServeHTTP(w, r)
		return
	}
	if err := resp.Write(w); err != nil {
		logger.Warn("failed to write pipeline response",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"err", err,
		)
	}
}

func logFailure(ctx context.Context, logger *slog.Logger, r *http.Request, err error) {
	logger.ErrorContext(ctx, "pipeline failed",
		"request_id", middleware.RequestIDFromContext(ctx),
		"method", r.Method,
		"path", r.URL.Path,
		"err", err,
	)
}
