package httppipe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/menezmethod/mwpipe/internal/apierror"
	"github.com/menezmethod/mwpipe/internal/middleware"
	"github.com/menezmethod/mwpipe/pipe"
)

// Intercept returns the error handler used for HTTP pipelines. It recovers
// panics raised by handlers and turns every error into a terminal JSON
// response: *apierror.Error values keep their status, anything else becomes
// a 500 whose message is the error text only when exposeErrors is set.
func Intercept(logger *slog.Logger, exposeErrors bool) ErrorHandler {
	return func(next EntryPoint) EntryPoint {
		return func(ctx context.Context, req *http.Request, params pipe.Params) (out Outcome, err error) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.ErrorContext(ctx, "pipeline panic recovered",
						"request_id", middleware.RequestIDFromContext(ctx),
						"error", v,
						"stack", string(debug.Stack()),
						"path", req.URL.Path,
					)
					out, err = Respond(Error(internalError(fmt.Sprint(v), exposeErrors))), nil
				}
			}()

			out, err = next(ctx, req, params)
			if err == nil {
				return out, nil
			}

			if apiErr, ok := apierror.As(err); ok {
				logger.DebugContext(ctx, "pipeline returned api error",
					"request_id", middleware.RequestIDFromContext(ctx),
					"status", apiErr.Status,
					"err", err,
				)
				return Respond(Error(apiErr)), nil
			}

			logFailure(ctx, logger, req, err)
			return Respond(Error(internalError(err.Error(), exposeErrors))), nil
		}
	}
}

func internalError(msg string, expose bool) *apierror.Error {
	if !expose {
		msg = "Internal server error."
	}
	return apierror.Internal(msg)
}
