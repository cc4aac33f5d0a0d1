package stage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/menezmethod/mwpipe/internal/apierror"
	"github.com/menezmethod/mwpipe/internal/httppipe"
	"github.com/menezmethod/mwpipe/pipe"
)

// DecodeJSON decodes the request body into a T and forwards it to the next
// handler as the pipe payload. Bodies larger than maxBytes, empty bodies,
// unknown fields, malformed JSON and data after the first JSON value are
// answered with a 400.
func DecodeJSON[T any](maxBytes int64) httppipe.HandlerFunc {
	return func(ctx context.Context, r *http.Request, _ pipe.Params, next httppipe.Next) (httppipe.Outcome, error) {
		if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
			return httppipe.Respond(httppipe.Error(apierror.InvalidRequest("Content-Type must be application/json."))), nil
		}
		if r.Body == nil {
			return httppipe.Respond(httppipe.Error(apierror.InvalidRequest("Request body is required."))), nil
		}

		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBytes))
		dec.DisallowUnknownFields()

		var v T
		if err := dec.Decode(&v); err != nil {
			var maxErr *http.MaxBytesError
			switch {
			case errors.Is(err, io.EOF):
				return httppipe.Respond(httppipe.Error(apierror.InvalidRequest("Request body is required."))), nil
			case errors.As(err, &maxErr):
				return httppipe.Respond(httppipe.Error(apierror.InvalidRequest("Request body is too large."))), nil
			default:
				return httppipe.Respond(httppipe.Error(apierror.InvalidRequest("Invalid JSON: " + err.Error()))), nil
			}
		}

		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return httppipe.Respond(httppipe.Error(apierror.InvalidRequest("Request body must contain a single JSON value."))), nil
		}

		return next(ctx, v)
	}
}

// RequireParam answers with a 400 when the route param name is missing or
// empty.
func RequireParam(name string) httppipe.HandlerFunc {
	return func(ctx context.Context, _ *http.Request, params pipe.Params, next httppipe.Next) (httppipe.Outcome, error) {
		if strings.TrimSpace(params.String(name)) == "" {
			return httppipe.Respond(httppipe.Error(apierror.InvalidParam(name, name+" is required."))), nil
		}
		return next(ctx)
	}
}
