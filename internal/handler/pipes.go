package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/menezmethod/mwpipe/internal/apierror"
	"github.com/menezmethod/mwpipe/internal/httppipe"
	"github.com/menezmethod/mwpipe/internal/stage"
	"github.com/menezmethod/mwpipe/pipe"
)

var errMissingPayload = errors.New("handler: echo reached without a decoded payload")

// Greeting is the body returned by Greet.
type Greeting struct {
	Message string `json:"message"`
	Client  string `json:"client,omitempty"`
}

// Greet answers with a greeting for the :name route param.
//
//	GET /v1/greet/:name
func Greet() httppipe.HandlerFunc {
	return func(_ context.Context, _ *http.Request, params pipe.Params, _ httppipe.Next) (httppipe.Outcome, error) {
		resp, err := httppipe.JSON(http.StatusOK, Greeting{
			Message: "Hello, " + params.String("name") + "!",
			Client:  params.String(stage.KeyClient),
		})
		if err != nil {
			return httppipe.Continue(), err
		}
		return httppipe.Respond(resp), nil
	}
}

// EchoRequest is the body accepted by POST /v1/echo.
type EchoRequest struct {
	Message string            `json:"message"`
	Tags    map[string]string `json:"tags,omitempty"`
}

// EchoResponse wraps the echoed request.
type EchoResponse struct {
	Echo       EchoRequest `json:"echo"`
	ReceivedAt time.Time   `json:"received_at"`
}

// Echo returns the EchoRequest forwarded as payload by the previous handler
// (stage.DecodeJSON). A chain without a decoded payload is a wiring mistake
// and fails with an error.
//
//	POST /v1/echo
func Echo(now func() time.Time) httppipe.HandlerFunc {
	return func(_ context.Context, _ *http.Request, params pipe.Params, _ httppipe.Next) (httppipe.Outcome, error) {
		body, ok := pipe.PayloadAs[EchoRequest](params)
		if !ok {
			return httppipe.Continue(), errMissingPayload
		}
		if body.Message == "" {
			return httppipe.Respond(httppipe.Error(apierror.InvalidParam("message", "message is required."))), nil
		}

		resp, err := httppipe.JSON(http.StatusOK, EchoResponse{Echo: body, ReceivedAt: now().UTC()})
		if err != nil {
			return httppipe.Continue(), err
		}
		return httppipe.Respond(resp), nil
	}
}

// Inspect answers with the params visible at the end of the chain, minus
// credentials. Useful for checking what earlier handlers contributed.
//
//	GET /v1/params/*path
func Inspect() httppipe.HandlerFunc {
	return func(_ context.Context, _ *http.Request, params pipe.Params, _ httppipe.Next) (httppipe.Outcome, error) {
		keys := make([]string, 0, len(params))
		for k := range params {
			if k == stage.KeyAPIKey || k == pipe.PayloadKey {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(map[string]string, len(keys))
		for _, k := range keys {
			out[k] = params.String(k)
		}

		resp, err := httppipe.JSON(http.StatusOK, map[string]any{"params": out, "keys": keys})
		if err != nil {
			return httppipe.Continue(), err
		}
		return httppipe.Respond(resp), nil
	}
}

// PassThrough ends the chain without a response, so the route's fallback serves
// the request.
//
//	GET /v1/passthrough
func PassThrough() httppipe.HandlerFunc {
	return func(context.Context, *http.Request, pipe.Params, httppipe.Next) (httppipe.Outcome, error) {
		return httppipe.Continue(), nil
	}
}

// Fallback serves requests whose pipeline produced no response.
func Fallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Served-By", "fallback")
		_, _ = w.Write([]byte(`{"status":"unhandled by pipeline"}` + "\n"))
	}
}
