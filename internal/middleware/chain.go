// Package middleware provides the HTTP middleware that wraps every route:
// request IDs, panic recovery, Prometheus metrics and request logging.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware in the order given. The first middleware
// in the list is the outermost (runs first on request, last on response).
//
//	chain(handler, requestID, recover, logging)
//	// Request order:  requestID → recover → logging → handler
//	// Response order: handler → logging → recover → requestID
func Chain(h http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
