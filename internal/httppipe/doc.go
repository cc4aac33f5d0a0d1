// Package httppipe mounts pipe chains on HTTP routes.
//
// Requests are *http.Request values and terminal responses are *Response
// values. Route params extracted by httprouter are copied into the run's
// pipe.Params; a run that produces no response falls through to a fallback
// handler (Route) or to the wrapped handler (Middleware).
package httppipe
