// Package stage provides reusable pipeline handlers for HTTP pipes:
// API key authentication, per-client rate limiting, JSON body decoding and
// route param checks. Each stage either answers the request with an error
// response or calls next.
package stage

// Params keys written by stages.
const (
	// KeyAPIKey holds the bearer token accepted by Auth.
	KeyAPIKey = "api_key"
	// KeyClient holds the client name the API key maps to.
	KeyClient = "client"
)
