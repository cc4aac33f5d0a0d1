package stage

import (
	"context"
	"net/http"
	"strings"

	"github.com/menezmethod/mwpipe/internal/apierror"
	"github.com/menezmethod/mwpipe/internal/auth"
	"github.com/menezmethod/mwpipe/internal/httppipe"
	"github.com/menezmethod/mwpipe/pipe"
)

// Auth validates the Bearer token against ks. Requests without a valid token
// receive a 401; otherwise the key and client name are stored in Params
// under KeyAPIKey and KeyClient and the chain continues.
func Auth(ks *auth.KeyStore) httppipe.HandlerFunc {
	return func(ctx context.Context, r *http.Request, params pipe.Params, next httppipe.Next) (httppipe.Outcome, error) {
		key, ok := extractBearerToken(r)
		if !ok {
			return httppipe.Respond(httppipe.Error(apierror.Unauthorized("Missing or malformed Authorization header. Expected: Bearer <api_key>"))), nil
		}

		client, err := ks.Lookup(key)
		if err != nil {
			return httppipe.Respond(httppipe.Error(apierror.Unauthorized("Invalid API key."))), nil
		}

		params.Set(KeyAPIKey, key)
		params.Set(KeyClient, client)
		return next(ctx)
	}
}

// extractBearerToken parses the Authorization header for a Bearer token.
func extractBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}

	token := strings.TrimSpace(h[len(prefix):])
	if token == "" {
		return "", false
	}

	return token, true
}
