package middleware

import (
	"context"
	"net/http"

	"github.com/fitpulse/checkout-gateway/api/responses"
	"github.com/fitpulse/checkout-gateway/pkg/logger"
	"github.com/fitpulse/checkout-gateway/pkg/platform"
)

type credentialCtxKey struct{}

// Credential extracts the caller's bearer token into an explicit platform
// credential. The gateway never validates the token itself; the platform API
// rejects bad credentials on use. Auth stays an external concern.
func Credential(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, err := platform.CredentialFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ctx := context.WithValue(r.Context(), credentialCtxKey{}, cred)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CredentialFromContext returns the credential stored by the Credential
// middleware, or an empty credential.
func CredentialFromContext(ctx context.Context) platform.Credential {
	if cred, ok := ctx.Value(credentialCtxKey{}).(platform.Credential); ok {
		return cred
	}
	return platform.Credential{}
}
