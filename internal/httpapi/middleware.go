package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/identity"
)

type contextKey struct{}

var requesterKey contextKey

// requireAuth resolves the bearer token to a requester and stores it in
// the request context. Requests without valid credentials never reach the
// handlers.
func requireAuth(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				respondWithError(w, apperr.New(apperr.KindUnauthenticated, "missing bearer token"))
				return
			}

			req, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Warn().Err(err).Msg("Token verification failed")
				respondWithError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requesterKey, req)))
		})
	}
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !requesterFrom(r).IsAdmin() {
			respondWithError(w, apperr.New(apperr.KindForbidden, "admin privileges required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requesterFrom(r *http.Request) identity.Requester {
	req, _ := r.Context().Value(requesterKey).(identity.Requester)
	return req
}
