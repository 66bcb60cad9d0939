package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gerai/storefront/internal/identity"
)

type contextKey string

const actorKey contextKey = "actor"

// Auth resolves the bearer credential through the identity provider and puts
// the actor on the request context. The core never inspects the credential
// itself.
func Auth(resolver identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondWithError(w, http.StatusUnauthorized, "missing bearer credential")
				return
			}

			actor, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				log.Warn().Err(err).Msg("handler: failed to resolve actor")
				respondWithError(w, mapErrorToStatusCode(err), "invalid credential")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

// ActorFromContext returns the authenticated actor set by the Auth
// middleware.
func ActorFromContext(ctx context.Context) (*identity.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(*identity.Actor)
	return actor, ok
}
