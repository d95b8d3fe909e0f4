package middleware

import (
	"net/http"
	"strings"

	"github.com/prejin2310/megora-inventory/api/responses"
	pkgAuth "github.com/prejin2310/megora-inventory/pkg/auth"
	"github.com/prejin2310/megora-inventory/pkg/config"
	pkgerrors "github.com/prejin2310/megora-inventory/pkg/errors"
	"github.com/prejin2310/megora-inventory/pkg/logger"
)

// Auth validates a staff bearer token and seeds the request context with the
// actor id (token subject) and role.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actorID, err := claims.ActorID()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token subject"))
				return
			}

			ctx := WithActor(r.Context(), actorID.String(), claims.Role.String())
			if logg != nil {
				ctx = logg.WithActorID(ctx, actorID.String())
				ctx = logg.WithActorRole(ctx, claims.Role.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
