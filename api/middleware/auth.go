package middleware

import (
	"net/http"
	"strings"

	"github.com/Cervini/reinventory-backend/api/responses"
	pkgauth "github.com/Cervini/reinventory-backend/pkg/auth"
	"github.com/Cervini/reinventory-backend/pkg/config"
	pkgerrors "github.com/Cervini/reinventory-backend/pkg/errors"
	"github.com/Cervini/reinventory-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// actor identity. Browsers cannot set headers on a WebSocket upgrade, so a
// "token" query parameter is accepted as a fallback.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = strings.TrimSpace(r.URL.Query().Get("token"))
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseActorToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithActor(r.Context(), claims.ActorID, claims.Email)
			if logg != nil {
				ctx = logg.WithActorID(ctx, claims.ActorID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
