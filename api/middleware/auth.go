package middleware

import (
	"net/http"
	"strings"

	"github.com/farmgatehq/farmgate-backend/api/responses"
	pkgauth "github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/config"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// caller principal.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthenticated, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthenticated, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthenticated, err, "invalid token"))
				return
			}

			principal := pkgauth.PrincipalFromClaims(claims)
			ctx := WithPrincipal(r.Context(), principal)

			if logg != nil {
				ctx = logg.WithProfileID(ctx, principal.ProfileID.String())
				ctx = logg.WithRole(ctx, string(principal.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrincipal pulls the caller out of the context; handlers behind Auth
// use it instead of re-parsing the token.
func RequirePrincipal(r *http.Request) (pkgauth.Principal, error) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		return pkgauth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthenticated, "missing credentials")
	}
	return principal, nil
}
