package middleware

import (
	"net/http"
	"strings"

	"github.com/naebak/naebak-auth-service/api/responses"
	pkgAuth "github.com/naebak/naebak-auth-service/pkg/auth"
	"github.com/naebak/naebak-auth-service/pkg/auth/session"
	"github.com/naebak/naebak-auth-service/pkg/config"
	"github.com/naebak/naebak-auth-service/pkg/logger"
)

// BearerToken extracts the raw token from the Authorization header. A bare
// token without the scheme is accepted.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}

// Authenticate resolves the principal when the request carries a valid access
// token whose session is still live. Anything else leaves the request
// anonymous; the access gate and RequireAuth decide whether that is allowed.
func Authenticate(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil || claims.ID == "" {
				if logg != nil {
					logg.Debug(ctx, "auth.token.rejected")
				}
				next.ServeHTTP(w, r)
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(ctx, claims.ID)
				if err != nil {
					if logg != nil {
						logg.Warn(logg.WithField(ctx, "error", err.Error()), "auth.session.check_failed")
					}
					next.ServeHTTP(w, r)
					return
				}
				if !ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx = WithPrincipal(ctx, Principal{
				UserID:             claims.UserID,
				UserType:           claims.UserType,
				VerificationStatus: claims.VerificationStatus,
				SessionID:          claims.ID,
			})
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
				ctx = logg.WithUserType(ctx, string(claims.UserType))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with AUTHENTICATION_REQUIRED.
func RequireAuth(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); !ok {
				responses.WriteError(r.Context(), logg, w, authenticationRequired())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
