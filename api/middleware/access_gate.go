package middleware

import (
	"net/http"
	"strings"

	"github.com/naebak/naebak-auth-service/api/responses"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"github.com/naebak/naebak-auth-service/pkg/logger"
)

const (
	LoginURL       = "/api/v1/auth/login"
	RegisterURL    = "/api/v1/auth/register"
	GoogleLoginURL = "/api/v1/auth/google"

	msgAuthenticationRequired = "يجب تسجيل الدخول للوصول إلى هذه الخدمة"
)

var publicPrefixes = []string{
	"/api/v1/auth/",
	"/api/v1/health/",
	"/api/v1/public/",
	"/api/v1/governorates",
	"/api/v1/parties",
	"/api/v1/candidates/",
	"/api/v1/news/",
	"/metrics",
	"/static/",
	"/media/",
}

var protectedPrefixes = []string{
	"/api/v1/profile",
	"/api/v1/ratings/",
	"/api/v1/messages/",
	"/api/v1/complaints/",
	"/api/v1/dashboard/",
	"/api/v1/stats",
	"/api/v1/users",
}

// IsPublicRequest reports whether method+path may be served without a
// principal. Public prefixes win over protected ones; anything unlisted is
// public only for safe methods.
func IsPublicRequest(method, path string) bool {
	if hasAnyPrefix(path, publicPrefixes) {
		return true
	}
	if hasAnyPrefix(path, protectedPrefixes) {
		return false
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// AccessGate enforces IsPublicRequest. It must run after Authenticate.
func AccessGate(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); ok || IsPublicRequest(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			responses.WriteError(r.Context(), logg, w, authenticationRequired())
		})
	}
}

func authenticationRequired() error {
	return pkgerrors.New(pkgerrors.CodeAuthenticationRequired, msgAuthenticationRequired).
		WithDetails(map[string]any{
			"login_url":        LoginURL,
			"register_url":     RegisterURL,
			"google_login_url": GoogleLoginURL,
		})
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
