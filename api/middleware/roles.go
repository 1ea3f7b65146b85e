package middleware

import (
	"net/http"

	"github.com/naebak/naebak-auth-service/api/responses"
	"github.com/naebak/naebak-auth-service/pkg/enums"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"github.com/naebak/naebak-auth-service/pkg/logger"
)

// Predicate decides whether an authenticated principal may proceed.
type Predicate func(Principal) bool

func IsVerified(p Principal) bool {
	return p.VerificationStatus == enums.VerificationStatusVerified
}

// IsMember holds for sitting parliament and senate members.
func IsMember(p Principal) bool { return p.UserType.IsMember() }

// Require answers 401 for anonymous callers and 403 when pred fails.
func Require(pred Predicate, message string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, authenticationRequired())
				return
			}
			if !pred(p) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, message))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireVerified(logg *logger.Logger) func(http.Handler) http.Handler {
	return Require(IsVerified, "يجب توثيق الحساب للوصول إلى هذه الخدمة", logg)
}

func RequireMember(logg *logger.Logger) func(http.Handler) http.Handler {
	return Require(IsMember, "هذه الخدمة متاحة للأعضاء فقط", logg)
}
