package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/pkg/enums"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// Principal is the authenticated caller resolved from the bearer token.
// SessionID is the token's jti and keys both the refresh session and the
// tracked UserSession.
type Principal struct {
	UserID             uuid.UUID
	UserType           enums.UserType
	VerificationStatus enums.VerificationStatus
	SessionID          string
}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, false
	}
	return p, true
}

func UserIDFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.UserID.String()
	}
	return ""
}
