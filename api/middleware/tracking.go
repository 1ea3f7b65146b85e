package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/internal/tracking"
	"github.com/naebak/naebak-auth-service/pkg/config"
	"github.com/naebak/naebak-auth-service/pkg/logger"
)

const sessionKeyHeader = "X-Session-Key"

type sessionToucher interface {
	TouchUserSession(ctx context.Context, v tracking.Visit) error
	TouchAnonymous(ctx context.Context, v tracking.Visit) error
}

type sweepTrigger interface {
	MaybeSweep(ctx context.Context) bool
}

// Tracking records the request against the caller's UserSession, or against
// an AnonymousSession keyed by the X-Session-Key header or the session cookie.
// Failures are logged and never reach the client.
func Tracking(cfg config.TrackingConfig, tracker sessionToucher, sweeper sweepTrigger, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled || tracker == nil {
			return next
		}
		cookieName := cfg.CookieName
		if cookieName == "" {
			cookieName = "naebak_session"
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			visit := tracking.Visit{
				IPAddress: clientIP(r),
				UserAgent: r.UserAgent(),
				Path:      r.URL.Path,
			}

			var err error
			if p, ok := PrincipalFromContext(ctx); ok {
				visit.SessionKey = p.SessionID
				visit.UserID = p.UserID
				err = tracker.TouchUserSession(ctx, visit)
			} else {
				visit.SessionKey = anonymousKey(r, cookieName)
				if visit.SessionKey == "" {
					visit.SessionKey = uuid.NewString()
					http.SetCookie(w, &http.Cookie{
						Name:     cookieName,
						Value:    visit.SessionKey,
						Path:     "/",
						MaxAge:   int(cfg.AnonymousRetention.Seconds()),
						HttpOnly: true,
						Secure:   cfg.CookieSecure,
						SameSite: http.SameSiteLaxMode,
					})
				}
				err = tracker.TouchAnonymous(ctx, visit)
			}
			if err != nil && logg != nil {
				logg.Warn(logg.WithFields(logg.WithSessionKey(ctx, visit.SessionKey), map[string]any{
					"error": err.Error(),
				}), "tracking.touch_failed")
			}

			if sweeper != nil {
				sweeper.MaybeSweep(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func anonymousKey(r *http.Request, cookieName string) string {
	if key := strings.TrimSpace(r.Header.Get(sessionKeyHeader)); key != "" {
		return key
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
