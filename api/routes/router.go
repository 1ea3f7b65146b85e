package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/naebak/naebak-auth-service/api/controllers"
	"github.com/naebak/naebak-auth-service/api/middleware"
	"github.com/naebak/naebak-auth-service/internal/auth"
	"github.com/naebak/naebak-auth-service/internal/profiles"
	"github.com/naebak/naebak-auth-service/internal/reference"
	"github.com/naebak/naebak-auth-service/internal/tracking"
	"github.com/naebak/naebak-auth-service/internal/users"
	"github.com/naebak/naebak-auth-service/pkg/auth/session"
	"github.com/naebak/naebak-auth-service/pkg/config"
	"github.com/naebak/naebak-auth-service/pkg/logger"
	"github.com/naebak/naebak-auth-service/pkg/metrics"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type sessionTracker interface {
	TouchUserSession(ctx context.Context, v tracking.Visit) error
	TouchAnonymous(ctx context.Context, v tracking.Visit) error
}

type sweeper interface {
	MaybeSweep(ctx context.Context) bool
}

type userDirectory interface {
	Stats(ctx context.Context) (users.Stats, error)
	List(ctx context.Context, query users.ListQuery) (*users.ListResult, error)
}

// Params carries everything the router mounts. Tracker, Sweeper, RateLimiter
// and the metrics fields are optional.
type Params struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          controllers.Pinger
	RateLimiter    rateLimiter
	Sessions       session.AccessSessionChecker
	Auth           auth.Service
	Profiles       profiles.Service
	Reference      reference.Service
	Users          userDirectory
	Tracker        sessionTracker
	Sweeper        sweeper
	HTTPMetrics    *metrics.HTTPMetrics
	AuthMetrics    *metrics.AuthMetrics
	MetricsHandler http.Handler
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	policies := middleware.NewAuthRateLimitPolicies(cfg.AuthRateLimit)
	limit := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		return middleware.AuthRateLimit(policy, p.RateLimiter, p.AuthMetrics, logg)
	}

	// Prefixes were validated when the config loaded.
	trusted, _ := cfg.App.TrustedProxyPrefixes()

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.ClientAddress(trusted),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.CORS),
		middleware.Authenticate(cfg.JWT, p.Sessions, logg),
		middleware.Tracking(cfg.Tracking, p.Tracker, p.Sweeper, logg),
		middleware.AccessGate(logg),
	)

	if p.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", p.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", controllers.Health(cfg))
			r.Get("/live", controllers.HealthLive(cfg))
			r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(limit(policies.Register)).Post("/register", controllers.AuthRegister(p.Auth, logg))
			r.With(limit(policies.Login)).Post("/login", controllers.AuthLogin(p.Auth, logg))
			r.With(middleware.RequireAuth(logg)).Post("/logout", controllers.AuthLogout(p.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
			r.Get("/status", controllers.AuthStatus(p.Auth, logg))
			r.With(middleware.RequireAuth(logg)).Post("/password/change", controllers.AuthPasswordChange(p.Auth, logg))
			r.With(limit(policies.Reset)).Post("/password/reset", controllers.AuthPasswordReset(p.Auth, logg))
			r.With(limit(policies.Reset)).Post("/password/reset/confirm", controllers.AuthPasswordResetConfirm(p.Auth, logg))
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(middleware.RequireAuth(logg))
			r.Get("/", controllers.ProfileGet(p.Profiles, logg))
			r.Put("/", controllers.ProfileUpdate(p.Profiles, logg))
			r.Patch("/", controllers.ProfileUpdate(p.Profiles, logg))
		})

		r.Get("/governorates", controllers.ListGovernorates(p.Reference, logg))
		r.Get("/parties", controllers.ListParties(p.Reference, logg))

		r.With(middleware.RequireVerified(logg)).Get("/stats", controllers.UserStats(p.Users, logg))
		r.With(middleware.RequireMember(logg)).Get("/users", controllers.ListUsers(p.Users, logg))
	})

	return r
}
