package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/naebak/naebak-auth-service/api/responses"
	"github.com/naebak/naebak-auth-service/pkg/config"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"github.com/naebak/naebak-auth-service/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is anything readiness can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthPayload struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

func Health(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Naebak-Env", cfg.App.Env)
		responses.WriteSuccess(w, healthPayload{
			Status:    "healthy",
			Service:   cfg.App.ServiceName,
			Timestamp: time.Now().UTC(),
		})
	}
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Naebak-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and Redis; any failure answers 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Naebak-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		var failed error
		for name, p := range map[string]Pinger{"database": db, "redis": cache} {
			if p == nil {
				checks[name] = "skipped"
				continue
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "down"
				failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
					WithDetails(map[string]any{"checks": checks})
				continue
			}
			checks[name] = "up"
		}
		if failed != nil {
			responses.WriteError(r.Context(), logg, w, failed)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
