package controllers

import (
	"context"
	"net/http"

	"github.com/naebak/naebak-auth-service/api/responses"
	"github.com/naebak/naebak-auth-service/internal/users"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"github.com/naebak/naebak-auth-service/pkg/logger"
)

type statsReader interface {
	Stats(ctx context.Context) (users.Stats, error)
}

// UserStats reports account totals. Mount behind RequireVerified.
func UserStats(repo statsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := repo.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load stats"))
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
