package reference

import (
	"context"
	"fmt"

	"github.com/naebak/naebak-auth-service/pkg/logger"
)

type seedStore interface {
	EnsureGovernorate(ctx context.Context, seed GovernorateSeed, overwrite bool) (bool, error)
	EnsureParty(ctx context.Context, seed PartySeed, overwrite bool) (bool, error)
}

// LoadResult counts rows written by one loader run.
type LoadResult struct {
	Governorates int `json:"governorates"`
	Parties      int `json:"parties"`
}

// Loader seeds the canonical governorates and parties. It never deletes rows
// and is safe to run alongside live traffic.
type Loader struct {
	store seedStore
	logg  *logger.Logger
}

// NewLoader builds a loader over the given store.
func NewLoader(store seedStore, logg *logger.Logger) *Loader {
	return &Loader{store: store, logg: logg}
}

// Load creates missing rows. With force set, existing rows are overwritten
// with canonical values.
func (l *Loader) Load(ctx context.Context, force bool) (LoadResult, error) {
	var res LoadResult
	for _, seed := range governorates {
		wrote, err := l.store.EnsureGovernorate(ctx, seed, force)
		if err != nil {
			return res, fmt.Errorf("seed governorate %s: %w", seed.Code, err)
		}
		if wrote {
			res.Governorates++
		}
	}
	for _, seed := range parties {
		wrote, err := l.store.EnsureParty(ctx, seed, force)
		if err != nil {
			return res, fmt.Errorf("seed party %s: %w", seed.NameEn, err)
		}
		if wrote {
			res.Parties++
		}
	}

	if l.logg != nil {
		ctx = l.logg.WithFields(ctx, map[string]any{
			"governorates_written": res.Governorates,
			"parties_written":      res.Parties,
			"force":                force,
		})
		l.logg.Info(ctx, "reference.load.completed")
	}
	return res, nil
}
