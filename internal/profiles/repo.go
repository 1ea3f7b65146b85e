package profiles

import (
	"context"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
	"github.com/naebak/naebak-auth-service/pkg/enums"
	"gorm.io/gorm"
)

// Repository persists profile variants and the national id registry.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to db, which may be a transaction.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create reserves the profile's national id and inserts the variant row.
// Run it inside the registration transaction so both roll back together.
func (r *Repository) Create(ctx context.Context, p Profile) error {
	base := p.Common()
	registry := &models.NationalIDRecord{NationalID: base.NationalID, UserID: base.UserID}
	if err := r.db.WithContext(ctx).Create(registry).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByUser loads the variant of kind owned by userID.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID, kind enums.ProfileKind) (Profile, error) {
	p, err := empty(kind)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes every column of p. When the national id changed, the registry
// row moves first so the uniqueness check happens there.
func (r *Repository) Save(ctx context.Context, p Profile, previousNationalID string) error {
	base := p.Common()
	if previousNationalID != "" && previousNationalID != base.NationalID {
		res := r.db.WithContext(ctx).
			Model(&models.NationalIDRecord{}).
			Where("user_id = ? AND national_id = ?", base.UserID, previousNationalID).
			Update("national_id", base.NationalID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return r.db.WithContext(ctx).Save(p).Error
}
