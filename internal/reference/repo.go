package reference

import (
	"context"

	"github.com/naebak/naebak-auth-service/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads and seeds the reference tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListGovernorates returns governorates ordered by id.
func (r *Repository) ListGovernorates(ctx context.Context) ([]models.Governorate, error) {
	var rows []models.Governorate
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListParties returns parties ordered by id.
func (r *Repository) ListParties(ctx context.Context) ([]models.Party, error) {
	var rows []models.Party
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GovernorateExists reports whether a governorate with id exists.
func (r *Repository) GovernorateExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Governorate{}, id)
}

// PartyExists reports whether a party with id exists.
func (r *Repository) PartyExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Party{}, id)
}

func (r *Repository) exists(ctx context.Context, model any, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureGovernorate inserts seed unless its code is already present. With
// overwrite set, the existing row's names are reset to the seed. It reports
// whether a row was written.
func (r *Repository) EnsureGovernorate(ctx context.Context, seed GovernorateSeed, overwrite bool) (bool, error) {
	row := models.Governorate{Name: seed.Name, NameEn: seed.NameEn, Code: seed.Code}
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}
	if overwrite {
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "name_en", "updated_at"}),
		}
	}
	res := r.db.WithContext(ctx).Clauses(onConflict).Create(&row)
	return res.RowsAffected > 0, res.Error
}

// EnsureParty inserts seed unless its name is already present. With overwrite
// set, the existing row's English name and abbreviation are reset.
func (r *Repository) EnsureParty(ctx context.Context, seed PartySeed, overwrite bool) (bool, error) {
	row := models.Party{Name: seed.Name, NameEn: seed.NameEn, Abbreviation: seed.Abbreviation}
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}
	if overwrite {
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"name_en", "abbreviation", "updated_at"}),
		}
	}
	res := r.db.WithContext(ctx).Clauses(onConflict).Create(&row)
	return res.RowsAffected > 0, res.Error
}
