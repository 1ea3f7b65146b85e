package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
	"github.com/naebak/naebak-auth-service/pkg/enums"
	"github.com/naebak/naebak-auth-service/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin stamps a successful login.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time, ip string) error {
	updates := map[string]any{
		"last_login_at":  at,
		"last_active_at": at,
	}
	if ip != "" {
		updates["last_login_ip"] = ip
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

// TouchActivity refreshes last_active_at and, when known, last_login_ip.
func (r *Repository) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time, ip string) error {
	updates := map[string]any{"last_active_at": at}
	if ip != "" {
		updates["last_login_ip"] = ip
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

// UpdateIdentity patches the editable identity columns (names, phone).
func (r *Repository) UpdateIdentity(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	for column := range updates {
		if _, ok := editableIdentityColumns[column]; !ok {
			return fmt.Errorf("column %q is not editable", column)
		}
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

var editableIdentityColumns = map[string]struct{}{
	"first_name": {},
	"last_name":  {},
	"phone":      {},
}

// UpdatePasswordHash replaces the stored credential.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetPassword stores a user-chosen credential and stamps password_changed_at.
// Tokens issued before at stop refreshing.
func (r *Repository) SetPassword(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "password_changed_at": at, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List pages through accounts newest first. The governorate filter matches
// whichever profile variant the account owns.
func (r *Repository) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	filtered := func() *gorm.DB {
		qb := r.db.WithContext(ctx).Model(&models.User{})
		if query.UserType != nil {
			qb = qb.Where("user_type = ?", *query.UserType)
		}
		if query.GovernorateID != nil {
			qb = qb.Where(
				"id IN (SELECT user_id FROM citizen_profiles WHERE governorate_id = ?"+
					" UNION SELECT user_id FROM candidate_profiles WHERE governorate_id = ?"+
					" UNION SELECT user_id FROM member_profiles WHERE governorate_id = ?)",
				*query.GovernorateID, *query.GovernorateID, *query.GovernorateID,
			)
		}
		return qb
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, err
	}

	qb := filtered()
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.User
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(pageSize + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	page, next := pagination.Trim(rows, pageSize, func(u models.User) pagination.Cursor {
		return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
	})
	result := &ListResult{Users: make([]*UserDTO, 0, len(page)), Total: total, NextCursor: next}
	for i := range page {
		result.Users = append(result.Users, FromModel(&page[i]))
	}
	return result, nil
}

type groupCount struct {
	Bucket string
	Count  int64
}

// Stats counts accounts in total and grouped by type and verification status.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		ByUserType:     map[string]int64{},
		ByVerification: map[string]int64{},
	}
	for _, t := range enums.UserTypes() {
		stats.ByUserType[string(t)] = 0
	}

	db := r.db.WithContext(ctx).Model(&models.User{})
	if err := db.Count(&stats.TotalUsers).Error; err != nil {
		return Stats{}, err
	}
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return Stats{}, err
	}

	var byType []groupCount
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("user_type AS bucket, COUNT(*) AS count").
		Group("user_type").
		Scan(&byType).Error; err != nil {
		return Stats{}, err
	}
	for _, row := range byType {
		stats.ByUserType[row.Bucket] = row.Count
	}

	var byStatus []groupCount
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("verification_status AS bucket, COUNT(*) AS count").
		Group("verification_status").
		Scan(&byStatus).Error; err != nil {
		return Stats{}, err
	}
	for _, row := range byStatus {
		stats.ByVerification[row.Bucket] = row.Count
	}
	stats.VerifiedUsers = stats.ByVerification[string(enums.VerificationStatusVerified)]

	return stats, nil
}
