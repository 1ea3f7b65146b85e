package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
	dbtypes "github.com/naebak/naebak-auth-service/pkg/db/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists session and login attempt tracking rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the tracking repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertUserSession creates the session row or refreshes its activity columns.
func (r *Repository) UpsertUserSession(ctx context.Context, row *models.UserSession) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_activity", "ip_address", "user_agent", "device_type"}),
		}).
		Create(row).Error
}

// DeactivateUserSession marks the session inactive. Unknown keys are ignored.
func (r *Repository) DeactivateUserSession(ctx context.Context, sessionKey string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("session_key = ?", sessionKey).
		UpdateColumns(map[string]any{"is_active": false, "last_activity": at}).Error
}

// FindUserSession loads a session by key.
func (r *Repository) FindUserSession(ctx context.Context, sessionKey string) (*models.UserSession, error) {
	var row models.UserSession
	if err := r.db.WithContext(ctx).Where("session_key = ?", sessionKey).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListUserSessions returns a user's sessions, most recent first.
func (r *Repository) ListUserSessions(ctx context.Context, userID uuid.UUID) ([]models.UserSession, error) {
	var rows []models.UserSession
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_activity DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// TouchAnonymous records a visit for an anonymous session key. page, when
// non-empty, is appended to pages_visited unless already present.
func (r *Repository) TouchAnonymous(ctx context.Context, row *models.AnonymousSession, page string) error {
	if page != "" {
		row.PagesVisited = dbtypes.StringList{page}
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_key"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	updates := map[string]any{"last_activity": row.LastActivity}
	if page != "" {
		existing, err := r.FindAnonymous(ctx, row.SessionKey)
		if err != nil {
			return err
		}
		if !existing.PagesVisited.Contains(page) {
			updates["pages_visited"] = append(existing.PagesVisited, page)
		}
	}
	return r.db.WithContext(ctx).
		Model(&models.AnonymousSession{}).
		Where("session_key = ?", row.SessionKey).
		UpdateColumns(updates).Error
}

// FindAnonymous loads an anonymous session by key.
func (r *Repository) FindAnonymous(ctx context.Context, sessionKey string) (*models.AnonymousSession, error) {
	var row models.AnonymousSession
	if err := r.db.WithContext(ctx).Where("session_key = ?", sessionKey).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateLoginAttempt appends an audit row.
func (r *Repository) CreateLoginAttempt(ctx context.Context, row *models.LoginAttempt) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// CountFailedAttemptsSince counts failed logins for email since the cutoff.
func (r *Repository) CountFailedAttemptsSince(ctx context.Context, email string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoginAttempt{}).
		Where("email = ? AND success = ? AND attempted_at >= ?", email, false, since).
		Count(&count).Error
	return count, err
}

// DeleteAnonymousSessionsBefore purges anonymous sessions idle since before cutoff.
func (r *Repository) DeleteAnonymousSessionsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	res := r.conn(tx).WithContext(ctx).Where("last_activity < ?", cutoff).Delete(&models.AnonymousSession{})
	return res.RowsAffected, res.Error
}

// DeleteUserSessionsBefore purges user sessions idle since before cutoff.
func (r *Repository) DeleteUserSessionsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	res := r.conn(tx).WithContext(ctx).Where("last_activity < ?", cutoff).Delete(&models.UserSession{})
	return res.RowsAffected, res.Error
}

// DeleteLoginAttemptsBefore purges login attempts older than cutoff.
func (r *Repository) DeleteLoginAttemptsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	res := r.conn(tx).WithContext(ctx).Where("attempted_at < ?", cutoff).Delete(&models.LoginAttempt{})
	return res.RowsAffected, res.Error
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
