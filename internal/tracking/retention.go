package tracking

import (
	"context"
	"time"

	"github.com/naebak/naebak-auth-service/pkg/config"
	"gorm.io/gorm"
)

const (
	RetentionAnonymousSessions = "anonymous-sessions"
	RetentionUserSessions      = "user-sessions"
	RetentionLoginAttempts     = "login-attempts"
)

// PurgeFunc deletes rows older than cutoff and reports how many were removed.
type PurgeFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

// RetentionTarget pairs a tracking table with its retention window.
type RetentionTarget struct {
	Name      string
	Retention time.Duration
	Purge     PurgeFunc
}

// Cutoff returns the oldest timestamp that survives a purge at now.
func (t RetentionTarget) Cutoff(now time.Time) time.Time {
	return now.UTC().Add(-t.Retention)
}

// RetentionTargets lists every tracking table with the configured windows.
func RetentionTargets(repo *Repository, cfg config.TrackingConfig) []RetentionTarget {
	return []RetentionTarget{
		{Name: RetentionAnonymousSessions, Retention: cfg.AnonymousRetention, Purge: repo.DeleteAnonymousSessionsBefore},
		{Name: RetentionUserSessions, Retention: cfg.UserSessionRetention, Purge: repo.DeleteUserSessionsBefore},
		{Name: RetentionLoginAttempts, Retention: cfg.LoginAttemptRetention, Purge: repo.DeleteLoginAttemptsBefore},
	}
}
