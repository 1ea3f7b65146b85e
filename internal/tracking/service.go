package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
)

const (
	// CandidatePagePrefix marks the public candidate pages worth recording for
	// anonymous visitors.
	CandidatePagePrefix = "/api/v1/candidates/"

	maxFailureReasonLen = 100
	maxUserAgentLen     = 512
)

// Visit describes one request as seen by the tracking middleware.
type Visit struct {
	SessionKey string
	UserID     uuid.UUID
	IPAddress  string
	UserAgent  string
	Path       string
}

// LoginAttempt is the audit input recorded for every credential check.
type LoginAttempt struct {
	Email         string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
}

type store interface {
	UpsertUserSession(ctx context.Context, row *models.UserSession) error
	DeactivateUserSession(ctx context.Context, sessionKey string, at time.Time) error
	TouchAnonymous(ctx context.Context, row *models.AnonymousSession, page string) error
	CreateLoginAttempt(ctx context.Context, row *models.LoginAttempt) error
	CountFailedAttemptsSince(ctx context.Context, email string, since time.Time) (int64, error)
	ListUserSessions(ctx context.Context, userID uuid.UUID) ([]models.UserSession, error)
}

type activityToucher interface {
	TouchActivity(ctx context.Context, id uuid.UUID, at time.Time, ip string) error
}

// Service records session activity and login attempts.
type Service struct {
	repo  store
	users activityToucher
	now   func() time.Time
}

// NewService wires the tracking service. users may be nil when last-seen
// stamping is not wanted.
func NewService(repo store, users activityToucher) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tracking repository required")
	}
	return &Service{repo: repo, users: users, now: time.Now}, nil
}

// TouchUserSession upserts the authenticated session keyed by the access
// token id and refreshes the user's last activity and login ip.
func (s *Service) TouchUserSession(ctx context.Context, v Visit) error {
	if v.SessionKey == "" || v.UserID == uuid.Nil {
		return fmt.Errorf("session key and user id required")
	}
	now := s.now().UTC()
	ua := truncate(v.UserAgent, maxUserAgentLen)
	row := &models.UserSession{
		SessionKey:   v.SessionKey,
		UserID:       v.UserID,
		IPAddress:    v.IPAddress,
		UserAgent:    ua,
		DeviceType:   DeviceType(ua),
		IsActive:     true,
		LastActivity: now,
	}
	if err := s.repo.UpsertUserSession(ctx, row); err != nil {
		return fmt.Errorf("upsert user session: %w", err)
	}
	if s.users != nil {
		if err := s.users.TouchActivity(ctx, v.UserID, now, v.IPAddress); err != nil {
			return fmt.Errorf("touch user activity: %w", err)
		}
	}
	return nil
}

// TouchAnonymous upserts the visitor session. Candidate pages are appended to
// the visited list once each.
func (s *Service) TouchAnonymous(ctx context.Context, v Visit) error {
	if v.SessionKey == "" {
		return fmt.Errorf("session key required")
	}
	ua := truncate(v.UserAgent, maxUserAgentLen)
	row := &models.AnonymousSession{
		SessionKey:   v.SessionKey,
		IPAddress:    v.IPAddress,
		UserAgent:    ua,
		DeviceType:   DeviceType(ua),
		LastActivity: s.now().UTC(),
	}
	if err := s.repo.TouchAnonymous(ctx, row, CandidatePage(v.Path)); err != nil {
		return fmt.Errorf("touch anonymous session: %w", err)
	}
	return nil
}

// DeactivateSession marks the authenticated session inactive on logout.
func (s *Service) DeactivateSession(ctx context.Context, sessionKey string) error {
	if sessionKey == "" {
		return nil
	}
	if err := s.repo.DeactivateUserSession(ctx, sessionKey, s.now().UTC()); err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

// RecordLoginAttempt stores an audit row. The failure reason is a short code
// and is clipped to the column width.
func (s *Service) RecordLoginAttempt(ctx context.Context, a LoginAttempt) error {
	row := &models.LoginAttempt{
		Email:       strings.ToLower(strings.TrimSpace(a.Email)),
		IPAddress:   a.IPAddress,
		UserAgent:   truncate(a.UserAgent, maxUserAgentLen),
		Success:     a.Success,
		AttemptedAt: s.now().UTC(),
	}
	if !a.Success && a.FailureReason != "" {
		reason := truncate(a.FailureReason, maxFailureReasonLen)
		row.FailureReason = &reason
	}
	if err := s.repo.CreateLoginAttempt(ctx, row); err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

// FailedLoginsSince counts the failed attempts recorded for email within the
// last window.
func (s *Service) FailedLoginsSince(ctx context.Context, email string, window time.Duration) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || window <= 0 {
		return 0, nil
	}
	count, err := s.repo.CountFailedAttemptsSince(ctx, email, s.now().UTC().Add(-window))
	if err != nil {
		return 0, fmt.Errorf("count failed logins: %w", err)
	}
	return count, nil
}

// ActiveSessionKeys returns the access ids of the user's sessions that are
// still marked active.
func (s *Service) ActiveSessionKeys(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.repo.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.IsActive {
			keys = append(keys, row.SessionKey)
		}
	}
	return keys, nil
}

// CandidatePage returns path when it is a candidate detail page, otherwise "".
func CandidatePage(path string) string {
	if !strings.HasPrefix(path, CandidatePagePrefix) || len(path) == len(CandidatePagePrefix) {
		return ""
	}
	return path
}

func truncate(value string, max int) string {
	if utf8.RuneCountInString(value) <= max {
		return value
	}
	runes := []rune(value)
	return string(runes[:max])
}
