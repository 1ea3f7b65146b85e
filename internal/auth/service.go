package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/internal/tracking"
	"github.com/naebak/naebak-auth-service/internal/users"
	pkgAuth "github.com/naebak/naebak-auth-service/pkg/auth"
	"github.com/naebak/naebak-auth-service/pkg/auth/session"
	"github.com/naebak/naebak-auth-service/pkg/config"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"github.com/naebak/naebak-auth-service/pkg/logger"
	"github.com/naebak/naebak-auth-service/pkg/mailer"
	"github.com/naebak/naebak-auth-service/pkg/metrics"
	"github.com/naebak/naebak-auth-service/pkg/security"
	"gorm.io/gorm"
)

const (
	msgInvalidCredentials = "البريد الإلكتروني أو كلمة المرور غير صحيحة"
	msgAccountInactive    = "الحساب غير مفعل"
	msgInvalidSession     = "الجلسة غير صالحة، يرجى تسجيل الدخول مرة أخرى"
	msgLockedOut          = "تم إيقاف تسجيل الدخول مؤقتاً بسبب محاولات فاشلة متكررة، حاول لاحقاً"

	reasonUnknownEmail    = "unknown_email"
	reasonInvalidPassword = "invalid_password"
	reasonAccountInactive = "account_inactive"
	reasonLockedOut       = "locked_out"

	// decoyPassword backs the hash verified for unknown emails so that
	// every login attempt pays for one argon2 derivation.
	decoyPassword = "naebak-decoy-credential"

	tokenTypeBearer = "Bearer"
)

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest, meta RequestMeta) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest, meta RequestMeta) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
	Refresh(ctx context.Context, accessToken, refreshToken string) (*Tokens, error)
	Status(ctx context.Context, userID uuid.UUID) (*StatusResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, accessID string, req PasswordChangeRequest) (*Tokens, error)
	RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error
	ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time, ip string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	SetPassword(ctx context.Context, id uuid.UUID, hash string, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, remember bool) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type activityTracker interface {
	RecordLoginAttempt(ctx context.Context, a tracking.LoginAttempt) error
	DeactivateSession(ctx context.Context, sessionKey string) error
	FailedLoginsSince(ctx context.Context, email string, window time.Duration) (int64, error)
	ActiveSessionKeys(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type resetStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	PasswordResetKey(token string) string
}

type notifier interface {
	Welcome(ctx context.Context, to mailer.Recipient)
	PasswordReset(ctx context.Context, to mailer.Recipient, link string)
}

// ServiceParams bundles the dependencies required to build an auth service.
// Tracker, Notifier and Metrics are optional. Lockout needs a Tracker.
type ServiceParams struct {
	DB             txRunner
	UserRepo       userRepository
	SessionManager sessionManager
	Resets         resetStore
	Tracker        activityTracker
	Notifier       notifier
	Metrics        *metrics.AuthMetrics
	Logger         *logger.Logger
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	FeatureFlags   config.FeatureFlagsConfig
	Lockout        config.LockoutConfig
}

type service struct {
	db       txRunner
	users    userRepository
	sessions sessionManager
	resets   resetStore
	tracker  activityTracker
	notifier notifier
	metrics  *metrics.AuthMetrics
	logg     *logger.Logger
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	flags    config.FeatureFlagsConfig
	lockout  config.LockoutConfig
	now      func() time.Time

	dummyHash string
	verify    func(password, encoded string) (bool, error)
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Resets == nil {
		return nil, fmt.Errorf("reset token store is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	dummyHash, err := security.HashPassword(decoyPassword, params.PasswordConfig)
	if err != nil {
		return nil, fmt.Errorf("derive decoy hash: %w", err)
	}
	return &service{
		db:       params.DB,
		users:    params.UserRepo,
		sessions: params.SessionManager,
		resets:   params.Resets,
		tracker:  params.Tracker,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     logg,
		jwtCfg:   params.JWTConfig,
		pwCfg:    params.PasswordConfig,
		flags:    params.FeatureFlags,
		lockout:  params.Lockout,
		now:      func() time.Time { return time.Now().UTC() },

		dummyHash: dummyHash,
		verify:    security.VerifyPassword,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest, meta RequestMeta) (*LoginResponse, error) {
	email := normalizeEmail(req.Email)
	attempt := tracking.LoginAttempt{Email: email, IPAddress: meta.IPAddress, UserAgent: meta.UserAgent}

	if s.lockedOut(ctx, email) {
		s.metrics.IncLogin(reasonLockedOut)
		s.logg.Warn(s.logg.WithField(ctx, "reason", reasonLockedOut), "auth.login.failed")
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, msgLockedOut)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_, _ = s.verify(req.Password, s.dummyHash)
			return nil, s.loginFailed(ctx, attempt, reasonUnknownEmail, pkgerrors.New(pkgerrors.CodeInvalidCredentials, msgInvalidCredentials))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := s.verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, s.loginFailed(ctx, attempt, reasonInvalidPassword, pkgerrors.New(pkgerrors.CodeInvalidCredentials, msgInvalidCredentials))
	}
	if !user.IsActive {
		return nil, s.loginFailed(ctx, attempt, reasonAccountInactive, pkgerrors.New(pkgerrors.CodeAccountInactive, msgAccountInactive))
	}

	if security.NeedsRehash(user.PasswordHash, s.pwCfg) {
		s.upgradeHash(ctx, user, req.Password)
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now, meta.IPAddress); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	user.LastActiveAt = &now

	tokens, err := s.issueTokens(ctx, user, req.RememberMe)
	if err != nil {
		return nil, err
	}

	attempt.Success = true
	s.recordAttempt(ctx, attempt)
	s.metrics.IncLogin("success")
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.login.succeeded")

	return &LoginResponse{
		User:    users.FromModel(user),
		Tokens:  *tokens,
		Welcome: NewWelcome(user, false),
	}, nil
}

// lockedOut reports whether email used up its failed attempts inside the
// lockout window. Lookup errors let the login proceed.
func (s *service) lockedOut(ctx context.Context, email string) bool {
	if !s.lockout.Enabled() || s.tracker == nil || email == "" {
		return false
	}
	failed, err := s.tracker.FailedLoginsSince(ctx, email, s.lockout.Window)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.login.lockout_check_failed")
		return false
	}
	return failed >= int64(s.lockout.MaxAttempts)
}

func (s *service) loginFailed(ctx context.Context, attempt tracking.LoginAttempt, reason string, err error) error {
	attempt.FailureReason = reason
	s.recordAttempt(ctx, attempt)
	s.metrics.IncLogin(reason)
	s.logg.Warn(s.logg.WithField(ctx, "reason", reason), "auth.login.failed")
	return err
}

func (s *service) recordAttempt(ctx context.Context, attempt tracking.LoginAttempt) {
	if s.tracker == nil {
		return
	}
	if err := s.tracker.RecordLoginAttempt(ctx, attempt); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "tracking.login_attempt_failed")
	}
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidSession)
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	if s.tracker != nil {
		if err := s.tracker.DeactivateSession(ctx, accessID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "tracking.deactivate_failed")
		}
	}
	s.logg.Info(ctx, "auth.logout")
	return nil
}

// Refresh rotates the pair. The access token may be expired but its
// signature and issuer must check out.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*Tokens, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msgInvalidSession)
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidSession)
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidSession)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		_ = s.sessions.Revoke(ctx, newAccessID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidSession)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.IsActive {
		_ = s.sessions.Revoke(ctx, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeAccountInactive, msgAccountInactive)
	}
	if issuedBeforePasswordChange(claims, user) {
		_ = s.sessions.Revoke(ctx, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidSession)
	}

	access, err := s.mint(user, newAccessID)
	if err != nil {
		return nil, err
	}
	return &Tokens{
		AccessToken:  access,
		RefreshToken: newRefresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int(s.jwtCfg.AccessTokenTTL().Seconds()),
	}, nil
}

// issuedBeforePasswordChange holds for tokens minted before the last
// user-chosen password. JWT timestamps carry whole seconds.
func issuedBeforePasswordChange(claims *pkgAuth.AccessTokenClaims, user *models.User) bool {
	if user.PasswordChangedAt == nil || claims.IssuedAt == nil {
		return false
	}
	return claims.IssuedAt.Time.Before(user.PasswordChangedAt.Truncate(time.Second))
}

// Status reports the session state. uuid.Nil means no principal.
func (s *service) Status(ctx context.Context, userID uuid.UUID) (*StatusResponse, error) {
	if userID == uuid.Nil {
		return s.status(nil), nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.status(nil), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.IsActive {
		return s.status(nil), nil
	}
	return s.status(user), nil
}

func (s *service) status(user *models.User) *StatusResponse {
	resp := &StatusResponse{
		Authenticated:             user != nil,
		EmailVerificationRequired: s.flags.EmailVerificationRequired,
		PhoneVerificationRequired: s.flags.PhoneVerificationRequired,
	}
	if user != nil {
		resp.User = users.FromModel(user)
	}
	return resp
}

func (s *service) issueTokens(ctx context.Context, user *models.User, remember bool) (*Tokens, error) {
	accessID := session.NewAccessID()
	access, err := s.mint(user, accessID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.Generate(ctx, accessID, remember)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int(s.jwtCfg.AccessTokenTTL().Seconds()),
	}, nil
}

func (s *service) mint(user *models.User, accessID string) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID:             user.ID,
		UserType:           user.UserType,
		VerificationStatus: user.VerificationStatus,
		JTI:                accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// upgradeHash re-derives the stored hash with the current costs. Failures
// only cost the upgrade, never the login.
func (s *service) upgradeHash(ctx context.Context, user *models.User, password string) {
	hash, err := security.HashPassword(password, s.pwCfg)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.login.rehash_failed")
		return
	}
	user.PasswordHash = hash
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.login.rehashed")
}
