package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"github.com/naebak/naebak-auth-service/pkg/mailer"
	"github.com/naebak/naebak-auth-service/pkg/security"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	msgWrongOldPassword  = "كلمة المرور الحالية غير صحيحة"
	msgInvalidResetToken = "رابط إعادة التعيين غير صالح أو منتهي الصلاحية"
)

// ChangePassword verifies the old password, stores the new hash, revokes every
// session of the user and hands the caller a fresh pair.
func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, accessID string, req PasswordChangeRequest) (*Tokens, error) {
	if req.NewPassword != req.NewPasswordConfirmation {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgPasswordMismatch).
			WithDetails(map[string]any{"fields": map[string]string{"new_password_confirmation": msgPasswordMismatch}})
	}
	if err := s.checkPasswordPolicy("new_password", req.NewPassword); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidSession)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	ok, err := s.verify(req.OldPassword, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgWrongOldPassword).
			WithDetails(map[string]any{"fields": map[string]string{"old_password": msgWrongOldPassword}})
	}

	hash, err := security.HashPassword(req.NewPassword, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.SetPassword(ctx, user.ID, hash, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}

	if accessID != "" {
		if err := s.sessions.Revoke(ctx, accessID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.password_change.revoke_failed")
		}
	}
	s.revokeUserSessions(ctx, user.ID)
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.password_changed")
	return s.issueTokens(ctx, user, false)
}

// RequestPasswordReset emails a single-use token when the address belongs to
// an active account. The outcome is never revealed to the caller.
func (s *service) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error {
	email := normalizeEmail(req.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.password_reset.lookup_failed")
		}
		return nil
	}
	if !user.IsActive {
		return nil
	}

	token, err := security.NewResetToken(s.now())
	if err != nil {
		s.logg.Error(ctx, "auth.password_reset.token_failed", err)
		return nil
	}
	if err := s.resets.Set(ctx, s.resets.PasswordResetKey(token), user.ID.String(), s.resetTTL()); err != nil {
		s.logg.Error(ctx, "auth.password_reset.store_failed", err)
		return nil
	}

	if s.notifier != nil {
		s.notifier.PasswordReset(ctx, mailer.Recipient{
			Email:      user.Email,
			Name:       user.FullName(),
			UserTypeAR: user.UserType.DisplayAR(),
		}, s.pwCfg.ResetURLPrefix+token)
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.password_reset.requested")
	return nil
}

// ConfirmPasswordReset consumes the token, sets the new password and signs
// the user out everywhere.
func (s *service) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	if req.NewPassword != req.NewPasswordConfirmation {
		return pkgerrors.New(pkgerrors.CodeValidation, msgPasswordMismatch).
			WithDetails(map[string]any{"fields": map[string]string{"new_password_confirmation": msgPasswordMismatch}})
	}
	if err := s.checkPasswordPolicy("new_password", req.NewPassword); err != nil {
		return err
	}
	if !security.IsResetTokenFormat(req.Token) {
		return invalidResetToken(nil)
	}

	raw, err := s.resets.GetDel(ctx, s.resets.PasswordResetKey(req.Token))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return invalidResetToken(nil)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read reset token")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return invalidResetToken(err)
	}

	hash, err := security.HashPassword(req.NewPassword, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.SetPassword(ctx, userID, hash, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidResetToken(err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	s.revokeUserSessions(ctx, userID)
	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "auth.password_reset.completed")
	return nil
}

// revokeUserSessions drops the refresh records of every tracked active
// session. Untracked sessions are caught on refresh by the password
// change stamp.
func (s *service) revokeUserSessions(ctx context.Context, userID uuid.UUID) {
	if s.tracker == nil {
		return
	}
	keys, err := s.tracker.ActiveSessionKeys(ctx, userID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.sessions.list_failed")
		return
	}
	for _, key := range keys {
		if err := s.sessions.Revoke(ctx, key); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.sessions.revoke_failed")
			continue
		}
		if err := s.tracker.DeactivateSession(ctx, key); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "tracking.deactivate_failed")
		}
	}
}

func (s *service) resetTTL() time.Duration {
	if s.pwCfg.ResetTokenTTL > 0 {
		return s.pwCfg.ResetTokenTTL
	}
	return time.Hour
}

func invalidResetToken(cause error) error {
	details := map[string]any{"fields": map[string]string{"token": msgInvalidResetToken}}
	if cause == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidResetToken).WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, msgInvalidResetToken).WithDetails(details)
}
