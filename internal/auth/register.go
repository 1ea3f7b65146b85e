package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/naebak/naebak-auth-service/internal/profiles"
	"github.com/naebak/naebak-auth-service/internal/reference"
	"github.com/naebak/naebak-auth-service/internal/users"
	"github.com/naebak/naebak-auth-service/pkg/db"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
	"github.com/naebak/naebak-auth-service/pkg/enums"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"github.com/naebak/naebak-auth-service/pkg/mailer"
	"github.com/naebak/naebak-auth-service/pkg/security"
	"gorm.io/gorm"
)

const (
	msgEmailTaken          = "البريد الإلكتروني مسجل بالفعل"
	msgPasswordMismatch    = "كلمتا المرور غير متطابقتين"
	msgWeakPassword        = "كلمة المرور ضعيفة"
	msgInvalidUserType     = "نوع المستخدم غير صالح"
	msgInvalidRegistration = "بيانات التسجيل غير صالحة"
)

// Register creates the identity and its profile in one transaction, then
// issues tokens and queues the welcome email.
func (s *service) Register(ctx context.Context, req RegisterRequest, meta RequestMeta) (*RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if err := s.checkRegistration(email, firstName, lastName, req); err != nil {
		return nil, err
	}
	userType, err := enums.ParseUserType(strings.TrimSpace(req.UserType))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidUserType, err, msgInvalidUserType).
			WithDetails(map[string]any{"field": "user_type"})
	}

	hash, err := security.HashPassword(req.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	status := enums.VerificationStatusPending
	if userType == enums.UserTypeCitizen && s.flags.AutoApproveCitizens {
		status = enums.VerificationStatusVerified
	}

	var (
		user    *models.User
		profile profiles.Profile
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return duplicateEmail(nil)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:              email,
			PasswordHash:       hash,
			FirstName:          firstName,
			LastName:           lastName,
			Phone:              trimmedOptional(req.Phone),
			UserType:           userType,
			VerificationStatus: status,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "email") {
				return duplicateEmail(err)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		p, err := profiles.Build(ctx, reference.NewRepository(tx), created, req.Fields)
		if err != nil {
			return err
		}
		if err := profiles.NewRepository(tx).Create(ctx, p); err != nil {
			return profiles.MapWriteError(err, "create profile")
		}
		user, profile = created, p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRegistration(string(user.UserType))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":   user.ID.String(),
		"user_type": string(user.UserType),
		"ip":        meta.IPAddress,
	}), "auth.register.succeeded")

	if s.notifier != nil {
		s.notifier.Welcome(ctx, mailer.Recipient{
			Email:      user.Email,
			Name:       user.FullName(),
			UserTypeAR: user.UserType.DisplayAR(),
		})
	}

	tokens, err := s.issueTokens(ctx, user, false)
	if err != nil {
		return nil, err
	}
	return &RegisterResponse{
		User:    users.FromModel(user),
		Profile: profiles.FromProfile(profile),
		Tokens:  *tokens,
		Welcome: NewWelcome(user, true),
	}, nil
}

// checkRegistration repeats the transport checks so the service is safe to
// call directly, using the configured password policy.
func (s *service) checkRegistration(email, firstName, lastName string, req RegisterRequest) error {
	fields := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "يجب إدخال بريد إلكتروني صالح"
	}
	if firstName == "" {
		fields["first_name"] = "هذا الحقل مطلوب"
	}
	if lastName == "" {
		fields["last_name"] = "هذا الحقل مطلوب"
	}
	if req.Password != req.PasswordConfirmation {
		fields["password_confirmation"] = msgPasswordMismatch
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidRegistration).WithDetails(map[string]any{"fields": fields})
	}
	return s.checkPasswordPolicy("password", req.Password)
}

func (s *service) checkPasswordPolicy(field, password string) error {
	if problems := security.PasswordProblems(password, s.pwCfg); len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeWeakPassword, msgWeakPassword).
			WithDetails(map[string]any{field: problems})
	}
	return nil
}

func duplicateEmail(cause error) error {
	details := map[string]any{"field": "email"}
	if cause == nil {
		return pkgerrors.New(pkgerrors.CodeDuplicateAccount, msgEmailTaken).WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDuplicateAccount, cause, msgEmailTaken).WithDetails(details)
}

func trimmedOptional(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
