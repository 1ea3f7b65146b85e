package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/internal/reference"
	"github.com/naebak/naebak-auth-service/internal/users"
	"github.com/naebak/naebak-auth-service/pkg/db"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"gorm.io/gorm"
)

const (
	msgProfileNotFound   = "الملف الشخصي غير موجود"
	msgUserTypeImmutable = "لا يمكن تغيير نوع المستخدم"
	msgNationalIDTaken   = "الرقم القومي مسجل بالفعل"
)

// ReferenceChecker confirms that foreign keys point at real reference rows.
type ReferenceChecker interface {
	GovernorateExists(ctx context.Context, id uint) (bool, error)
	PartyExists(ctx context.Context, id uint) (bool, error)
}

// UpdateRequest is the PATCH/PUT body for the profile endpoint. Identity
// fields are optional; user_type is accepted by the decoder only so it can be
// rejected explicitly.
type UpdateRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone_number,omitempty"`
	UserType  *string `json:"user_type,omitempty"`
	Fields
}

// Build validates fields for the variant owned by user and returns the
// unsaved profile. refs is consulted for governorate and party ids.
func Build(ctx context.Context, refs ReferenceChecker, user *models.User, fields Fields) (Profile, error) {
	p, err := New(user.UserType, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidUserType, err, "نوع المستخدم غير صالح")
	}
	if err := fields.apply(p); err != nil {
		return nil, err
	}
	if errs := requiredMissing(p); len(errs) > 0 {
		return nil, errs.err()
	}
	if err := checkReferences(ctx, refs, p, nil); err != nil {
		return nil, err
	}
	return p, nil
}

// checkReferences verifies governorate and party ids. When before is set only
// ids that changed are looked up.
func checkReferences(ctx context.Context, refs ReferenceChecker, p Profile, before *snapshot) error {
	errs := fieldErrors{}
	gov := p.Common().GovernorateID
	if before == nil || before.governorateID != gov {
		ok, err := refs.GovernorateExists(ctx, gov)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check governorate")
		}
		if !ok {
			errs.add("governorate_id", msgNoGovernorate)
		}
	}
	if e, isElectoral := p.(electoral); isElectoral {
		party := e.Electoral().PartyID
		if before == nil || before.partyID != party {
			ok, err := refs.PartyExists(ctx, party)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check party")
			}
			if !ok {
				errs.add("party_id", msgNoParty)
			}
		}
	}
	return errs.err()
}

type snapshot struct {
	nationalID    string
	governorateID uint
	partyID       uint
}

func snapshotOf(p Profile) *snapshot {
	s := &snapshot{nationalID: p.Common().NationalID, governorateID: p.Common().GovernorateID}
	if e, ok := p.(electoral); ok {
		s.partyID = e.Electoral().PartyID
	}
	return s
}

// MapWriteError translates a national id collision into DUPLICATE_ACCOUNT.
// Other errors are wrapped as internal.
func MapWriteError(err error, action string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	if db.IsUniqueViolation(err, "national_id") {
		return pkgerrors.Wrap(pkgerrors.CodeDuplicateAccount, err, msgNationalIDTaken).
			WithDetails(map[string]any{"field": "national_id"})
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

// Service serves the authenticated profile endpoints.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	Update(ctx context.Context, userID uuid.UUID, req UpdateRequest) (*View, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the profile service dependencies.
type ServiceParams struct {
	DB        *gorm.DB
	Tx        txRunner
	Reference ReferenceChecker
}

type service struct {
	db   *gorm.DB
	tx   txRunner
	refs ReferenceChecker
}

// NewService builds the profile service. Without a Reference checker the
// lookups run on the update transaction.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{db: params.DB, tx: params.Tx, refs: params.Reference}, nil
}

func (s *service) references(tx *gorm.DB) ReferenceChecker {
	if s.refs != nil {
		return s.refs
	}
	return reference.NewRepository(tx)
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	user, p, err := s.load(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return &View{User: users.FromModel(user), Profile: FromProfile(p)}, nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, req UpdateRequest) (*View, error) {
	if req.UserType != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgUserTypeImmutable).
			WithDetails(map[string]any{"fields": map[string]string{"user_type": msgUserTypeImmutable}})
	}
	identity, err := identityUpdates(req)
	if err != nil {
		return nil, err
	}

	var view *View
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user, p, err := s.load(ctx, tx, userID)
		if err != nil {
			return err
		}
		before := snapshotOf(p)
		if err := req.Fields.apply(p); err != nil {
			return err
		}
		if err := checkReferences(ctx, s.references(tx), p, before); err != nil {
			return err
		}
		if err := NewRepository(tx).Save(ctx, p, before.nationalID); err != nil {
			return MapWriteError(err, "save profile")
		}
		if len(identity) > 0 {
			if err := users.NewRepository(tx).UpdateIdentity(ctx, userID, identity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update identity")
			}
			if user, err = users.NewRepository(tx).FindByID(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
			}
		}
		view = &View{User: users.FromModel(user), Profile: FromProfile(p)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) load(ctx context.Context, conn *gorm.DB, userID uuid.UUID) (*models.User, Profile, error) {
	user, err := users.NewRepository(conn).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeProfileNotFound, msgProfileNotFound)
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	kind, err := KindFor(user.UserType)
	if err != nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeProfileNotFound, msgProfileNotFound)
	}
	p, err := NewRepository(conn).FindByUser(ctx, userID, kind)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeProfileNotFound, msgProfileNotFound)
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	return user, p, nil
}

func identityUpdates(req UpdateRequest) (map[string]any, error) {
	updates := map[string]any{}
	errs := fieldErrors{}
	if req.FirstName != nil {
		if v := strings.TrimSpace(*req.FirstName); v == "" {
			errs.add("first_name", msgRequired)
		} else {
			updates["first_name"] = v
		}
	}
	if req.LastName != nil {
		if v := strings.TrimSpace(*req.LastName); v == "" {
			errs.add("last_name", msgRequired)
		} else {
			updates["last_name"] = v
		}
	}
	if req.Phone != nil {
		if v := strings.TrimSpace(*req.Phone); v == "" {
			updates["phone"] = nil
		} else {
			updates["phone"] = v
		}
	}
	if len(errs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "بيانات غير صالحة").
			WithDetails(map[string]any{"fields": map[string]string(errs)})
	}
	return updates, nil
}
