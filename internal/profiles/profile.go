// Package profiles owns the per-user-type profile records. Exactly one
// variant exists per account and the account's user type selects it.
package profiles

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
	"github.com/naebak/naebak-auth-service/pkg/enums"
)

// Profile is implemented by *models.CitizenProfile, *models.CandidateProfile
// and *models.MemberProfile.
type Profile interface {
	ProfileKind() enums.ProfileKind
	Common() *models.ProfileBase
}

// electoral is satisfied by the candidate and member variants.
type electoral interface {
	Profile
	Electoral() *models.ElectoralProfile
}

var constructors = map[enums.ProfileKind]func() Profile{
	enums.ProfileKindCitizen:   func() Profile { return &models.CitizenProfile{} },
	enums.ProfileKindCandidate: func() Profile { return &models.CandidateProfile{} },
	enums.ProfileKindMember:    func() Profile { return &models.MemberProfile{} },
}

func init() {
	if err := checkDispatch(); err != nil {
		panic(err)
	}
}

// checkDispatch fails when some user type cannot be mapped to a constructor.
func checkDispatch() error {
	if err := enums.CheckProfileKindMapping(); err != nil {
		return err
	}
	for _, userType := range enums.UserTypes() {
		kind, _ := enums.ProfileKindFor(userType)
		if _, ok := constructors[kind]; !ok {
			return fmt.Errorf("no profile constructor for kind %q (user type %q)", kind, userType)
		}
	}
	return nil
}

// KindFor returns the profile variant owned by userType.
func KindFor(userType enums.UserType) (enums.ProfileKind, error) {
	return enums.ProfileKindFor(userType)
}

// New returns an empty variant for userType with its ownership and derived
// columns populated.
func New(userType enums.UserType, userID uuid.UUID) (Profile, error) {
	kind, err := KindFor(userType)
	if err != nil {
		return nil, err
	}
	p := constructors[kind]()
	p.Common().UserID = userID

	switch v := p.(type) {
	case *models.CitizenProfile:
		v.AllowMessages = true
	case electoral:
		council, ok := userType.CouncilType()
		if !ok {
			return nil, fmt.Errorf("user type %q has no council", userType)
		}
		v.Electoral().CouncilType = council
	}
	return p, nil
}

// empty returns a zero value of the variant for loading.
func empty(kind enums.ProfileKind) (Profile, error) {
	ctor, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("unknown profile kind %q", kind)
	}
	return ctor(), nil
}
