package enums

import "fmt"

// ProfileKind identifies which profile variant an account owns.
type ProfileKind string

const (
	ProfileKindCitizen   ProfileKind = "citizen"
	ProfileKindCandidate ProfileKind = "candidate"
	ProfileKindMember    ProfileKind = "member"
)

var profileKindByUserType = map[UserType]ProfileKind{
	UserTypeCitizen:             ProfileKindCitizen,
	UserTypeParliamentCandidate: ProfileKindCandidate,
	UserTypeSenateCandidate:     ProfileKindCandidate,
	UserTypeParliamentMember:    ProfileKindMember,
	UserTypeSenateMember:        ProfileKindMember,
}

// String implements fmt.Stringer.
func (k ProfileKind) String() string {
	return string(k)
}

// ProfileKindFor maps a user type to the profile variant it owns.
func ProfileKindFor(u UserType) (ProfileKind, error) {
	if kind, ok := profileKindByUserType[u]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("no profile kind mapped for user type %q", u)
}

// CheckProfileKindMapping fails when a user type has no profile variant.
func CheckProfileKindMapping() error {
	for _, u := range validUserTypes {
		if _, err := ProfileKindFor(u); err != nil {
			return err
		}
	}
	return nil
}
