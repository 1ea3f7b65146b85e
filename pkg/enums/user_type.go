package enums

import "fmt"

// UserType discriminates what kind of account (and profile) a user owns.
type UserType string

const (
	UserTypeCitizen             UserType = "citizen"
	UserTypeParliamentCandidate UserType = "parliament_candidate"
	UserTypeSenateCandidate     UserType = "senate_candidate"
	UserTypeParliamentMember    UserType = "parliament_member"
	UserTypeSenateMember        UserType = "senate_member"
)

var validUserTypes = []UserType{
	UserTypeCitizen,
	UserTypeParliamentCandidate,
	UserTypeSenateCandidate,
	UserTypeParliamentMember,
	UserTypeSenateMember,
}

var userTypeDisplayAR = map[UserType]string{
	UserTypeCitizen:             "مواطن",
	UserTypeParliamentCandidate: "مرشح مجلس النواب",
	UserTypeSenateCandidate:     "مرشح مجلس الشيوخ",
	UserTypeParliamentMember:    "عضو مجلس النواب",
	UserTypeSenateMember:        "عضو مجلس الشيوخ",
}

// UserTypes returns every known user type.
func UserTypes() []UserType {
	out := make([]UserType, len(validUserTypes))
	copy(out, validUserTypes)
	return out
}

// String implements fmt.Stringer.
func (u UserType) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserType.
func (u UserType) IsValid() bool {
	for _, candidate := range validUserTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// DisplayAR returns the Arabic label shown to users.
func (u UserType) DisplayAR() string {
	if label, ok := userTypeDisplayAR[u]; ok {
		return label
	}
	return string(u)
}

// IsCandidate reports whether the account is running for a seat.
func (u UserType) IsCandidate() bool {
	return u == UserTypeParliamentCandidate || u == UserTypeSenateCandidate
}

// IsMember reports whether the account holds a seat.
func (u UserType) IsMember() bool {
	return u == UserTypeParliamentMember || u == UserTypeSenateMember
}

// CouncilType derives the council for candidates and members. Citizens have none.
func (u UserType) CouncilType() (CouncilType, bool) {
	switch u {
	case UserTypeParliamentCandidate, UserTypeParliamentMember:
		return CouncilTypeParliament, true
	case UserTypeSenateCandidate, UserTypeSenateMember:
		return CouncilTypeSenate, true
	default:
		return "", false
	}
}

// ParseUserType converts raw input into a UserType.
func ParseUserType(value string) (UserType, error) {
	for _, candidate := range validUserTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user type %q", value)
}

// CouncilType names the legislative chamber.
type CouncilType string

const (
	CouncilTypeParliament CouncilType = "parliament"
	CouncilTypeSenate     CouncilType = "senate"
)

// String implements fmt.Stringer.
func (c CouncilType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouncilType.
func (c CouncilType) IsValid() bool {
	return c == CouncilTypeParliament || c == CouncilTypeSenate
}
