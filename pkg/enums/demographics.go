package enums

import "fmt"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// IsValid reports whether the value is a known Gender.
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// ParseGender converts raw input into a Gender.
func ParseGender(value string) (Gender, error) {
	g := Gender(value)
	if !g.IsValid() {
		return "", fmt.Errorf("invalid gender %q", value)
	}
	return g, nil
}

type MaritalStatus string

const (
	MaritalStatusSingle   MaritalStatus = "single"
	MaritalStatusMarried  MaritalStatus = "married"
	MaritalStatusDivorced MaritalStatus = "divorced"
	MaritalStatusWidowed  MaritalStatus = "widowed"
)

var validMaritalStatuses = []MaritalStatus{
	MaritalStatusSingle,
	MaritalStatusMarried,
	MaritalStatusDivorced,
	MaritalStatusWidowed,
}

// IsValid reports whether the value is a known MaritalStatus.
func (m MaritalStatus) IsValid() bool {
	for _, candidate := range validMaritalStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMaritalStatus converts raw input into a MaritalStatus.
func ParseMaritalStatus(value string) (MaritalStatus, error) {
	m := MaritalStatus(value)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid marital status %q", value)
	}
	return m, nil
}

type EducationLevel string

const (
	EducationLevelPrimary      EducationLevel = "primary"
	EducationLevelSecondary    EducationLevel = "secondary"
	EducationLevelUniversity   EducationLevel = "university"
	EducationLevelPostgraduate EducationLevel = "postgraduate"
)

var validEducationLevels = []EducationLevel{
	EducationLevelPrimary,
	EducationLevelSecondary,
	EducationLevelUniversity,
	EducationLevelPostgraduate,
}

// IsValid reports whether the value is a known EducationLevel.
func (e EducationLevel) IsValid() bool {
	for _, candidate := range validEducationLevels {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEducationLevel converts raw input into an EducationLevel.
func ParseEducationLevel(value string) (EducationLevel, error) {
	e := EducationLevel(value)
	if !e.IsValid() {
		return "", fmt.Errorf("invalid education level %q", value)
	}
	return e, nil
}
