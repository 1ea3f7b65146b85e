package security

// NationalIDLength is the length of an Egyptian national id.
const NationalIDLength = 14

// IsValidNationalID reports whether id is exactly 14 ASCII digits. Arabic-Indic
// digits are rejected.
func IsValidNationalID(id string) bool {
	if len(id) != NationalIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
