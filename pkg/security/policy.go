package security

import (
	"fmt"
	"unicode"

	"github.com/naebak/naebak-auth-service/pkg/config"
)

const minPasswordLength = 8

// PasswordProblems lists every strength rule the password breaks, as Arabic
// messages suitable for the error details. An empty result means the password
// is acceptable.
func PasswordProblems(password string, cfg config.PasswordConfig) []string {
	minLen := cfg.MinLength
	if minLen < minPasswordLength {
		minLen = minPasswordLength
	}

	var problems []string
	if len([]rune(password)) < minLen {
		problems = append(problems, fmt.Sprintf("كلمة المرور يجب أن تكون %d أحرف على الأقل", minLen))
	}
	if !cfg.RequireMixed {
		return problems
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		problems = append(problems, "كلمة المرور يجب أن تحتوي على حرف كبير واحد على الأقل")
	}
	if !lower {
		problems = append(problems, "كلمة المرور يجب أن تحتوي على حرف صغير واحد على الأقل")
	}
	if !digit {
		problems = append(problems, "كلمة المرور يجب أن تحتوي على رقم واحد على الأقل")
	}
	return problems
}

// IsStrongPassword reports whether the password satisfies the configured policy.
func IsStrongPassword(password string, cfg config.PasswordConfig) bool {
	return len(PasswordProblems(password, cfg)) == 0
}
