package security

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewResetToken returns a single-use password reset token. The ULID entropy is
// drawn from crypto/rand.
func NewResetToken(now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return id.String(), nil
}

// IsResetTokenFormat rejects input that cannot be a token before touching Redis.
func IsResetTokenFormat(token string) bool {
	_, err := ulid.ParseStrict(token)
	return err == nil
}
