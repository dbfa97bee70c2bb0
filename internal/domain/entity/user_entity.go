package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the account domain.
// Password holds a bcrypt hash, never the plaintext. RefreshTokenHash and the
// reset-token pair hold SHA-256 digests of the corresponding bearer secrets;
// the raw values are never persisted.
type User struct {
	ID               string
	Username         string
	Email            string
	FullName         string
	Password         string
	AvatarURL        string
	CoverImageURL    string
	RefreshTokenHash string
	ResetTokenHash   string
	ResetTokenExpiry time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NormalizeIdentifier canonicalizes a username or email for lookup and
// storage: trimmed and lowercased.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
