package repository

import (
	"context"
	"time"

	"github.com/videotube/videotube-api/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
// The credential/session columns of a user row are only ever mutated through
// the dedicated methods below so the storage layer can keep them atomic.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByIdentifier resolves a user by username or email.
	GetByIdentifier(ctx context.Context, identifier string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error

	// SetRefreshToken unconditionally stores the hash of a freshly issued
	// refresh token (login path).
	SetRefreshToken(ctx context.Context, id, tokenHash string) error
	// RotateRefreshToken swaps oldHash for newHash only if oldHash is still
	// the stored value. Returns false when the stored token no longer
	// matches, which signals reuse of a rotated-out token.
	RotateRefreshToken(ctx context.Context, id, oldHash, newHash string) (bool, error)
	// ClearRefreshToken unsets the stored refresh token (logout path).
	ClearRefreshToken(ctx context.Context, id string) error

	// SetResetToken stores a pending password-reset token hash and its
	// expiry, superseding any previous pending reset.
	SetResetToken(ctx context.Context, id, tokenHash string, expiry time.Time) error
	// ClearResetToken rolls back a pending reset (delivery failure path).
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken atomically replaces the password hash of the user
	// whose stored reset-token hash matches tokenHash and whose expiry is in
	// the future, clearing the reset state and the refresh token in the same
	// statement. Returns false when no row matched.
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (bool, error)

	// UpdatePassword replaces the password hash (authenticated change).
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
