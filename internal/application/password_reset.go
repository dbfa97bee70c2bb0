package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/videotube/videotube-api/pkg/helpers"
	"github.com/videotube/videotube-api/pkg/mailer"
	tpl "github.com/videotube/videotube-api/pkg/mailer/templates"
)

var (
	// ErrPasswordMismatch is returned when the confirmation password does
	// not equal the new password.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrResetTokenInvalid covers both an unknown and an expired reset
	// token; the two cases are deliberately indistinguishable.
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
	// ErrMailUnavailable is returned when the email queue cannot accept the
	// reset message; the pending reset state is rolled back first.
	ErrMailUnavailable = errors.New("email delivery unavailable")
)

const resetTokenBytes = 32

// RequestPasswordReset starts the reset flow for the account with the given
// email. The caller receives no signal about whether the account exists.
// Only the token's hash is persisted; the plaintext leaves the process
// inside the queued email job and nowhere else.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		s.Logger.WithField("email", email).Info("password reset requested for unknown email")
		return nil
	}

	token, err := helpers.GenerateToken(resetTokenBytes)
	if err != nil {
		s.Logger.WithError(err).Error("reset token generation failed")
		return err
	}
	expiry := s.now().Add(s.ResetTokenTTL)
	// A new request overwrites any pending reset, superseding its token.
	if err := s.Repo.SetResetToken(ctx, u.ID, helpers.HashToken(token), expiry); err != nil {
		return err
	}

	job := mailer.EmailJob{
		To:       u.Email,
		Template: tpl.ResetPassword,
		Data: map[string]any{
			"Name":          u.FullName,
			"ResetURL":      fmt.Sprintf("%s?token=%s", s.ResetPasswordURL, token),
			"ExpiresInText": s.ResetTokenTTL.String(),
		},
	}
	if s.Pub == nil {
		// No queue, no way to hand the token to the user; do not leave a
		// pending reset nobody can complete.
		_ = s.Repo.ClearResetToken(ctx, u.ID)
		return ErrMailUnavailable
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("reset email enqueue failed")
		_ = s.Repo.ClearResetToken(ctx, u.ID)
		return ErrMailUnavailable
	}
	return nil
}

// ConsumePasswordReset exchanges a presented reset token for a password
// change. Matching the token hash and the expiry, replacing the password,
// and revoking the current refresh token happen in one storage operation.
func (s *Service) ConsumePasswordReset(ctx context.Context, token, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		s.Logger.WithError(err).Error("password hashing failed")
		return err
	}
	ok, err := s.Repo.ConsumeResetToken(ctx, helpers.HashToken(token), hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrResetTokenInvalid
	}
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// re-verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return ErrUserNotFound
	}
	if !s.Hasher.Verify(u.Password, oldPassword) {
		return ErrInvalidCredentials
	}
	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		s.Logger.WithError(err).Error("password hashing failed")
		return err
	}
	return s.Repo.UpdatePassword(ctx, u.ID, hash)
}
