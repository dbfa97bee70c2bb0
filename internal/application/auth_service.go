package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/videotube/videotube-api/internal/domain/entity"
	repo "github.com/videotube/videotube-api/internal/domain/repository"
	"github.com/videotube/videotube-api/pkg/helpers"
)

var (
	// ErrInvalidCredentials covers both unknown identifier and wrong
	// password so login failures do not leak account existence.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrConflict           = errors.New("username or email already exists")
	// ErrTokenStale marks a refresh token that no longer matches the stored
	// value, i.e. reuse of a rotated-out or revoked token.
	ErrTokenStale = errors.New("refresh token no longer valid")
)

// EmailPublisher hands email jobs to the delivery queue. Satisfied by
// helpers.RabbitPublisher.
type EmailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type Service struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Hasher *helpers.Hasher
	Pub    EmailPublisher
	Logger *logrus.Logger

	ResetTokenTTL    time.Duration
	ResetPasswordURL string

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func NewService(repo repo.UserRepository, jwt *helpers.JWTManager, hasher *helpers.Hasher, pub EmailPublisher, logger *logrus.Logger, resetTTL time.Duration, resetURL string) *Service {
	return &Service{
		Repo:             repo,
		JWT:              jwt,
		Hasher:           hasher,
		Pub:              pub,
		Logger:           logger,
		ResetTokenTTL:    resetTTL,
		ResetPasswordURL: resetURL,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type RegisterInput struct {
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// Register creates a new account. Username and email are normalized before
// storage; duplicates surface as ErrConflict whether caught by the lookup or
// by the unique index underneath.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		s.Logger.WithError(err).Error("password hashing failed")
		return nil, err
	}
	u := &entity.User{
		Username:      entity.NormalizeIdentifier(in.Username),
		Email:         entity.NormalizeIdentifier(in.Email),
		FullName:      in.FullName,
		Password:      hash,
		AvatarURL:     in.AvatarURL,
		CoverImageURL: in.CoverImageURL,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return u, nil
}

// Authenticate validates identifier/password and returns the user without
// issuing tokens. Unknown user and bad password are indistinguishable to the
// caller.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*entity.User, error) {
	u, err := s.Repo.GetByIdentifier(ctx, identifier)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !s.Hasher.Verify(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates an access/refresh pair and persists the refresh
// token's hash on the user record, making it the single valid session token.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Username, u.Email, u.FullName)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return TokenPair{}, err
	}
	if err := s.Repo.SetRefreshToken(ctx, u.ID, helpers.HashToken(refresh)); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) Login(ctx context.Context, identifier, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, identifier, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Logout unsets the stored refresh token so it can never be replayed.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.Repo.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// Refresh rotates the token pair. The presented refresh token must match the
// stored hash, and the swap to the new token is conditional on the old one
// still being current, so concurrent refreshes with the same token resolve
// to exactly one winner.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*entity.User, TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return nil, TokenPair{}, ErrUserNotFound
	}
	oldHash := helpers.HashToken(refreshToken)
	if u.RefreshTokenHash == "" || u.RefreshTokenHash != oldHash {
		s.Logger.WithField("user_id", u.ID).Warn("refresh token reuse detected")
		return nil, TokenPair{}, ErrTokenStale
	}

	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Username, u.Email, u.FullName)
	if err != nil {
		return nil, TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	rotated, err := s.Repo.RotateRefreshToken(ctx, u.ID, oldHash, helpers.HashToken(refresh))
	if err != nil {
		return nil, TokenPair{}, err
	}
	if !rotated {
		// Lost the race against a concurrent rotation of the same token.
		s.Logger.WithField("user_id", u.ID).Warn("refresh token reuse detected")
		return nil, TokenPair{}, ErrTokenStale
	}
	return u, TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type UpdateProfileInput struct {
	FullName string
	Email    string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if in.FullName != "" {
		u.FullName = in.FullName
	}
	if in.Email != "" {
		u.Email = entity.NormalizeIdentifier(in.Email)
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return u, nil
}

// UpdateAvatar stores a new avatar reference. The reference is opaque; the
// media service owns the bytes.
func (s *Service) UpdateAvatar(ctx context.Context, userID, avatarURL string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	u.AvatarURL = avatarURL
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) UpdateCoverImage(ctx context.Context, userID, coverURL string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	u.CoverImageURL = coverURL
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteAccount removes the user record. Cleanup of owned media is the
// media service's responsibility.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.Repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
