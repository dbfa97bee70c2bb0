package application

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videotube/videotube-api/internal/domain/entity"
	repo "github.com/videotube/videotube-api/internal/domain/repository"
	"github.com/videotube/videotube-api/pkg/helpers"
	"github.com/videotube/videotube-api/pkg/mailer"
)

// fakeUserRepo is an in-memory UserRepository with the same atomicity
// guarantees as the postgres implementation: rotation and reset consumption
// are conditional compare-and-swap operations under one lock.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	f.nextID++
	u.ID = "u-" + strconv.Itoa(f.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) get(id string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	norm := entity.NormalizeIdentifier(email)
	for id, u := range f.users {
		if u.Email == norm {
			return f.get(id)
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUserRepo) GetByIdentifier(_ context.Context, identifier string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	norm := entity.NormalizeIdentifier(identifier)
	for id, u := range f.users {
		if u.Username == norm || u.Email == norm {
			return f.get(id)
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	for id, other := range f.users {
		if id != u.ID && (other.Username == u.Username || other.Email == u.Email) {
			return repo.ErrDuplicate
		}
	}
	stored.Username = u.Username
	stored.Email = u.Email
	stored.FullName = u.FullName
	stored.AvatarURL = u.AvatarURL
	stored.CoverImageURL = u.CoverImageURL
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) SetRefreshToken(_ context.Context, id, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.RefreshTokenHash = tokenHash
	return nil
}

func (f *fakeUserRepo) RotateRefreshToken(_ context.Context, id, oldHash, newHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.RefreshTokenHash != oldHash {
		return false, nil
	}
	u.RefreshTokenHash = newHash
	return true, nil
}

func (f *fakeUserRepo) ClearRefreshToken(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.RefreshTokenHash = ""
	return nil
}

func (f *fakeUserRepo) SetResetToken(_ context.Context, id, tokenHash string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.ResetTokenHash = tokenHash
	u.ResetTokenExpiry = expiry
	return nil
}

func (f *fakeUserRepo) ClearResetToken(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.ResetTokenHash = ""
	u.ResetTokenExpiry = time.Time{}
	return nil
}

func (f *fakeUserRepo) ConsumeResetToken(_ context.Context, tokenHash, passwordHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ResetTokenHash == tokenHash && u.ResetTokenHash != "" && u.ResetTokenExpiry.After(time.Now()) {
			u.Password = passwordHash
			u.ResetTokenHash = ""
			u.ResetTokenExpiry = time.Time{}
			u.RefreshTokenHash = ""
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

var _ repo.UserRepository = (*fakeUserRepo)(nil)

// fakePublisher records enqueued email jobs.
type fakePublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	fail bool
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return assert.AnError
	}
	if job, ok := body.(mailer.EmailJob); ok {
		p.jobs = append(p.jobs, job)
	}
	return nil
}

func (p *fakePublisher) last() mailer.EmailJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobs[len(p.jobs)-1]
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *fakePublisher) {
	t.Helper()
	repo := newFakeUserRepo()
	pub := &fakePublisher{}
	logger := logrus.New()
	jwt := helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 24*time.Hour)
	svc := NewService(repo, jwt, helpers.NewHasher(4), pub, logger, 15*time.Minute, "http://localhost:8080/reset-password")
	return svc, repo, pub
}

func registerAlice(t *testing.T, svc *Service) *entity.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Anderson",
		Password: "Secret123!",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterHashesPasswordAndNormalizes(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Username: "  Alice ",
		Email:    " ALICE@Example.Com ",
		FullName: "Alice Anderson",
		Password: "Secret123!",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123!", stored.Password)
	assert.True(t, svc.Hasher.Verify(stored.Password, "Secret123!"))
}

func TestRegisterSamePasswordDifferentHashes(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	u1, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", FullName: "A", Password: "Secret123!"})
	require.NoError(t, err)
	u2, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", FullName: "B", Password: "Secret123!"})
	require.NoError(t, err)

	s1, _ := repo.GetByID(ctx, u1.ID)
	s2, _ := repo.GetByID(ctx, u2.ID)
	assert.NotEqual(t, s1.Password, s2.Password)
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	registerAlice(t, svc)

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", FullName: "A", Password: "Secret123!"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Register(ctx, RegisterInput{Username: "other", Email: "alice@example.com", FullName: "A", Password: "Secret123!"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	registerAlice(t, svc)

	u, pair, err := svc.Login(ctx, "alice@example.com", "Secret123!")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	_, _, err = svc.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)
}

func TestLoginFailureIsUniform(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	registerAlice(t, svc)

	_, _, errWrongPass := svc.Login(ctx, "alice@example.com", "wrongpass")
	_, _, errNoUser := svc.Login(ctx, "nobody@example.com", "Secret123!")

	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, errNoUser, ErrInvalidCredentials)
	// Same error value, so the handler cannot leak which case occurred.
	assert.Equal(t, errWrongPass, errNoUser)
}

func TestLoginPersistsRefreshTokenHash(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	u := registerAlice(t, svc)

	_, pair, err := svc.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, helpers.HashToken(pair.RefreshToken), stored.RefreshTokenHash)
	assert.NotEqual(t, pair.RefreshToken, stored.RefreshTokenHash)
}

func TestRefreshRotatesExactlyOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	registerAlice(t, svc)

	_, pair, err := svc.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)

	_, newPair, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, newPair.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// Replaying the rotated-out token must fail.
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenStale)

	// The new token still works.
	_, _, err = svc.Refresh(ctx, newPair.RefreshToken)
	require.NoError(t, err)
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	registerAlice(t, svc)

	_, pair, err := svc.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Refresh(ctx, pair.RefreshToken)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrTokenStale)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestRefreshRejectsGarbageAndForeignTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, helpers.ErrTokenInvalid)

	// Valid signature but the account is gone.
	tok, _, err := svc.JWT.GenerateRefreshToken("ghost")
	require.NoError(t, err)
	_, _, err = svc.Refresh(ctx, tok)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	u := registerAlice(t, svc)

	_, pair, err := svc.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID))

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshTokenHash)

	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenStale)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	u := registerAlice(t, svc)

	err := svc.ChangePassword(ctx, u.ID, "Secret123!", "NewSecret456!", "different")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	err = svc.ChangePassword(ctx, u.ID, "wrongpass", "NewSecret456!", "NewSecret456!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "Secret123!", "NewSecret456!", "NewSecret456!"))

	_, _, err = svc.Login(ctx, "alice", "Secret123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "alice", "NewSecret456!")
	require.NoError(t, err)
}
