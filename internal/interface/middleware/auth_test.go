package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videotube/videotube-api/internal/domain/entity"
	repo "github.com/videotube/videotube-api/internal/domain/repository"
	"github.com/videotube/videotube-api/pkg/helpers"
)

// stubUserRepo only answers GetByID; the middleware touches nothing else.
type stubUserRepo struct {
	repo.UserRepository
	user *entity.User
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, repo.ErrNotFound
}

func newAuthRouter(users repo.UserRepository, jwt *helpers.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Auth(users, jwt), func(c *gin.Context) {
		u := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "username": u.Username})
	})
	return r
}

func TestAuthMissingToken(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Hour, time.Hour)
	r := newAuthRouter(&stubUserRepo{}, jwt)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing access token")
}

func TestAuthBearerHeader(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Hour, time.Hour)
	user := &entity.User{ID: "u-1", Username: "alice", Email: "alice@example.com", FullName: "Alice A"}
	r := newAuthRouter(&stubUserRepo{user: user}, jwt)

	token, _, err := jwt.GenerateAccessToken(user.ID, user.Username, user.Email, user.FullName)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestAuthCookie(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Hour, time.Hour)
	user := &entity.User{ID: "u-1", Username: "alice"}
	r := newAuthRouter(&stubUserRepo{user: user}, jwt)

	token, _, err := jwt.GenerateAccessToken(user.ID, user.Username, user.Email, user.FullName)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: token})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthExpiredToken(t *testing.T) {
	expired := helpers.NewJWTManager("a", "r", -time.Minute, time.Hour)
	r := newAuthRouter(&stubUserRepo{}, expired)

	token, _, err := expired.GenerateAccessToken("u-1", "alice", "", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "access token expired")
}

func TestAuthInvalidToken(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Hour, time.Hour)
	r := newAuthRouter(&stubUserRepo{}, jwt)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid access token")
}

func TestAuthDeletedUser(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Hour, time.Hour)
	// Token verifies but the account no longer exists.
	r := newAuthRouter(&stubUserRepo{}, jwt)

	token, _, err := jwt.GenerateAccessToken("u-gone", "ghost", "", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "user not found")
}
