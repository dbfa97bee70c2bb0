package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/videotube/videotube-api/internal/container"
	repo "github.com/videotube/videotube-api/internal/domain/repository"
	handlers "github.com/videotube/videotube-api/internal/interface/http"
	"github.com/videotube/videotube-api/internal/interface/middleware"
	"github.com/videotube/videotube-api/pkg/helpers"
)

// AuthModule wires the session lifecycle routes.
// Public: register, login, refresh-token, forgot-password, reset-password.
// Protected: logout, change-password.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Users   repo.UserRepository
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, users repo.UserRepository, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, Users: users, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)
	resetInitLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetConfirmLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/users/register", registerLimiter, m.Handler.Register)
	rg.POST("/users/login", loginLimiter, m.Handler.Login)
	rg.POST("/users/refresh-token", refreshLimiter, m.Handler.Refresh)
	rg.POST("/users/forgot-password", resetInitLimiter, m.Handler.ResetInit)
	rg.PATCH("/users/reset-password/:token", resetConfirmLimiter, m.Handler.ResetConfirm)
	rg.PATCH("/users/reset-password", resetConfirmLimiter, m.Handler.ResetConfirm)

	// Protected
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Users, m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/users/logout", m.Handler.Logout)
		auth.POST("/users/change-password", m.Handler.ChangePassword)
	}
}
