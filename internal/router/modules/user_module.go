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

// UserModule wires the profile routes; all of them require authentication.
type UserModule struct {
	Handler *handlers.UserHandler
	Users   repo.UserRepository
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, users repo.UserRepository, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, Users: users, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Users, m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/users/current", m.Handler.CurrentUser)
		auth.PATCH("/users/update-account", m.Handler.UpdateAccount)
		auth.PATCH("/users/update-avatar", m.Handler.UpdateAvatar)
		auth.PATCH("/users/update-coverimage", m.Handler.UpdateCoverImage)
		auth.DELETE("/users/delete-account", m.Handler.DeleteAccount)
	}
}
