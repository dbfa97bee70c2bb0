package router

import (
	userapp "github.com/videotube/videotube-api/internal/application"
	"github.com/videotube/videotube-api/internal/container"
	repouser "github.com/videotube/videotube-api/internal/domain/repository"
	pginfra "github.com/videotube/videotube-api/internal/infrastructure/postgres"
	handlers "github.com/videotube/videotube-api/internal/interface/http"
	"github.com/videotube/videotube-api/internal/router/modules"
)

type ModuleDeps struct {
	Repo        repouser.UserRepository
	Service     *userapp.Service
	AuthHandler *handlers.AuthHandler
	UserHandler *handlers.UserHandler
}

func buildDeps() ModuleDeps {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	// Avoid handing the service a typed-nil publisher when rabbit is down.
	var pub userapp.EmailPublisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}

	service := userapp.NewService(
		repo,
		container.GetJWT(),
		container.GetHasher(),
		pub,
		container.GetLogger(),
		cfg.ResetTokenTTL,
		cfg.ResetPasswordURL,
	)

	authHandler := handlers.NewAuthHandler(service, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(service, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)

	return ModuleDeps{
		Repo:        repo,
		Service:     service,
		AuthHandler: authHandler,
		UserHandler: userHandler,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	r.Add(modules.NewAuthModule(deps.AuthHandler, deps.Repo, container.GetJWT()))
	r.Add(modules.NewUserModule(deps.UserHandler, deps.Repo, container.GetJWT()))
}
