package router

import (
	"github.com/anonto42/skillpath/friend-service/internal/handlers"
	"github.com/anonto42/skillpath/friend-service/internal/middleware"
	"github.com/anonto42/skillpath/friend-service/internal/services"
	"github.com/anonto42/skillpath/friend-service/internal/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Dependencies are the services and identity verifier the routes are wired to.
type Dependencies struct {
	Friendships services.FriendshipService
	Directory   services.DirectoryService
	Verifier    middleware.TokenVerifier
}

// SetupRoutes configures the validator, error handler and all application routes.
func SetupRoutes(e *echo.Echo, deps Dependencies, log *zap.Logger) {
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(log)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	auth := middleware.BearerAuth(deps.Verifier)

	friendshipHandler := handlers.NewFriendshipHandler(deps.Friendships)
	friendshipHandler.RegisterFriendshipRoutes(e.Group("/friends", auth))
	log.Debug("friendship routes configured")

	userHandler := handlers.NewUserHandler(deps.Directory)
	userHandler.RegisterUserRoutes(e.Group("/users"), auth)
	log.Debug("user routes configured")
}
