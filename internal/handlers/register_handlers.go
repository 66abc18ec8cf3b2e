package handlers

import (
	"log/slog"

	portssvc "github.com/SscSPs/command_ledger/internal/core/ports/services"
	"github.com/SscSPs/command_ledger/internal/middleware"
	"github.com/SscSPs/command_ledger/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	r.GET("/health", getHealth)

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	var auth gin.HandlerFunc
	if cfg.JWTSecret != "" {
		auth = middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer)
	} else {
		slog.Warn("JWT secret not configured; API requests run as anonymous user")
		auth = middleware.AnonymousUser()
	}
	v1 := r.Group("/api/v1", middleware.BodyLimit(middleware.DefaultMaxBodyBytes), auth)

	RegisterAccountRoutes(v1, services.Account)
	RegisterCommandRoutes(v1, services.Ledger)
}
