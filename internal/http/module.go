// Package http provides HTTP server infrastructure including the Module interface
// that all domain modules must implement for route registration.
package http

import (
	"treeleads/platform/config"
	"treeleads/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// V1 is the /api/v1 route group.
	V1 *gin.RouterGroup
	// Public is /api/v1/public, reachable without a token.
	Public *gin.RouterGroup
	// Admin is /api/v1/admin, requiring a token with the admin role.
	Admin *gin.RouterGroup
	// Company is /api/v1/company, requiring a token with the company role.
	Company *gin.RouterGroup
	// Webhooks is /api/v1/webhooks for signed provider callbacks.
	Webhooks *gin.RouterGroup
	// Config is the JWT configuration for auth middleware (scoped access).
	Config config.JWTConfig
	// PublicRateLimiter throttles anonymous write endpoints per IP.
	PublicRateLimiter *httpkit.IPRateLimiter
}
