// Package pricing provides the lead type and pricing bounded context module.
// It owns the single price resolver that the leads module sells against.
package pricing

import (
	apphttp "treeleads/internal/http"
	"treeleads/internal/pricing/handler"
	"treeleads/internal/pricing/repository"
	"treeleads/internal/pricing/service"
	"treeleads/platform/logger"
	"treeleads/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pricing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the pricing module. cache may be nil when Redis is not configured.
func NewModule(pool *pgxpool.Pool, cache service.Cache, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cache, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pricing"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts pricing administration routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadTypes := ctx.Admin.Group("/lead-types")
	leadTypes.GET("", m.handler.ListLeadTypes)
	leadTypes.POST("", m.handler.CreateLeadType)
	leadTypes.PATCH("/:id", m.handler.UpdateLeadType)
	leadTypes.DELETE("/:id", m.handler.DeleteLeadType)

	pricing := ctx.Admin.Group("/pricing")
	pricing.GET("/resolve", m.handler.Resolve)
	pricing.GET("/defaults", m.handler.ListDefaultPrices)
	pricing.PUT("/defaults", m.handler.UpsertDefaultPrice)
	pricing.GET("/cities", m.handler.ListCityPrices)
	pricing.PUT("/cities", m.handler.UpsertCityPrice)
	pricing.DELETE("/cities/:id", m.handler.DeleteCityPrice)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
