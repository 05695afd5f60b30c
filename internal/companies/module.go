// Package companies provides the tree service company bounded context module.
package companies

import (
	"treeleads/internal/adapters/storage"
	"treeleads/internal/companies/handler"
	"treeleads/internal/companies/repository"
	"treeleads/internal/companies/service"
	apphttp "treeleads/internal/http"
	"treeleads/platform/logger"
	"treeleads/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the companies bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the companies module.
func NewModule(pool *pgxpool.Pool, storageSvc storage.StorageService, logoBucket, phoneRegion string, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), storageSvc, logoBucket, phoneRegion, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "companies"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts company routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	admin := ctx.Admin.Group("/companies")
	admin.GET("", m.handler.List)
	admin.POST("", m.handler.Create)
	admin.GET("/:id", m.handler.Get)
	admin.PATCH("/:id", m.handler.Update)
	admin.DELETE("/:id", m.handler.Delete)
	admin.POST("/:id/logo/presign", m.handler.PresignLogo)
	admin.PUT("/:id/logo", m.handler.SetLogo)

	ctx.Company.GET("/profile", m.handler.Profile)
}

var _ apphttp.Module = (*Module)(nil)
