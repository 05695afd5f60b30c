// Package credits provides the prepaid lead credit bounded context module.
package credits

import (
	"treeleads/internal/credits/handler"
	"treeleads/internal/credits/repository"
	"treeleads/internal/credits/service"
	"treeleads/internal/events"
	apphttp "treeleads/internal/http"
	"treeleads/platform/logger"
	"treeleads/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the credits bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the credits module.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "credits"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts credit routes for admins and companies.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	admin := ctx.Admin.Group("/companies/:id/credits")
	admin.GET("", m.handler.AdminBalance)
	admin.POST("", m.handler.Grant)
	admin.GET("/ledger", m.handler.AdminLedger)

	ctx.Company.GET("/credits", m.handler.MyBalance)
	ctx.Company.GET("/credits/ledger", m.handler.MyLedger)
}

var _ apphttp.Module = (*Module)(nil)
