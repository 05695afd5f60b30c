// Package leads provides the lead marketplace bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"treeleads/internal/adapters/storage"
	"treeleads/internal/events"
	apphttp "treeleads/internal/http"
	"treeleads/internal/leads/handler"
	"treeleads/internal/leads/ports"
	"treeleads/internal/leads/repository"
	"treeleads/internal/leads/service"
	"treeleads/platform/config"
	"treeleads/platform/logger"
	"treeleads/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler        *handler.Handler
	publicHandler  *handler.PublicHandler
	companyHandler *handler.CompanyHandler
	service        *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
// Pricing, credits and payments are attached afterwards with the Set* methods.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, storageSvc storage.StorageService, imageBucket string, cfg config.LeadsConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), eventBus, storageSvc, imageBucket, cfg.GetDefaultPhoneRegion(), log)
	return &Module{
		handler:        handler.New(svc, val, cfg.GetPendingSaleTTL()),
		publicHandler:  handler.NewPublicHandler(svc, val),
		companyHandler: handler.NewCompanyHandler(svc),
		service:        svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetPriceResolver attaches pricing.
func (m *Module) SetPriceResolver(r ports.PriceResolver) { m.service.SetPriceResolver(r) }

// SetCreditConsumer attaches the credit ledger.
func (m *Module) SetCreditConsumer(c ports.CreditConsumer) { m.service.SetCreditConsumer(c) }

// SetPaymentGateway attaches the payment provider.
func (m *Module) SetPaymentGateway(g ports.PaymentGateway) { m.service.SetPaymentGateway(g) }

// RegisterRoutes mounts public, admin and company lead routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.Public.Group("/leads")
	if ctx.PublicRateLimiter != nil {
		public.Use(ctx.PublicRateLimiter.RateLimit())
	}
	public.POST("", m.publicHandler.Submit)
	public.POST("/images/presign", m.publicHandler.PresignImage)

	admin := ctx.Admin.Group("/leads")
	admin.GET("", m.handler.List)
	admin.POST("/return-stale", m.handler.ReturnStale)
	admin.GET("/:id", m.handler.Get)
	admin.PATCH("/:id", m.handler.UpdateDetails)
	admin.DELETE("/:id", m.handler.Delete)
	admin.PUT("/:id/status", m.handler.UpdateStatus)
	admin.POST("/:id/sale", m.handler.ListForSale)
	admin.POST("/:id/return", m.handler.ReturnToAvailable)
	admin.POST("/:id/archive", m.handler.Archive)
	admin.POST("/:id/unarchive", m.handler.Unarchive)
	admin.POST("/:id/assign", m.handler.Assign)
	admin.GET("/:id/history", m.handler.History)
	admin.GET("/:id/purchases", m.handler.Purchases)
	admin.POST("/:id/purchases", m.handler.RecordPurchase)
	admin.POST("/:id/email-blast", m.handler.EmailBlast)
	ctx.Admin.GET("/marketplace", m.handler.Marketplace)

	ctx.Company.GET("/marketplace", m.companyHandler.Marketplace)
	ctx.Company.GET("/leads", m.companyHandler.MyLeads)
	ctx.Company.GET("/leads/:id", m.companyHandler.Get)
	ctx.Company.POST("/leads/:id/checkout", m.companyHandler.Checkout)
}

var _ apphttp.Module = (*Module)(nil)
