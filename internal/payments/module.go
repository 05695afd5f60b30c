// Package payments provides the Stripe payments bounded context module.
package payments

import (
	apphttp "treeleads/internal/http"
	"treeleads/internal/payments/handler"
	"treeleads/internal/payments/service"
	"treeleads/platform/config"
	"treeleads/platform/logger"
)

// Module is the payments bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the payments module. Without a secret key the module runs disabled:
// link creation is refused and the webhook still verifies signatures.
func NewModule(cfg config.StripeConfig, log *logger.Logger) *Module {
	var api service.StripeAPI
	if cfg.IsStripeEnabled() {
		api = service.NewStripeAPI(cfg.GetStripeSecretKey())
	} else {
		log.Warn("stripe is not configured, lead sales are disabled")
	}
	svc := service.New(api, cfg, log)
	return &Module{
		handler: handler.New(svc, log),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "payments"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetPurchaseRecorder attaches the component that stores completed purchases.
func (m *Module) SetPurchaseRecorder(r service.PurchaseRecorder) { m.service.SetPurchaseRecorder(r) }

// RegisterRoutes mounts the Stripe webhook.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhooks.POST("/stripe", m.handler.StripeWebhook)
}

var _ apphttp.Module = (*Module)(nil)
