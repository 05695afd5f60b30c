package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"treeleads/internal/payments/service"
	"treeleads/platform/httpkit"
	"treeleads/platform/logger"
)

const maxWebhookBodyBytes = 65536

// Handler receives Stripe callbacks.
type Handler struct {
	svc *service.Service
	log *logger.Logger
}

// New creates a payments handler.
func New(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// StripeWebhook POST /api/v1/webhooks/stripe
// A non-2xx response makes Stripe redeliver the event.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, "payload too large", nil)
		return
	}

	err = h.svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, service.ErrInvalidSignature) {
		h.log.Warn("stripe webhook signature rejected", "error", err)
		httpkit.Error(c, http.StatusBadRequest, "invalid signature", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"received": true})
}
