package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"treeleads/internal/credits/service"
	"treeleads/internal/credits/transport"
	"treeleads/platform/httpkit"
	"treeleads/platform/validator"
)

// Handler handles HTTP requests for lead credits.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a credits handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// AdminBalance GET /api/v1/admin/companies/:id/credits
func (h *Handler) AdminBalance(c *gin.Context) {
	companyID, ok := companyParam(c)
	if !ok {
		return
	}
	result, err := h.svc.Balance(c.Request.Context(), companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Grant POST /api/v1/admin/companies/:id/credits
func (h *Handler) Grant(c *gin.Context) {
	companyID, ok := companyParam(c)
	if !ok {
		return
	}
	var req transport.GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.Details(err))
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Grant(c.Request.Context(), companyID, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AdminLedger GET /api/v1/admin/companies/:id/credits/ledger
func (h *Handler) AdminLedger(c *gin.Context) {
	companyID, ok := companyParam(c)
	if !ok {
		return
	}
	h.ledger(c, companyID)
}

// MyBalance GET /api/v1/company/credits
func (h *Handler) MyBalance(c *gin.Context) {
	companyID, ok := httpkit.MustGetCompanyID(c)
	if !ok {
		return
	}
	result, err := h.svc.Balance(c.Request.Context(), companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MyLedger GET /api/v1/company/credits/ledger
func (h *Handler) MyLedger(c *gin.Context) {
	companyID, ok := httpkit.MustGetCompanyID(c)
	if !ok {
		return
	}
	h.ledger(c, companyID)
}

func (h *Handler) ledger(c *gin.Context, companyID uuid.UUID) {
	var req transport.LedgerRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	result, err := h.svc.Ledger(c.Request.Context(), companyID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func companyParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid company ID", nil)
		return uuid.Nil, false
	}
	return id, true
}
