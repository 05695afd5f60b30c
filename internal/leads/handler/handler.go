package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"treeleads/internal/leads/service"
	"treeleads/internal/leads/transport"
	"treeleads/platform/httpkit"
	"treeleads/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid lead ID"
)

// Handler serves the admin lead endpoints.
type Handler struct {
	svc        *service.Service
	val        *validator.Validator
	pendingTTL time.Duration
}

// New creates the admin leads handler.
func New(svc *service.Service, val *validator.Validator, pendingTTL time.Duration) *Handler {
	return &Handler{svc: svc, val: val, pendingTTL: pendingTTL}
}

// List GET /api/v1/admin/leads
func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Marketplace GET /api/v1/admin/marketplace
func (h *Handler) Marketplace(c *gin.Context) {
	var req transport.ListAvailableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	result, err := h.svc.ListAvailable(c.Request.Context(), nil, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get GET /api/v1/admin/leads/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateDetails PATCH /api/v1/admin/leads/:id
func (h *Handler) UpdateDetails(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateDetailsRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.UpdateDetails(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateStatus PUT /api/v1/admin/leads/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, actor, ok := h.target(c)
	if !ok {
		return
	}
	var req transport.UpdateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.UpdateStatus(c.Request.Context(), id, actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListForSale POST /api/v1/admin/leads/:id/sale
func (h *Handler) ListForSale(c *gin.Context) {
	id, actor, ok := h.target(c)
	if !ok {
		return
	}
	var req transport.ListForSaleRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.ListForSale(c.Request.Context(), id, actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ReturnToAvailable POST /api/v1/admin/leads/:id/return
func (h *Handler) ReturnToAvailable(c *gin.Context) {
	id, actor, ok := h.target(c)
	if !ok {
		return
	}
	var req transport.VersionRequest
	if !h.bindOptional(c, &req) {
		return
	}
	result, err := h.svc.ReturnToAvailable(c.Request.Context(), id, actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Archive POST /api/v1/admin/leads/:id/archive
func (h *Handler) Archive(c *gin.Context) {
	id, actor, ok := h.target(c)
	if !ok {
		return
	}
	var req transport.VersionRequest
	if !h.bindOptional(c, &req) {
		return
	}
	result, err := h.svc.Archive(c.Request.Context(), id, actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Unarchive POST /api/v1/admin/leads/:id/unarchive
func (h *Handler) Unarchive(c *gin.Context) {
	id, actor, ok := h.target(c)
	if !ok {
		return
	}
	var req transport.VersionRequest
	if !h.bindOptional(c, &req) {
		return
	}
	result, err := h.svc.Unarchive(c.Request.Context(), id, actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Assign POST /api/v1/admin/leads/:id/assign
func (h *Handler) Assign(c *gin.Context) {
	id, actor, ok := h.target(c)
	if !ok {
		return
	}
	var req transport.AssignRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.AssignWithCredit(c.Request.Context(), id, actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// History GET /api/v1/admin/leads/:id/history
func (h *Handler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.History(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// Purchases GET /api/v1/admin/leads/:id/purchases
func (h *Handler) Purchases(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.Purchases(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// RecordPurchase POST /api/v1/admin/leads/:id/purchases
func (h *Handler) RecordPurchase(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.RecordPurchaseRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.RecordPurchase(c.Request.Context(), service.PurchaseParams{
		LeadID:      id,
		CompanyID:   req.CompanyID,
		AmountCents: req.AmountCents,
		Notes:       req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// EmailBlast POST /api/v1/admin/leads/:id/email-blast
func (h *Handler) EmailBlast(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.SendEmailBlast(c.Request.Context(), id)) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, gin.H{"message": "email blast queued"})
}

// ReturnStale POST /api/v1/admin/leads/return-stale
func (h *Handler) ReturnStale(c *gin.Context) {
	n, err := h.svc.ReturnStaleSales(c.Request.Context(), h.pendingTTL)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ReturnStaleResponse{Returned: n})
}

// Delete DELETE /api/v1/admin/leads/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) target(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, ok := parseID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.Nil, uuid.Nil, false
	}
	return id, identity.UserID(), true
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Details(err))
		return false
	}
	return true
}

// bindOptional accepts an empty body.
func (h *Handler) bindOptional(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.bind(c, req)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
