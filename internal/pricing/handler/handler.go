package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"treeleads/internal/pricing/service"
	"treeleads/internal/pricing/transport"
	"treeleads/platform/httpkit"
	"treeleads/platform/validator"
)

// Handler handles HTTP requests for lead types and prices.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid ID"
)

// New creates a new pricing handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListLeadTypes GET /api/v1/admin/lead-types?includeInactive=true
func (h *Handler) ListLeadTypes(c *gin.Context) {
	result, err := h.svc.ListLeadTypes(c.Request.Context(), c.Query("includeInactive") == "true")
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// CreateLeadType POST /api/v1/admin/lead-types
func (h *Handler) CreateLeadType(c *gin.Context) {
	var req transport.CreateLeadTypeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.CreateLeadType(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateLeadType PATCH /api/v1/admin/lead-types/:id
func (h *Handler) UpdateLeadType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateLeadTypeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.UpdateLeadType(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteLeadType DELETE /api/v1/admin/lead-types/:id
func (h *Handler) DeleteLeadType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteLeadType(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListDefaultPrices GET /api/v1/admin/pricing/defaults
func (h *Handler) ListDefaultPrices(c *gin.Context) {
	result, err := h.svc.ListDefaultPrices(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// UpsertDefaultPrice PUT /api/v1/admin/pricing/defaults
func (h *Handler) UpsertDefaultPrice(c *gin.Context) {
	var req transport.UpsertDefaultPriceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.UpsertDefaultPrice(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListCityPrices GET /api/v1/admin/pricing/cities
func (h *Handler) ListCityPrices(c *gin.Context) {
	var req transport.ListCityPricesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Details(err))
		return
	}
	result, err := h.svc.ListCityPrices(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// UpsertCityPrice PUT /api/v1/admin/pricing/cities
func (h *Handler) UpsertCityPrice(c *gin.Context) {
	var req transport.UpsertCityPriceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.UpsertCityPrice(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteCityPrice DELETE /api/v1/admin/pricing/cities/:id
func (h *Handler) DeleteCityPrice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteCityPrice(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Resolve GET /api/v1/admin/pricing/resolve?city=&state=&leadType=
func (h *Handler) Resolve(c *gin.Context) {
	var req transport.ResolvePriceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Details(err))
		return
	}
	result, err := h.svc.Resolve(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
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

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
