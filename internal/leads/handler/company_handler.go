package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"treeleads/internal/leads/service"
	"treeleads/internal/leads/transport"
	"treeleads/platform/httpkit"
)

// CompanyHandler serves the marketplace to tree-service companies.
type CompanyHandler struct {
	svc *service.Service
}

// NewCompanyHandler creates the company leads handler.
func NewCompanyHandler(svc *service.Service) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// Marketplace GET /api/v1/company/marketplace
func (h *CompanyHandler) Marketplace(c *gin.Context) {
	companyID, ok := httpkit.MustGetCompanyID(c)
	if !ok {
		return
	}
	var req transport.ListAvailableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	result, err := h.svc.ListAvailable(c.Request.Context(), &companyID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MyLeads GET /api/v1/company/leads
func (h *CompanyHandler) MyLeads(c *gin.Context) {
	companyID, ok := httpkit.MustGetCompanyID(c)
	if !ok {
		return
	}
	var req transport.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	result, err := h.svc.ListForCompany(c.Request.Context(), companyID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get GET /api/v1/company/leads/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	companyID, ok := httpkit.MustGetCompanyID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.GetForCompany(c.Request.Context(), id, companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Checkout POST /api/v1/company/leads/:id/checkout
func (h *CompanyHandler) Checkout(c *gin.Context) {
	companyID, ok := httpkit.MustGetCompanyID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.CreateCheckout(c.Request.Context(), id, companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
