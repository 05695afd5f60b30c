package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateLeadTypeRequest contains data for creating a lead type.
type CreateLeadTypeRequest struct {
	Name             string  `json:"name" validate:"notblank,max=50"`
	Description      *string `json:"description,omitempty" validate:"omitempty,max=500"`
	DefaultMaxShares *int    `json:"defaultMaxShares,omitempty" validate:"omitempty,min=1,max=20"`
}

// UpdateLeadTypeRequest contains data for updating a lead type.
type UpdateLeadTypeRequest struct {
	Description      *string `json:"description,omitempty" validate:"omitempty,max=500"`
	DefaultMaxShares *int    `json:"defaultMaxShares,omitempty" validate:"omitempty,min=1,max=20"`
	IsActive         *bool   `json:"isActive,omitempty"`
}

// LeadTypeResponse represents a lead type in API responses.
type LeadTypeResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description,omitempty"`
	DefaultMaxShares int       `json:"defaultMaxShares"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// UpsertDefaultPriceRequest sets a lead type's global price.
type UpsertDefaultPriceRequest struct {
	LeadTypeID uuid.UUID `json:"leadTypeId" validate:"required"`
	PriceCents int64     `json:"priceCents" validate:"required,min=1"`
}

// DefaultPriceResponse represents a global price.
type DefaultPriceResponse struct {
	LeadTypeID uuid.UUID `json:"leadTypeId"`
	LeadType   string    `json:"leadType"`
	PriceCents int64     `json:"priceCents"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UpsertCityPriceRequest sets a city override.
type UpsertCityPriceRequest struct {
	City       string    `json:"city" validate:"notblank,max=100"`
	State      string    `json:"state" validate:"notblank,max=50"`
	LeadTypeID uuid.UUID `json:"leadTypeId" validate:"required"`
	PriceCents int64     `json:"priceCents" validate:"required,min=1"`
}

// ListCityPricesRequest filters city prices.
type ListCityPricesRequest struct {
	City       string `form:"city"`
	State      string `form:"state"`
	LeadTypeID string `form:"leadTypeId" validate:"omitempty,uuid"`
}

// CityPriceResponse represents a city override.
type CityPriceResponse struct {
	ID         uuid.UUID `json:"id"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	LeadTypeID uuid.UUID `json:"leadTypeId"`
	LeadType   string    `json:"leadType"`
	PriceCents int64     `json:"priceCents"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ResolvePriceRequest asks what a lead would cost.
type ResolvePriceRequest struct {
	City     string `form:"city" validate:"notblank"`
	State    string `form:"state" validate:"notblank"`
	LeadType string `form:"leadType" validate:"notblank"`
}

// ResolvedPriceResponse is the outcome of price resolution.
type ResolvedPriceResponse struct {
	LeadType    string `json:"leadType"`
	AmountCents int64  `json:"amountCents"`
	Source      string `json:"source"`
	MaxShares   int    `json:"maxShares"`
}
