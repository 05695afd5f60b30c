package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LeadType is a sellable kind of lead such as shared or exclusive.
type LeadType struct {
	ID               uuid.UUID
	Name             string
	Description      *string
	DefaultMaxShares int
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DefaultPrice is the global price of a lead type.
type DefaultPrice struct {
	LeadTypeID   uuid.UUID
	LeadTypeName string
	PriceCents   int64
	UpdatedAt    time.Time
}

// CityPrice overrides the default price of a lead type in one city.
type CityPrice struct {
	ID           uuid.UUID
	City         string
	State        string
	LeadTypeID   uuid.UUID
	LeadTypeName string
	PriceCents   int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PriceLookup is everything the resolver needs for one (city, state, lead type).
type PriceLookup struct {
	LeadTypeFound    bool
	LeadTypeActive   bool
	DefaultMaxShares int
	CityPriceCents   *int64
	DefaultCents     *int64
}

// CreateLeadTypeParams contains parameters for creating a lead type.
type CreateLeadTypeParams struct {
	Name             string
	Description      *string
	DefaultMaxShares int
}

// UpdateLeadTypeParams contains parameters for updating a lead type. Nil fields are left unchanged.
type UpdateLeadTypeParams struct {
	ID               uuid.UUID
	Description      *string
	DefaultMaxShares *int
	IsActive         *bool
}

// UpsertCityPriceParams identifies a city price by (city, state, lead type).
type UpsertCityPriceParams struct {
	City       string
	State      string
	LeadTypeID uuid.UUID
	PriceCents int64
}

// CityPriceFilter narrows ListCityPrices. Empty fields match everything.
type CityPriceFilter struct {
	City       string
	State      string
	LeadTypeID *uuid.UUID
}

// PriceLookupReader is the read path used by the resolver.
type PriceLookupReader interface {
	LookupPrice(ctx context.Context, city, state, leadType string) (PriceLookup, error)
}

// Repository is the full pricing persistence contract.
type Repository interface {
	PriceLookupReader

	ListLeadTypes(ctx context.Context, includeInactive bool) ([]LeadType, error)
	GetLeadType(ctx context.Context, id uuid.UUID) (LeadType, error)
	CreateLeadType(ctx context.Context, params CreateLeadTypeParams) (LeadType, error)
	UpdateLeadType(ctx context.Context, params UpdateLeadTypeParams) (LeadType, error)
	DeleteLeadType(ctx context.Context, id uuid.UUID) error

	ListDefaultPrices(ctx context.Context) ([]DefaultPrice, error)
	UpsertDefaultPrice(ctx context.Context, leadTypeID uuid.UUID, priceCents int64) (DefaultPrice, error)

	ListCityPrices(ctx context.Context, filter CityPriceFilter) ([]CityPrice, error)
	UpsertCityPrice(ctx context.Context, params UpsertCityPriceParams) (CityPrice, error)
	DeleteCityPrice(ctx context.Context, id uuid.UUID) error
}
