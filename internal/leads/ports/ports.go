// Package ports defines the interfaces that the leads domain requires from
// external systems. Adapters in internal/adapters implement them so leads
// never imports pricing, credits, or payments directly.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"treeleads/platform/db"
)

// PriceQuote is the resolved price for a lead.
type PriceQuote struct {
	LeadType    string
	AmountCents int64
	Source      string
	MaxShares   int
}

// PriceResolver resolves the sale price for a lead in an area.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, city, state, leadType string) (PriceQuote, error)
}

// CreditConsumer spends one prepaid credit inside the caller's transaction.
// It returns the remaining balance.
type CreditConsumer interface {
	ConsumeCredit(ctx context.Context, q db.DBTX, companyID, leadID uuid.UUID, actorID *uuid.UUID) (int, error)
}

// PaymentLinkParams describes the payment link to create for a lead.
type PaymentLinkParams struct {
	LeadID      uuid.UUID
	LeadType    string
	AmountCents int64
	MaxShares   int
	City        string
	State       string
	ServiceType string
}

// PaymentLink is a reusable hosted payment page.
type PaymentLink struct {
	ID  string
	URL string
}

// CheckoutParams describes a company-specific checkout for one lead.
type CheckoutParams struct {
	LeadID      uuid.UUID
	CompanyID   uuid.UUID
	LeadType    string
	AmountCents int64
	ServiceType string
	City        string
	State       string
}

// CheckoutSession is a hosted checkout the company is redirected to.
type CheckoutSession struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// PaymentGateway creates and disables payment pages.
type PaymentGateway interface {
	CreatePaymentLink(ctx context.Context, params PaymentLinkParams) (PaymentLink, error)
	DeactivatePaymentLink(ctx context.Context, linkID string) error
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error)
	// PurchaseURL returns the payment link URL tagged with the buying company.
	PurchaseURL(linkURL string, companyID uuid.UUID) string
}
