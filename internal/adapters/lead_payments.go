package adapters

import (
	"context"

	"treeleads/internal/leads/ports"
	paymentssvc "treeleads/internal/payments/service"

	"github.com/google/uuid"
)

// LeadPaymentGateway adapts the Stripe payments service for the leads domain.
type LeadPaymentGateway struct {
	payments *paymentssvc.Service
}

// NewLeadPaymentGateway creates a new payment gateway adapter.
func NewLeadPaymentGateway(payments *paymentssvc.Service) *LeadPaymentGateway {
	return &LeadPaymentGateway{payments: payments}
}

func (a *LeadPaymentGateway) CreatePaymentLink(ctx context.Context, params ports.PaymentLinkParams) (ports.PaymentLink, error) {
	link, err := a.payments.CreatePaymentLink(ctx, paymentssvc.LinkRequest{
		LeadID:      params.LeadID,
		LeadType:    params.LeadType,
		AmountCents: params.AmountCents,
		MaxShares:   params.MaxShares,
		City:        params.City,
		State:       params.State,
		ServiceType: params.ServiceType,
	})
	if err != nil {
		return ports.PaymentLink{}, err
	}
	return ports.PaymentLink{ID: link.ID, URL: link.URL}, nil
}

func (a *LeadPaymentGateway) DeactivatePaymentLink(ctx context.Context, linkID string) error {
	return a.payments.DeactivatePaymentLink(ctx, linkID)
}

func (a *LeadPaymentGateway) CreateCheckoutSession(ctx context.Context, params ports.CheckoutParams) (ports.CheckoutSession, error) {
	checkout, err := a.payments.CreateCheckout(ctx, paymentssvc.CheckoutRequest{
		LeadID:      params.LeadID,
		CompanyID:   params.CompanyID,
		LeadType:    params.LeadType,
		AmountCents: params.AmountCents,
		ServiceType: params.ServiceType,
		City:        params.City,
		State:       params.State,
	})
	if err != nil {
		return ports.CheckoutSession{}, err
	}
	return ports.CheckoutSession{ID: checkout.ID, URL: checkout.URL, ExpiresAt: checkout.ExpiresAt}, nil
}

func (a *LeadPaymentGateway) PurchaseURL(linkURL string, companyID uuid.UUID) string {
	return a.payments.PurchaseURL(linkURL, companyID)
}

var _ ports.PaymentGateway = (*LeadPaymentGateway)(nil)
