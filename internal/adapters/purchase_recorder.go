package adapters

import (
	"context"

	leadssvc "treeleads/internal/leads/service"
	paymentssvc "treeleads/internal/payments/service"
	"treeleads/platform/logger"
)

// LeadPurchaseRecorder stores Stripe purchases through the leads service.
type LeadPurchaseRecorder struct {
	leads *leadssvc.Service
	log   *logger.Logger
}

// NewLeadPurchaseRecorder creates a new purchase recorder adapter.
func NewLeadPurchaseRecorder(leads *leadssvc.Service, log *logger.Logger) *LeadPurchaseRecorder {
	return &LeadPurchaseRecorder{leads: leads, log: log}
}

// RecordPurchase records a completed checkout. Replayed sessions are absorbed by the leads service.
func (a *LeadPurchaseRecorder) RecordPurchase(ctx context.Context, purchase paymentssvc.CompletedPurchase) error {
	var sessionID *string
	if purchase.SessionID != "" {
		sessionID = &purchase.SessionID
	}
	res, err := a.leads.RecordPurchase(ctx, leadssvc.PurchaseParams{
		LeadID:        purchase.LeadID,
		PaymentLinkID: purchase.PaymentLinkID,
		CompanyID:     purchase.CompanyID,
		AmountCents:   purchase.AmountCents,
		SessionID:     sessionID,
	})
	if err != nil {
		return err
	}
	a.log.Info("stripe purchase recorded", "leadId", res.LeadID, "companyId", res.BusinessID, "status", res.Status)
	return nil
}

var _ paymentssvc.PurchaseRecorder = (*LeadPurchaseRecorder)(nil)
