package adapters

import (
	"context"

	creditssvc "treeleads/internal/credits/service"
	"treeleads/internal/leads/ports"
	"treeleads/platform/db"

	"github.com/google/uuid"
)

// LeadCreditConsumer lets the leads assignment transaction spend a company credit.
type LeadCreditConsumer struct {
	credits *creditssvc.Service
}

// NewLeadCreditConsumer creates a new credit consumer adapter.
func NewLeadCreditConsumer(credits *creditssvc.Service) *LeadCreditConsumer {
	return &LeadCreditConsumer{credits: credits}
}

// ConsumeCredit spends one credit on q and returns the remaining balance.
func (a *LeadCreditConsumer) ConsumeCredit(ctx context.Context, q db.DBTX, companyID, leadID uuid.UUID, actorID *uuid.UUID) (int, error) {
	return a.credits.Consume(ctx, q, companyID, leadID, actorID)
}

var _ ports.CreditConsumer = (*LeadCreditConsumer)(nil)
