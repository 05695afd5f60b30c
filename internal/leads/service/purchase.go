package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"treeleads/internal/events"
	"treeleads/internal/leads/domain"
	"treeleads/internal/leads/ports"
	"treeleads/internal/leads/transport"
	"treeleads/platform/apperr"
	"treeleads/platform/db"
)

// PurchaseParams identifies a completed payment. LeadID may be zero when only the
// payment link is known.
type PurchaseParams struct {
	LeadID        uuid.UUID
	PaymentLinkID string
	CompanyID     uuid.UUID
	AmountCents   int64
	SessionID     *string
	Notes         *string
}

// AssignWithCredit hands a new lead to a company for exactly one prepaid credit.
// The credit, the lead and the history row commit together.
func (s *Service) AssignWithCredit(ctx context.Context, id, actorID uuid.UUID, req transport.AssignRequest) (transport.AssignResponse, error) {
	if s.credits == nil {
		return transport.AssignResponse{}, apperr.Unavailable("credits are not configured")
	}
	companyID := req.CompanyID

	var remaining int
	lead, err := s.repo.Mutate(ctx, id, func(ctx context.Context, tx db.DBTX, current domain.Lead) (domain.Lead, *domain.HistoryEntry, error) {
		if err := checkVersion(current, req.ExpectedVersion); err != nil {
			return current, nil, err
		}
		if current.IsArchived {
			return current, nil, apperr.Conflict("archived leads cannot be assigned")
		}
		if current.BusinessID != nil {
			return current, nil, apperr.Conflict("lead is already assigned to a company")
		}
		if current.Status != domain.StatusNew {
			return current, nil, apperr.Conflict("only new leads can be assigned with a credit")
		}

		var err error
		remaining, err = s.credits.ConsumeCredit(ctx, tx, companyID, current.ID, &actorID)
		if err != nil {
			return current, nil, err
		}

		next := current
		next.Status = domain.StatusAssigned
		next.BusinessID = &companyID
		return next, &domain.HistoryEntry{
			FromStatus: &current.Status,
			ToStatus:   domain.StatusAssigned,
			Action:     domain.ActionCreditAssigned,
			ActorID:    &actorID,
			BusinessID: &companyID,
		}, nil
	})
	if err != nil {
		return transport.AssignResponse{}, err
	}

	s.log.Info("lead assigned with credit", "leadId", id, "companyId", companyID, "remainingCredits", remaining)
	s.eventBus.Publish(ctx, events.LeadAssigned{
		BaseEvent:        events.NewBaseEvent(),
		LeadID:           id,
		CompanyID:        companyID,
		RemainingCredits: remaining,
	})
	return transport.AssignResponse{Lead: s.toResponse(ctx, lead), RemainingCredits: remaining}, nil
}

// CreateCheckout starts a company-specific checkout for an available lead.
func (s *Service) CreateCheckout(ctx context.Context, id, companyID uuid.UUID) (transport.CheckoutResponse, error) {
	if s.payments == nil {
		return transport.CheckoutResponse{}, apperr.Unavailable("payments are not configured")
	}
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CheckoutResponse{}, err
	}
	if !lead.IsAvailable() {
		return transport.CheckoutResponse{}, apperr.Conflict("lead is no longer available")
	}
	bought, err := s.repo.HasCompletedPurchase(ctx, nil, id, companyID)
	if err != nil {
		return transport.CheckoutResponse{}, err
	}
	if bought {
		return transport.CheckoutResponse{}, apperr.Conflict("you already bought this lead")
	}

	session, err := s.payments.CreateCheckoutSession(ctx, ports.CheckoutParams{
		LeadID:      lead.ID,
		CompanyID:   companyID,
		LeadType:    lead.TypeName(),
		AmountCents: *lead.PriceCents,
		ServiceType: lead.ServiceType,
		City:        lead.City,
		State:       lead.State,
	})
	if err != nil {
		s.log.ExternalCallFailed("payments", "create checkout session", err)
		return transport.CheckoutResponse{}, err
	}
	return transport.CheckoutResponse{SessionID: session.ID, URL: session.URL, ExpiresAt: session.ExpiresAt}, nil
}

// RecordPurchase stores a completed payment. Replaying the same checkout session returns
// the stored purchase. Payments for leads that are no longer available are kept with
// status refund_required.
func (s *Service) RecordPurchase(ctx context.Context, params PurchaseParams) (transport.PurchaseResponse, error) {
	if params.SessionID != nil {
		existing, err := s.repo.PurchaseBySession(ctx, *params.SessionID)
		if err == nil {
			return toPurchaseResponse(existing), nil
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return transport.PurchaseResponse{}, err
		}
	}

	leadID := params.LeadID
	if leadID == uuid.Nil {
		if params.PaymentLinkID == "" {
			return transport.PurchaseResponse{}, apperr.Validation("purchase has no lead reference")
		}
		lead, err := s.repo.FindByPaymentLinkID(ctx, params.PaymentLinkID)
		if err != nil {
			return transport.PurchaseResponse{}, err
		}
		leadID = lead.ID
	}
	if params.CompanyID == uuid.Nil {
		return transport.PurchaseResponse{}, apperr.Validation("purchase has no company reference")
	}

	var (
		purchase domain.Purchase
		leadType string
		closed   bool
		oversold bool
		linkID   string
	)
	_, err := s.repo.Mutate(ctx, leadID, func(ctx context.Context, tx db.DBTX, current domain.Lead) (domain.Lead, *domain.HistoryEntry, error) {
		closed, oversold, linkID = false, false, ""
		leadType = current.TypeName()

		bought, err := s.repo.HasCompletedPurchase(ctx, tx, current.ID, params.CompanyID)
		if err != nil {
			return current, nil, err
		}

		next := current
		status := domain.PurchaseCompleted
		action := domain.ActionPurchased
		if bought || !current.IsAvailable() {
			oversold = true
			status = domain.PurchaseRefundRequired
			action = domain.ActionPurchaseRefund
		} else {
			closed = applySale(&next, params.CompanyID, s.now())
			if closed && current.PaymentLinkID != nil {
				linkID = *current.PaymentLinkID
			}
		}

		purchase, err = s.repo.InsertPurchase(ctx, tx, domain.Purchase{
			LeadID:          current.ID,
			BusinessID:      params.CompanyID,
			AmountCents:     params.AmountCents,
			Status:          status,
			StripeSessionID: params.SessionID,
			Notes:           params.Notes,
		})
		if err != nil {
			return current, nil, err
		}

		return next, &domain.HistoryEntry{
			FromStatus: &current.Status,
			ToStatus:   next.Status,
			Action:     action,
			BusinessID: &params.CompanyID,
		}, nil
	})
	if err != nil {
		if params.SessionID != nil && apperr.Is(err, apperr.KindConflict) {
			if existing, lookupErr := s.repo.PurchaseBySession(ctx, *params.SessionID); lookupErr == nil {
				return toPurchaseResponse(existing), nil
			}
		}
		return transport.PurchaseResponse{}, err
	}

	if linkID != "" {
		s.deactivateLink(ctx, leadID, linkID)
	}
	if oversold {
		s.log.Warn("lead purchase needs refund", "leadId", leadID, "companyId", params.CompanyID, "purchaseId", purchase.ID)
	} else {
		s.log.Info("lead purchased", "leadId", leadID, "companyId", params.CompanyID, "closed", closed)
	}
	s.eventBus.Publish(ctx, events.LeadPurchased{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      leadID,
		CompanyID:   params.CompanyID,
		PurchaseID:  purchase.ID,
		AmountCents: params.AmountCents,
		LeadType:    leadType,
		Closed:      closed,
		Oversold:    oversold,
	})
	return toPurchaseResponse(purchase), nil
}

// applySale records one sale on the lead and reports whether it left the market.
// Single-buyer leads go to the buyer; shared leads close once every share is sold.
func applySale(lead *domain.Lead, companyID uuid.UUID, now time.Time) bool {
	if !lead.IsShared() {
		lead.Status = domain.StatusAssigned
		lead.BusinessID = &companyID
		lead.CurrentShares = 1
		lead.Archive(now)
		return true
	}
	lead.CurrentShares++
	if lead.CurrentShares >= lead.MaxShares {
		lead.Status = domain.StatusAssigned
		lead.Archive(now)
		return true
	}
	return false
}
