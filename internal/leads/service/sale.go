package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"treeleads/internal/events"
	"treeleads/internal/leads/domain"
	"treeleads/internal/leads/ports"
	"treeleads/internal/leads/transport"
	"treeleads/platform/apperr"
	"treeleads/platform/db"
)

const staleSaleBatchSize = 100

// ListForSale prices a lead, creates its payment link and moves it to pending_sale.
// The link is created before the lead is locked; if the write fails the link is disabled again.
func (s *Service) ListForSale(ctx context.Context, id, actorID uuid.UUID, req transport.ListForSaleRequest) (transport.LeadResponse, error) {
	if s.payments == nil {
		return transport.LeadResponse{}, apperr.Unavailable("payments are not configured")
	}

	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if err := checkSellable(lead); err != nil {
		return transport.LeadResponse{}, err
	}

	leadType := strings.ToLower(strings.TrimSpace(req.LeadType))
	amount, maxShares, err := s.salePrice(ctx, lead, leadType, req)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	link, err := s.payments.CreatePaymentLink(ctx, ports.PaymentLinkParams{
		LeadID:      lead.ID,
		LeadType:    leadType,
		AmountCents: amount,
		MaxShares:   maxShares,
		City:        lead.City,
		State:       lead.State,
		ServiceType: lead.ServiceType,
	})
	if err != nil {
		s.log.ExternalCallFailed("payments", "create payment link", err)
		return transport.LeadResponse{}, err
	}

	listed, err := s.repo.Mutate(ctx, id, func(_ context.Context, _ db.DBTX, current domain.Lead) (domain.Lead, *domain.HistoryEntry, error) {
		if err := checkVersion(current, req.ExpectedVersion); err != nil {
			return current, nil, err
		}
		if err := checkSellable(current); err != nil {
			return current, nil, err
		}
		now := s.now()
		next := current
		next.Status = domain.StatusPendingSale
		next.LeadType = &leadType
		next.PriceCents = &amount
		next.PaymentLink = &link.URL
		next.PaymentLinkID = &link.ID
		next.MaxShares = maxShares
		next.CurrentShares = 0
		next.ListedAt = &now
		return next, &domain.HistoryEntry{
			FromStatus: &current.Status,
			ToStatus:   domain.StatusPendingSale,
			Action:     domain.ActionListedForSale,
			ActorID:    &actorID,
		}, nil
	})
	if err != nil {
		s.deactivateLink(ctx, id, link.ID)
		return transport.LeadResponse{}, err
	}

	s.log.Info("lead listed for sale", "leadId", id, "leadType", leadType, "priceCents", amount, "maxShares", maxShares)
	s.eventBus.Publish(ctx, events.LeadListedForSale{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      id,
		LeadType:    leadType,
		PriceCents:  amount,
		PaymentLink: link.URL,
		MaxShares:   maxShares,
		City:        listed.City,
		State:       listed.State,
	})
	return s.toResponse(ctx, listed), nil
}

// ReturnToAvailable takes an unsold lead off the market and back to new.
func (s *Service) ReturnToAvailable(ctx context.Context, id, actorID uuid.UUID, req transport.VersionRequest) (transport.LeadResponse, error) {
	lead, linkID, err := s.returnToAvailable(ctx, id, &actorID, req.ExpectedVersion, "returned by admin")
	if err != nil {
		return transport.LeadResponse{}, err
	}
	s.log.Info("lead returned to available", "leadId", id, "paymentLinkId", linkID)
	return s.toResponse(ctx, lead), nil
}

// ReturnStaleSales returns unsold pending sales listed longer ago than olderThan.
func (s *Service) ReturnStaleSales(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	stale, err := s.repo.ListStalePendingSales(ctx, cutoff, staleSaleBatchSize)
	if err != nil {
		return 0, err
	}

	returned := 0
	for _, lead := range stale {
		if ctx.Err() != nil {
			return returned, ctx.Err()
		}
		if _, _, err := s.returnToAvailable(ctx, lead.ID, nil, nil, "sale expired"); err != nil {
			if apperr.Is(err, apperr.KindConflict) || apperr.Is(err, apperr.KindNotFound) {
				continue
			}
			return returned, err
		}
		returned++
	}
	if returned > 0 {
		s.log.Info("stale pending sales returned", "count", returned, "cutoff", cutoff)
	}
	return returned, nil
}

func (s *Service) returnToAvailable(ctx context.Context, id uuid.UUID, actorID *uuid.UUID, expectedVersion *int, reason string) (domain.Lead, string, error) {
	var linkID string
	lead, err := s.repo.Mutate(ctx, id, func(_ context.Context, _ db.DBTX, current domain.Lead) (domain.Lead, *domain.HistoryEntry, error) {
		if err := checkVersion(current, expectedVersion); err != nil {
			return current, nil, err
		}
		if current.Status != domain.StatusPendingSale {
			return current, nil, apperr.Conflict("lead is not listed for sale")
		}
		if current.CurrentShares > 0 {
			return current, nil, apperr.Conflict("lead already has buyers")
		}
		if current.PaymentLinkID != nil {
			linkID = *current.PaymentLinkID
		}
		next := current
		next.Status = domain.StatusNew
		next.BusinessID = nil
		next.ClearSale()
		return next, &domain.HistoryEntry{
			FromStatus: &current.Status,
			ToStatus:   domain.StatusNew,
			Action:     domain.ActionReturned,
			ActorID:    actorID,
			Reason:     &reason,
		}, nil
	})
	if err != nil {
		return domain.Lead{}, "", err
	}

	if linkID != "" {
		s.deactivateLink(ctx, id, linkID)
	}
	s.eventBus.Publish(ctx, events.LeadReturned{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        id,
		PaymentLinkID: linkID,
		Reason:        reason,
	})
	return lead, linkID, nil
}

func (s *Service) salePrice(ctx context.Context, lead domain.Lead, leadType string, req transport.ListForSaleRequest) (int64, int, error) {
	if s.prices == nil {
		return 0, 0, apperr.Unavailable("pricing is not configured")
	}
	// Resolving also rejects unknown and inactive lead types, so it runs even
	// when both overrides are given.
	quote, err := s.prices.ResolvePrice(ctx, lead.City, lead.State, leadType)
	if err != nil {
		return 0, 0, err
	}
	amount := quote.AmountCents
	maxShares := quote.MaxShares

	if req.PriceCents != nil {
		amount = *req.PriceCents
	}
	if req.MaxShares != nil {
		maxShares = *req.MaxShares
	}

	if domain.IsSingleBuyer(leadType) {
		maxShares = 1
	}
	if maxShares < 1 {
		maxShares = 1
	}
	if amount <= 0 {
		return 0, 0, apperr.Validation("price must be positive")
	}
	return amount, maxShares, nil
}

func checkSellable(lead domain.Lead) error {
	switch {
	case lead.IsArchived:
		return apperr.Conflict("archived leads cannot be sold")
	case lead.BusinessID != nil:
		return apperr.Conflict("lead is already assigned to a company")
	case lead.Status == domain.StatusPendingSale:
		return apperr.Conflict("lead is already listed for sale")
	case !domain.CanTransition(lead.Status, domain.StatusPendingSale):
		return apperr.Conflict("lead cannot be listed for sale from status " + string(lead.Status))
	}
	return nil
}

func (s *Service) deactivateLink(ctx context.Context, leadID uuid.UUID, linkID string) {
	if s.payments == nil || linkID == "" {
		return
	}
	if err := s.payments.DeactivatePaymentLink(context.WithoutCancel(ctx), linkID); err != nil {
		s.log.ExternalCallFailed("payments", "deactivate payment link", err)
		s.log.Warn("payment link left active", "leadId", leadID, "paymentLinkId", linkID)
	}
}
