// Package service implements prepaid lead credits.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"treeleads/internal/credits/repository"
	"treeleads/internal/credits/transport"
	"treeleads/internal/events"
	"treeleads/platform/apperr"
	"treeleads/platform/db"
	"treeleads/platform/logger"
	"treeleads/platform/sanitize"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Service provides credit balance operations.
type Service struct {
	repo     repository.Repository
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a credits service.
func New(repo repository.Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// Balance returns a company's balance.
func (s *Service) Balance(ctx context.Context, companyID uuid.UUID) (transport.BalanceResponse, error) {
	balance, err := s.repo.Balance(ctx, companyID)
	if err != nil {
		return transport.BalanceResponse{}, err
	}
	return transport.BalanceResponse{CompanyID: companyID, Balance: balance}, nil
}

// Grant adds credits to a company.
func (s *Service) Grant(ctx context.Context, companyID uuid.UUID, actorID uuid.UUID, req transport.GrantCreditsRequest) (transport.BalanceResponse, error) {
	if req.Amount <= 0 {
		return transport.BalanceResponse{}, apperr.Validation("amount must be positive")
	}
	reason := sanitize.Line(req.Reason)
	if reason == "" {
		reason = repository.ReasonGrant
	}

	balance, err := s.repo.Grant(ctx, companyID, req.Amount, strings.ToLower(reason), &actorID)
	if err != nil {
		return transport.BalanceResponse{}, err
	}

	s.log.Info("credits granted", "companyId", companyID, "amount", req.Amount, "balance", balance)
	s.eventBus.Publish(ctx, events.CreditsGranted{
		BaseEvent: events.NewBaseEvent(),
		CompanyID: companyID,
		Amount:    req.Amount,
		Balance:   balance,
		Reason:    reason,
	})
	return transport.BalanceResponse{CompanyID: companyID, Balance: balance}, nil
}

// Ledger returns a page of a company's credit history.
func (s *Service) Ledger(ctx context.Context, companyID uuid.UUID, req transport.LedgerRequest) (transport.LedgerResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, total, err := s.repo.Ledger(ctx, companyID, pageSize, (page-1)*pageSize)
	if err != nil {
		return transport.LedgerResponse{}, err
	}

	out := make([]transport.TransactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, transport.TransactionResponse{
			ID:        t.ID,
			Delta:     t.Delta,
			Reason:    t.Reason,
			LeadID:    t.LeadID,
			CreatedAt: t.CreatedAt,
		})
	}
	return transport.LedgerResponse{Items: out, Total: total, Page: page, PageSize: pageSize}, nil
}

// Consume spends one credit inside the caller's transaction.
func (s *Service) Consume(ctx context.Context, q db.DBTX, companyID, leadID uuid.UUID, actorID *uuid.UUID) (int, error) {
	return s.repo.Consume(ctx, q, companyID, leadID, actorID)
}
