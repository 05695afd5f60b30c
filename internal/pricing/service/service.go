// Package service holds pricing administration and price resolution.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"treeleads/internal/pricing/repository"
	"treeleads/internal/pricing/transport"
	"treeleads/platform/apperr"
	"treeleads/platform/logger"
	"treeleads/platform/sanitize"
)

// Service provides business logic for lead types and prices.
type Service struct {
	repo     repository.Repository
	resolver *Resolver
	cache    Cache
	log      *logger.Logger
}

// New creates a new pricing service.
func New(repo repository.Repository, cache Cache, log *logger.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{
		repo:     repo,
		resolver: NewResolver(repo, cache, log),
		cache:    cache,
		log:      log,
	}
}

// Resolver exposes the price resolver for other modules.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Resolve answers the admin "what would this cost" query.
func (s *Service) Resolve(ctx context.Context, req transport.ResolvePriceRequest) (transport.ResolvedPriceResponse, error) {
	quote, err := s.resolver.Resolve(ctx, req.City, req.State, req.LeadType)
	if err != nil {
		return transport.ResolvedPriceResponse{}, err
	}
	return transport.ResolvedPriceResponse{
		LeadType:    quote.LeadType,
		AmountCents: quote.AmountCents,
		Source:      string(quote.Source),
		MaxShares:   quote.MaxShares,
	}, nil
}

// ListLeadTypes lists lead types.
func (s *Service) ListLeadTypes(ctx context.Context, includeInactive bool) ([]transport.LeadTypeResponse, error) {
	items, err := s.repo.ListLeadTypes(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]transport.LeadTypeResponse, 0, len(items))
	for _, lt := range items {
		out = append(out, toLeadTypeResponse(lt))
	}
	return out, nil
}

// CreateLeadType adds a lead type. Names are stored lower case.
func (s *Service) CreateLeadType(ctx context.Context, req transport.CreateLeadTypeRequest) (transport.LeadTypeResponse, error) {
	name := NormalizeLeadType(sanitize.Line(req.Name))
	if name == "" || strings.ContainsAny(name, " \t") {
		return transport.LeadTypeResponse{}, apperr.Validation("lead type name must be a single word")
	}

	maxShares := 1
	if req.DefaultMaxShares != nil {
		maxShares = *req.DefaultMaxShares
	}

	lt, err := s.repo.CreateLeadType(ctx, repository.CreateLeadTypeParams{
		Name:             name,
		Description:      sanitize.TextPtr(req.Description),
		DefaultMaxShares: maxShares,
	})
	if err != nil {
		return transport.LeadTypeResponse{}, err
	}

	s.invalidate(ctx)
	s.log.Info("lead type created", "leadTypeId", lt.ID, "name", lt.Name)
	return toLeadTypeResponse(lt), nil
}

// UpdateLeadType changes description, share cap or active flag.
func (s *Service) UpdateLeadType(ctx context.Context, id uuid.UUID, req transport.UpdateLeadTypeRequest) (transport.LeadTypeResponse, error) {
	lt, err := s.repo.UpdateLeadType(ctx, repository.UpdateLeadTypeParams{
		ID:               id,
		Description:      sanitize.TextPtr(req.Description),
		DefaultMaxShares: req.DefaultMaxShares,
		IsActive:         req.IsActive,
	})
	if err != nil {
		return transport.LeadTypeResponse{}, err
	}
	s.invalidate(ctx)
	return toLeadTypeResponse(lt), nil
}

// DeleteLeadType removes a lead type with its prices. Built-in types cannot be removed.
func (s *Service) DeleteLeadType(ctx context.Context, id uuid.UUID) error {
	lt, err := s.repo.GetLeadType(ctx, id)
	if err != nil {
		return err
	}
	if _, builtIn := fallbackPrices[lt.Name]; builtIn {
		return apperr.Forbidden("built-in lead types can be deactivated but not deleted")
	}
	if err := s.repo.DeleteLeadType(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.Info("lead type deleted", "leadTypeId", id, "name", lt.Name)
	return nil
}

// ListDefaultPrices lists global prices.
func (s *Service) ListDefaultPrices(ctx context.Context) ([]transport.DefaultPriceResponse, error) {
	items, err := s.repo.ListDefaultPrices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.DefaultPriceResponse, 0, len(items))
	for _, p := range items {
		out = append(out, transport.DefaultPriceResponse{
			LeadTypeID: p.LeadTypeID,
			LeadType:   p.LeadTypeName,
			PriceCents: p.PriceCents,
			UpdatedAt:  p.UpdatedAt,
		})
	}
	return out, nil
}

// UpsertDefaultPrice sets a global price.
func (s *Service) UpsertDefaultPrice(ctx context.Context, req transport.UpsertDefaultPriceRequest) (transport.DefaultPriceResponse, error) {
	p, err := s.repo.UpsertDefaultPrice(ctx, req.LeadTypeID, req.PriceCents)
	if err != nil {
		return transport.DefaultPriceResponse{}, err
	}
	s.invalidate(ctx)
	s.log.Info("default price updated", "leadType", p.LeadTypeName, "priceCents", p.PriceCents)
	return transport.DefaultPriceResponse{
		LeadTypeID: p.LeadTypeID,
		LeadType:   p.LeadTypeName,
		PriceCents: p.PriceCents,
		UpdatedAt:  p.UpdatedAt,
	}, nil
}

// ListCityPrices lists city overrides.
func (s *Service) ListCityPrices(ctx context.Context, req transport.ListCityPricesRequest) ([]transport.CityPriceResponse, error) {
	filter := repository.CityPriceFilter{
		City:  strings.TrimSpace(req.City),
		State: strings.TrimSpace(req.State),
	}
	if req.LeadTypeID != "" {
		id, err := uuid.Parse(req.LeadTypeID)
		if err != nil {
			return nil, apperr.BadRequest("invalid lead type ID")
		}
		filter.LeadTypeID = &id
	}

	items, err := s.repo.ListCityPrices(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]transport.CityPriceResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toCityPriceResponse(p))
	}
	return out, nil
}

// UpsertCityPrice sets a city override.
func (s *Service) UpsertCityPrice(ctx context.Context, req transport.UpsertCityPriceRequest) (transport.CityPriceResponse, error) {
	p, err := s.repo.UpsertCityPrice(ctx, repository.UpsertCityPriceParams{
		City:       sanitize.Line(req.City),
		State:      strings.ToUpper(sanitize.Line(req.State)),
		LeadTypeID: req.LeadTypeID,
		PriceCents: req.PriceCents,
	})
	if err != nil {
		return transport.CityPriceResponse{}, err
	}
	s.invalidate(ctx)
	s.log.Info("city price updated", "city", p.City, "state", p.State, "leadType", p.LeadTypeName, "priceCents", p.PriceCents)
	return toCityPriceResponse(p), nil
}

// DeleteCityPrice removes a city override.
func (s *Service) DeleteCityPrice(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCityPrice(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("pricing cache invalidation failed", "error", err)
	}
}

func toLeadTypeResponse(lt repository.LeadType) transport.LeadTypeResponse {
	return transport.LeadTypeResponse{
		ID:               lt.ID,
		Name:             lt.Name,
		Description:      lt.Description,
		DefaultMaxShares: lt.DefaultMaxShares,
		IsActive:         lt.IsActive,
		CreatedAt:        lt.CreatedAt,
		UpdatedAt:        lt.UpdatedAt,
	}
}

func toCityPriceResponse(p repository.CityPrice) transport.CityPriceResponse {
	return transport.CityPriceResponse{
		ID:         p.ID,
		City:       p.City,
		State:      p.State,
		LeadTypeID: p.LeadTypeID,
		LeadType:   p.LeadTypeName,
		PriceCents: p.PriceCents,
		UpdatedAt:  p.UpdatedAt,
	}
}
