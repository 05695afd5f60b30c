package adapters

import (
	"context"

	"treeleads/internal/leads/ports"
	pricingsvc "treeleads/internal/pricing/service"
)

// LeadPriceResolver adapts the pricing resolver for the leads domain.
type LeadPriceResolver struct {
	resolver *pricingsvc.Resolver
}

// NewLeadPriceResolver creates a new price resolver adapter.
func NewLeadPriceResolver(resolver *pricingsvc.Resolver) *LeadPriceResolver {
	return &LeadPriceResolver{resolver: resolver}
}

// ResolvePrice resolves the sale price of a lead.
func (a *LeadPriceResolver) ResolvePrice(ctx context.Context, city, state, leadType string) (ports.PriceQuote, error) {
	quote, err := a.resolver.Resolve(ctx, city, state, leadType)
	if err != nil {
		return ports.PriceQuote{}, err
	}
	return ports.PriceQuote{
		LeadType:    quote.LeadType,
		AmountCents: quote.AmountCents,
		Source:      string(quote.Source),
		MaxShares:   quote.MaxShares,
	}, nil
}

var _ ports.PriceResolver = (*LeadPriceResolver)(nil)
