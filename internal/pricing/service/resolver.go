package service

import (
	"context"
	"strings"

	"treeleads/internal/pricing/repository"
	"treeleads/platform/apperr"
	"treeleads/platform/logger"
)

// Source says which level of the pricing hierarchy produced a price.
type Source string

const (
	SourceCity     Source = "city"
	SourceDefault  Source = "default"
	SourceFallback Source = "fallback"
)

// Built-in lead types.
const (
	LeadTypeShared    = "shared"
	LeadTypeExclusive = "exclusive"
	LeadTypeEmergency = "emergency"
)

// fallbackPrices apply when neither a city nor a default price row exists.
var fallbackPrices = map[string]int64{
	LeadTypeShared:    4400,
	LeadTypeExclusive: 8900,
	LeadTypeEmergency: 12900,
}

// fallbackMaxShares apply when the lead type row itself is missing.
var fallbackMaxShares = map[string]int{
	LeadTypeShared:    3,
	LeadTypeExclusive: 1,
	LeadTypeEmergency: 1,
}

// FallbackPrice returns the built-in price for a lead type.
func FallbackPrice(leadType string) (int64, bool) {
	cents, ok := fallbackPrices[NormalizeLeadType(leadType)]
	return cents, ok
}

// Quote is a resolved price.
type Quote struct {
	LeadType    string `json:"leadType"`
	AmountCents int64  `json:"amountCents"`
	Source      Source `json:"source"`
	MaxShares   int    `json:"maxShares"`
}

// NormalizeLeadType lower-cases and trims a lead type name.
func NormalizeLeadType(leadType string) string {
	return strings.ToLower(strings.TrimSpace(leadType))
}

// Resolver turns (city, state, lead type) into a price.
// A city override beats the lead type default, which beats the built-in fallback.
type Resolver struct {
	reader repository.PriceLookupReader
	cache  Cache
	log    *logger.Logger
}

// NewResolver creates a resolver. A nil cache disables caching.
func NewResolver(reader repository.PriceLookupReader, cache Cache, log *logger.Logger) *Resolver {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Resolver{reader: reader, cache: cache, log: log}
}

// Resolve returns the price of a lead of leadType in city/state.
func (r *Resolver) Resolve(ctx context.Context, city, state, leadType string) (Quote, error) {
	leadType = NormalizeLeadType(leadType)
	if leadType == "" {
		return Quote{}, apperr.Validation("lead type is required")
	}
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)

	key := r.cache.Key(ctx, city, state, leadType)
	if quote, ok := r.cache.Get(ctx, key); ok {
		return quote, nil
	}

	lookup, err := r.reader.LookupPrice(ctx, city, state, leadType)
	if err != nil {
		return Quote{}, err
	}

	quote, err := resolveLookup(leadType, lookup)
	if err != nil {
		return Quote{}, err
	}

	r.cache.Set(ctx, key, quote)
	if r.log != nil {
		r.log.Debug("price resolved", "leadType", leadType, "city", city, "state", state,
			"source", quote.Source, "amountCents", quote.AmountCents)
	}
	return quote, nil
}

func resolveLookup(leadType string, lookup repository.PriceLookup) (Quote, error) {
	if lookup.LeadTypeFound && !lookup.LeadTypeActive {
		return Quote{}, apperr.Validation("lead type is not active")
	}

	maxShares := lookup.DefaultMaxShares
	if !lookup.LeadTypeFound {
		if _, known := fallbackPrices[leadType]; !known {
			return Quote{}, apperr.Validation("unknown lead type").WithDetails(map[string]string{"leadType": leadType})
		}
		maxShares = fallbackMaxShares[leadType]
	}
	if maxShares < 1 {
		maxShares = 1
	}

	quote := Quote{LeadType: leadType, MaxShares: maxShares}
	switch {
	case lookup.CityPriceCents != nil:
		quote.AmountCents = *lookup.CityPriceCents
		quote.Source = SourceCity
	case lookup.DefaultCents != nil:
		quote.AmountCents = *lookup.DefaultCents
		quote.Source = SourceDefault
	default:
		cents, ok := fallbackPrices[leadType]
		if !ok {
			return Quote{}, apperr.Validation("no price configured for lead type").WithDetails(map[string]string{"leadType": leadType})
		}
		quote.AmountCents = cents
		quote.Source = SourceFallback
	}
	return quote, nil
}
