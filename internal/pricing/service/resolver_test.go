package service

import (
	"context"
	"testing"

	"treeleads/internal/pricing/repository"
	"treeleads/platform/apperr"
)

type fakeReader struct {
	lookups map[string]repository.PriceLookup
	calls   int
}

func (f *fakeReader) LookupPrice(_ context.Context, city, state, leadType string) (repository.PriceLookup, error) {
	f.calls++
	return f.lookups[leadType+"|"+state+"|"+city], nil
}

func cents(v int64) *int64 { return &v }

func TestResolveFallsBackWhenNoCityOverride(t *testing.T) {
	reader := &fakeReader{lookups: map[string]repository.PriceLookup{
		"shared|TX|Austin": {LeadTypeFound: true, LeadTypeActive: true, DefaultMaxShares: 3, DefaultCents: cents(5000)},
	}}
	r := NewResolver(reader, nil, nil)

	quote, err := r.Resolve(context.Background(), "Austin", "TX", "Shared ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Source != SourceDefault || quote.AmountCents != 5000 || quote.MaxShares != 3 {
		t.Fatalf("unexpected quote %+v", quote)
	}
}

func TestResolvePrefersCityOverride(t *testing.T) {
	reader := &fakeReader{lookups: map[string]repository.PriceLookup{
		"exclusive|TX|Austin": {
			LeadTypeFound: true, LeadTypeActive: true, DefaultMaxShares: 1,
			CityPriceCents: cents(9900), DefaultCents: cents(8900),
		},
	}}
	quote, err := NewResolver(reader, nil, nil).Resolve(context.Background(), "Austin", "TX", "exclusive")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Source != SourceCity || quote.AmountCents != 9900 {
		t.Fatalf("expected city price, got %+v", quote)
	}
}

func TestResolveUsesBuiltInConstants(t *testing.T) {
	tests := []struct {
		leadType  string
		want      int64
		maxShares int
	}{
		{"shared", 4400, 3},
		{"exclusive", 8900, 1},
		{"emergency", 12900, 1},
	}

	reader := &fakeReader{lookups: map[string]repository.PriceLookup{}}
	r := NewResolver(reader, nil, nil)
	for _, tt := range tests {
		t.Run(tt.leadType, func(t *testing.T) {
			quote, err := r.Resolve(context.Background(), "Nowhere", "ZZ", tt.leadType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if quote.Source != SourceFallback || quote.AmountCents != tt.want || quote.MaxShares != tt.maxShares {
				t.Fatalf("unexpected quote %+v", quote)
			}
		})
	}
}

func TestResolveRejectsUnknownAndInactiveTypes(t *testing.T) {
	reader := &fakeReader{lookups: map[string]repository.PriceLookup{
		"premium|TX|Austin": {LeadTypeFound: true, LeadTypeActive: false, DefaultCents: cents(1000)},
	}}
	r := NewResolver(reader, nil, nil)

	if _, err := r.Resolve(context.Background(), "Austin", "TX", "platinum"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), "Austin", "TX", "premium"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for inactive type, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), "Austin", "TX", "  "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank type, got %v", err)
	}
}

func TestCustomTypeWithoutPriceIsRejected(t *testing.T) {
	reader := &fakeReader{lookups: map[string]repository.PriceLookup{
		"storm|FL|Tampa": {LeadTypeFound: true, LeadTypeActive: true, DefaultMaxShares: 2},
	}}
	_, err := NewResolver(reader, nil, nil).Resolve(context.Background(), "Tampa", "FL", "storm")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFallbackPrice(t *testing.T) {
	if got, ok := FallbackPrice(" EMERGENCY"); !ok || got != 12900 {
		t.Fatalf("unexpected fallback %d %v", got, ok)
	}
	if _, ok := FallbackPrice("gold"); ok {
		t.Fatal("expected no fallback for unknown type")
	}
}
