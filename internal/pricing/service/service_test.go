package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"treeleads/internal/pricing/repository"
	"treeleads/internal/pricing/transport"
	"treeleads/platform/apperr"
	"treeleads/platform/logger"
)

type fakeRepo struct {
	fakeReader
	leadTypes map[uuid.UUID]repository.LeadType
	created   []repository.CreateLeadTypeParams
	deleted   []uuid.UUID
	cityCalls []repository.UpsertCityPriceParams
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		fakeReader: fakeReader{lookups: map[string]repository.PriceLookup{}},
		leadTypes:  map[uuid.UUID]repository.LeadType{},
	}
}

func (f *fakeRepo) ListLeadTypes(context.Context, bool) ([]repository.LeadType, error) {
	return nil, nil
}

func (f *fakeRepo) GetLeadType(_ context.Context, id uuid.UUID) (repository.LeadType, error) {
	lt, ok := f.leadTypes[id]
	if !ok {
		return repository.LeadType{}, apperr.NotFound("lead type not found")
	}
	return lt, nil
}

func (f *fakeRepo) CreateLeadType(_ context.Context, p repository.CreateLeadTypeParams) (repository.LeadType, error) {
	f.created = append(f.created, p)
	return repository.LeadType{ID: uuid.New(), Name: p.Name, DefaultMaxShares: p.DefaultMaxShares, IsActive: true}, nil
}

func (f *fakeRepo) UpdateLeadType(_ context.Context, p repository.UpdateLeadTypeParams) (repository.LeadType, error) {
	return f.leadTypes[p.ID], nil
}

func (f *fakeRepo) DeleteLeadType(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) ListDefaultPrices(context.Context) ([]repository.DefaultPrice, error) {
	return nil, nil
}

func (f *fakeRepo) UpsertDefaultPrice(_ context.Context, id uuid.UUID, c int64) (repository.DefaultPrice, error) {
	return repository.DefaultPrice{LeadTypeID: id, PriceCents: c}, nil
}

func (f *fakeRepo) ListCityPrices(context.Context, repository.CityPriceFilter) ([]repository.CityPrice, error) {
	return nil, nil
}

func (f *fakeRepo) UpsertCityPrice(_ context.Context, p repository.UpsertCityPriceParams) (repository.CityPrice, error) {
	f.cityCalls = append(f.cityCalls, p)
	return repository.CityPrice{ID: uuid.New(), City: p.City, State: p.State, LeadTypeID: p.LeadTypeID, PriceCents: p.PriceCents}, nil
}

func (f *fakeRepo) DeleteCityPrice(context.Context, uuid.UUID) error { return nil }

type countingCache struct {
	NoopCache
	invalidations int
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}

func TestCreateLeadTypeNormalisesName(t *testing.T) {
	repo := newFakeRepo()
	cache := &countingCache{}
	svc := New(repo, cache, logger.Discard())

	resp, err := svc.CreateLeadType(context.Background(), transport.CreateLeadTypeRequest{Name: "  Storm "})
	require.NoError(t, err)
	require.Equal(t, "storm", resp.Name)
	require.Equal(t, 1, repo.created[0].DefaultMaxShares)
	require.Equal(t, 1, cache.invalidations)

	_, err = svc.CreateLeadType(context.Background(), transport.CreateLeadTypeRequest{Name: "two words"})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeleteBuiltInLeadTypeIsForbidden(t *testing.T) {
	repo := newFakeRepo()
	sharedID, customID := uuid.New(), uuid.New()
	repo.leadTypes[sharedID] = repository.LeadType{ID: sharedID, Name: LeadTypeShared}
	repo.leadTypes[customID] = repository.LeadType{ID: customID, Name: "storm"}
	svc := New(repo, nil, logger.Discard())

	err := svc.DeleteLeadType(context.Background(), sharedID)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, svc.DeleteLeadType(context.Background(), customID))
	require.Equal(t, []uuid.UUID{customID}, repo.deleted)
}

func TestUpsertCityPriceCanonicalisesState(t *testing.T) {
	repo := newFakeRepo()
	cache := &countingCache{}
	svc := New(repo, cache, logger.Discard())

	_, err := svc.UpsertCityPrice(context.Background(), transport.UpsertCityPriceRequest{
		City: " Salt  Lake City ", State: "ut", LeadTypeID: uuid.New(), PriceCents: 5100,
	})
	require.NoError(t, err)
	require.Equal(t, "Salt Lake City", repo.cityCalls[0].City)
	require.Equal(t, "UT", repo.cityCalls[0].State)
	require.Equal(t, 1, cache.invalidations)
}

func TestListLeadTypesReturnsEmptySlice(t *testing.T) {
	svc := New(newFakeRepo(), nil, logger.Discard())
	items, err := svc.ListLeadTypes(context.Background(), true)
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}
