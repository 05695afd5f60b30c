package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"treeleads/internal/events"
	"treeleads/internal/leads/domain"
	"treeleads/internal/leads/ports"
	"treeleads/internal/leads/repository"
	"treeleads/platform/apperr"
	"treeleads/platform/db"
)

type memRepo struct {
	mu        sync.Mutex
	leads     map[uuid.UUID]domain.Lead
	history   []domain.HistoryEntry
	purchases []domain.Purchase
	mutateErr error
}

func newMemRepo() *memRepo {
	return &memRepo{leads: map[uuid.UUID]domain.Lead{}}
}

func (m *memRepo) put(l domain.Lead) domain.Lead {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Version == 0 {
		l.Version = 1
	}
	if l.MaxShares == 0 {
		l.MaxShares = 1
	}
	m.leads[l.ID] = l
	return l
}

func (m *memRepo) Create(_ context.Context, p repository.CreateParams) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.put(domain.Lead{
		CustomerName:  p.CustomerName,
		CustomerEmail: p.CustomerEmail,
		CustomerPhone: p.CustomerPhone,
		City:          p.City,
		State:         p.State,
		ServiceType:   p.ServiceType,
		Description:   p.Description,
		Urgency:       p.Urgency,
		ImageKeys:     p.ImageKeys,
		Status:        domain.StatusNew,
		CreatedAt:     time.Now(),
	})
	m.history = append(m.history, domain.HistoryEntry{LeadID: l.ID, ToStatus: domain.StatusNew, Action: domain.ActionSubmitted})
	return l, nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	return l, nil
}

func (m *memRepo) FindByPaymentLinkID(_ context.Context, linkID string) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.PaymentLinkID != nil && *l.PaymentLinkID == linkID {
			return l, nil
		}
	}
	return domain.Lead{}, apperr.NotFound("lead not found")
}

func (m *memRepo) List(_ context.Context, p repository.ListParams) ([]domain.Lead, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lead
	for _, l := range m.leads {
		if p.Status != nil && l.Status != *p.Status {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (m *memRepo) ListAvailable(_ context.Context, p repository.AvailableParams) ([]domain.Lead, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lead
	for _, l := range m.leads {
		if !l.IsAvailable() {
			continue
		}
		if p.CompanyID != nil && m.bought(l.ID, *p.CompanyID) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, len(out), nil
}

func (m *memRepo) ListForCompany(_ context.Context, companyID uuid.UUID, _, _ int) ([]domain.Lead, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lead
	for _, l := range m.leads {
		if (l.BusinessID != nil && *l.BusinessID == companyID) || m.bought(l.ID, companyID) {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) ListStalePendingSales(_ context.Context, cutoff time.Time, _ int) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lead
	for _, l := range m.leads {
		if l.Status == domain.StatusPendingSale && !l.IsArchived && l.CurrentShares == 0 && l.ListedAt != nil && l.ListedAt.Before(cutoff) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateDetails(_ context.Context, p repository.UpdateDetailsParams) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[p.ID]
	if !ok {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	if p.ExpectedVersion != nil && *p.ExpectedVersion != l.Version {
		return domain.Lead{}, apperr.Conflict("lead was modified by someone else")
	}
	if p.CustomerName != nil {
		l.CustomerName = *p.CustomerName
	}
	if p.CustomerPhone != nil {
		l.CustomerPhone = *p.CustomerPhone
	}
	if p.City != nil {
		l.City = *p.City
	}
	l.Version++
	m.leads[l.ID] = l
	return l, nil
}

// Mutate mirrors the transactional contract: nothing is stored when fn fails.
func (m *memRepo) Mutate(ctx context.Context, id uuid.UUID, fn repository.MutateFunc) (domain.Lead, error) {
	m.mu.Lock()
	current, ok := m.leads[id]
	m.mu.Unlock()
	if !ok {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}

	purchasesBefore := len(m.purchases)
	next, history, err := fn(ctx, nil, current)
	if err == nil {
		err = m.mutateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.purchases = m.purchases[:purchasesBefore]
		return domain.Lead{}, err
	}
	if next.CurrentShares > next.MaxShares {
		m.purchases = m.purchases[:purchasesBefore]
		return domain.Lead{}, apperr.Conflict("lead share limit reached")
	}
	next.Version = current.Version + 1
	m.leads[id] = next
	if history != nil {
		history.LeadID = id
		m.history = append(m.history, *history)
	}
	return next, nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[id]; !ok {
		return apperr.NotFound("lead not found")
	}
	delete(m.leads, id)
	return nil
}

func (m *memRepo) History(_ context.Context, leadID uuid.UUID) ([]domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.HistoryEntry
	for _, h := range m.history {
		if h.LeadID == leadID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memRepo) InsertPurchase(_ context.Context, _ db.DBTX, p domain.Purchase) (domain.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.purchases {
		if p.StripeSessionID != nil && existing.StripeSessionID != nil && *existing.StripeSessionID == *p.StripeSessionID {
			return domain.Purchase{}, apperr.Conflict("purchase already recorded")
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.purchases = append(m.purchases, p)
	return p, nil
}

func (m *memRepo) HasCompletedPurchase(_ context.Context, _ db.DBTX, leadID, companyID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bought(leadID, companyID), nil
}

func (m *memRepo) bought(leadID, companyID uuid.UUID) bool {
	for _, p := range m.purchases {
		if p.LeadID == leadID && p.BusinessID == companyID && p.Status == domain.PurchaseCompleted {
			return true
		}
	}
	return false
}

func (m *memRepo) PurchaseBySession(_ context.Context, sessionID string) (domain.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.purchases {
		if p.StripeSessionID != nil && *p.StripeSessionID == sessionID {
			return p, nil
		}
	}
	return domain.Purchase{}, apperr.NotFound("purchase not found")
}

func (m *memRepo) Purchases(_ context.Context, leadID uuid.UUID) ([]domain.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Purchase
	for _, p := range m.purchases {
		if p.LeadID == leadID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeCredits struct {
	balances map[uuid.UUID]int
}

func (f *fakeCredits) ConsumeCredit(_ context.Context, _ db.DBTX, companyID, _ uuid.UUID, _ *uuid.UUID) (int, error) {
	if f.balances[companyID] < 1 {
		return 0, apperr.Conflict("company has no lead credits left")
	}
	f.balances[companyID]--
	return f.balances[companyID], nil
}

type fakePrices struct {
	quote    ports.PriceQuote
	calls    int
	rejected map[string]error
}

func (f *fakePrices) ResolvePrice(_ context.Context, _, _, leadType string) (ports.PriceQuote, error) {
	f.calls++
	if err, ok := f.rejected[leadType]; ok {
		return ports.PriceQuote{}, err
	}
	q := f.quote
	q.LeadType = leadType
	return q, nil
}

type fakeGateway struct {
	created     int
	deactivated []string
	createErr   error
}

func (g *fakeGateway) CreatePaymentLink(_ context.Context, p ports.PaymentLinkParams) (ports.PaymentLink, error) {
	if g.createErr != nil {
		return ports.PaymentLink{}, g.createErr
	}
	g.created++
	id := fmt.Sprintf("plink_%d", g.created)
	return ports.PaymentLink{ID: id, URL: "https://buy.stripe.com/" + id}, nil
}

func (g *fakeGateway) DeactivatePaymentLink(_ context.Context, linkID string) error {
	g.deactivated = append(g.deactivated, linkID)
	return nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p ports.CheckoutParams) (ports.CheckoutSession, error) {
	if p.AmountCents <= 0 {
		return ports.CheckoutSession{}, errors.New("amount required")
	}
	return ports.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (g *fakeGateway) PurchaseURL(linkURL string, companyID uuid.UUID) string {
	return linkURL + "?client_reference_id=" + url.QueryEscape(companyID.String())
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
}
func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error { b.Publish(ctx, e); return nil }
func (b *recordingBus) Subscribe(string, events.Handler)                     {}

func (b *recordingBus) last() events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.published) == 0 {
		return nil
	}
	return b.published[len(b.published)-1]
}
