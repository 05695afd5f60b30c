package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"treeleads/internal/adapters/storage"
	"treeleads/internal/events"
	"treeleads/internal/leads/domain"
	"treeleads/internal/leads/ports"
	"treeleads/internal/leads/transport"
	"treeleads/platform/apperr"
	"treeleads/platform/logger"
)

type fixture struct {
	svc      *Service
	repo     *memRepo
	bus      *recordingBus
	credits  *fakeCredits
	prices   *fakePrices
	payments *fakeGateway
	now      time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newMemRepo(),
		bus:      &recordingBus{},
		credits:  &fakeCredits{balances: map[uuid.UUID]int{}},
		prices:   &fakePrices{quote: ports.PriceQuote{AmountCents: 4400, Source: "fallback", MaxShares: 3}},
		payments: &fakeGateway{},
		now:      time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.repo, f.bus, storage.Disabled{}, "lead-images", "US", logger.Discard())
	f.svc.SetCreditConsumer(f.credits)
	f.svc.SetPriceResolver(f.prices)
	f.svc.SetPaymentGateway(f.payments)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) newLead() domain.Lead {
	return f.repo.put(domain.Lead{
		CustomerName:  "Dana Miller",
		CustomerEmail: "dana@example.com",
		CustomerPhone: "+16502530000",
		City:          "Austin",
		State:         "TX",
		ServiceType:   "tree removal",
		Status:        domain.StatusNew,
	})
}

func (f *fixture) listed(t *testing.T, leadType string) domain.Lead {
	t.Helper()
	lead := f.newLead()
	if _, err := f.svc.ListForSale(context.Background(), lead.ID, uuid.New(), transport.ListForSaleRequest{LeadType: leadType}); err != nil {
		t.Fatalf("list for sale: %v", err)
	}
	stored, _ := f.repo.GetByID(context.Background(), lead.ID)
	return stored
}

func sessionID(s string) *string { return &s }

func TestAssignWithCreditDecrementsExactlyOne(t *testing.T) {
	f := newFixture()
	lead := f.newLead()
	company := uuid.New()
	f.credits.balances[company] = 3

	resp, err := f.svc.AssignWithCredit(context.Background(), lead.ID, uuid.New(), transport.AssignRequest{CompanyID: company})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.RemainingCredits != 2 || f.credits.balances[company] != 2 {
		t.Fatalf("expected balance 2, got resp=%d stored=%d", resp.RemainingCredits, f.credits.balances[company])
	}
	if resp.Lead.Status != string(domain.StatusAssigned) || resp.Lead.BusinessID == nil || *resp.Lead.BusinessID != company {
		t.Fatalf("lead not assigned: %+v", resp.Lead)
	}
	e, ok := f.bus.last().(events.LeadAssigned)
	if !ok || e.CompanyID != company || e.RemainingCredits != 2 {
		t.Fatalf("expected LeadAssigned event, got %#v", f.bus.last())
	}

	other := uuid.New()
	f.credits.balances[other] = 1
	_, err = f.svc.AssignWithCredit(context.Background(), lead.ID, uuid.New(), transport.AssignRequest{CompanyID: other})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for already assigned lead, got %v", err)
	}
	if f.credits.balances[other] != 1 {
		t.Fatalf("credit spent on a refused assignment")
	}
}

func TestAssignWithCreditWithoutBalanceLeavesLeadUntouched(t *testing.T) {
	f := newFixture()
	lead := f.newLead()

	_, err := f.svc.AssignWithCredit(context.Background(), lead.ID, uuid.New(), transport.AssignRequest{CompanyID: uuid.New()})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	stored, _ := f.repo.GetByID(context.Background(), lead.ID)
	if stored.Status != domain.StatusNew || stored.BusinessID != nil || stored.Version != lead.Version {
		t.Fatalf("lead changed after failed assignment: %+v", stored)
	}
}

func TestListForSaleResolvesPriceWhenOmitted(t *testing.T) {
	f := newFixture()
	lead := f.listed(t, "Shared")

	if f.prices.calls != 1 {
		t.Fatalf("expected one price lookup, got %d", f.prices.calls)
	}
	if lead.Status != domain.StatusPendingSale || lead.TypeName() != "shared" {
		t.Fatalf("unexpected lead state: %+v", lead)
	}
	if *lead.PriceCents != 4400 || lead.MaxShares != 3 || lead.PaymentLinkID == nil {
		t.Fatalf("sale fields not set: %+v", lead)
	}
	if !lead.IsAvailable() {
		t.Fatal("listed lead should be available")
	}
	if _, ok := f.bus.last().(events.LeadListedForSale); !ok {
		t.Fatalf("expected LeadListedForSale, got %#v", f.bus.last())
	}
}

func TestListForSaleForcesSingleShareForExclusive(t *testing.T) {
	f := newFixture()
	lead := f.newLead()
	price := int64(9900)
	shares := 4

	resp, err := f.svc.ListForSale(context.Background(), lead.ID, uuid.New(), transport.ListForSaleRequest{
		LeadType: "exclusive", PriceCents: &price, MaxShares: &shares,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.MaxShares != 1 || *resp.PriceCents != 9900 {
		t.Fatalf("expected one share at 9900, got %d at %d", resp.MaxShares, *resp.PriceCents)
	}
	if f.prices.calls != 1 {
		t.Fatalf("expected the lead type to be checked once, got %d lookups", f.prices.calls)
	}
}

func TestListForSaleRejectsUnknownOrInactiveTypeWithOverrides(t *testing.T) {
	for _, leadType := range []string{"no-such-type", "retired"} {
		t.Run(leadType, func(t *testing.T) {
			f := newFixture()
			f.prices.rejected = map[string]error{
				"no-such-type": apperr.Validation("unknown lead type"),
				"retired":      apperr.Validation("lead type is not active"),
			}
			lead := f.newLead()
			price := int64(5000)
			shares := 7

			_, err := f.svc.ListForSale(context.Background(), lead.ID, uuid.New(), transport.ListForSaleRequest{
				LeadType: leadType, PriceCents: &price, MaxShares: &shares,
			})
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if f.payments.created != 0 {
				t.Fatal("no payment link should be created for a rejected lead type")
			}
			stored, _ := f.repo.GetByID(context.Background(), lead.ID)
			if stored.Status != domain.StatusNew {
				t.Fatalf("expected lead to stay new, got %s", stored.Status)
			}
		})
	}
}

func TestListForSaleDeactivatesLinkWhenWriteFails(t *testing.T) {
	f := newFixture()
	lead := f.newLead()
	f.repo.mutateErr = errors.New("connection reset")

	_, err := f.svc.ListForSale(context.Background(), lead.ID, uuid.New(), transport.ListForSaleRequest{LeadType: "shared"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.payments.deactivated) != 1 || f.payments.deactivated[0] != "plink_1" {
		t.Fatalf("expected orphaned link to be deactivated, got %v", f.payments.deactivated)
	}
}

func TestListForSaleRefusesAssignedLead(t *testing.T) {
	f := newFixture()
	lead := f.newLead()
	company := uuid.New()
	lead.Status = domain.StatusAssigned
	lead.BusinessID = &company
	f.repo.put(lead)

	_, err := f.svc.ListForSale(context.Background(), lead.ID, uuid.New(), transport.ListForSaleRequest{LeadType: "shared"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.payments.created != 0 {
		t.Fatal("no payment link should be created for an assigned lead")
	}
}

func TestSharedLeadClosesWhenFullAndOversellNeedsRefund(t *testing.T) {
	f := newFixture()
	lead := f.listed(t, "shared")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		resp, err := f.svc.RecordPurchase(ctx, PurchaseParams{
			LeadID: lead.ID, CompanyID: uuid.New(), AmountCents: 4400, SessionID: sessionID("cs_" + string(rune('a'+i))),
		})
		if err != nil {
			t.Fatalf("purchase %d: %v", i, err)
		}
		if resp.Status != domain.PurchaseCompleted {
			t.Fatalf("purchase %d status %s", i, resp.Status)
		}
	}

	stored, _ := f.repo.GetByID(ctx, lead.ID)
	if stored.CurrentShares != 3 || !stored.IsArchived || stored.IsAvailable() {
		t.Fatalf("lead should be sold out: %+v", stored)
	}
	if stored.BusinessID != nil {
		t.Fatal("shared lead must not belong to a single company")
	}
	if len(f.payments.deactivated) != 1 {
		t.Fatalf("expected link deactivation on close, got %v", f.payments.deactivated)
	}
	last, ok := f.bus.last().(events.LeadPurchased)
	if !ok || !last.Closed {
		t.Fatalf("expected closing LeadPurchased, got %#v", f.bus.last())
	}

	resp, err := f.svc.RecordPurchase(ctx, PurchaseParams{LeadID: lead.ID, CompanyID: uuid.New(), AmountCents: 4400, SessionID: sessionID("cs_late")})
	if err != nil {
		t.Fatalf("late purchase: %v", err)
	}
	if resp.Status != domain.PurchaseRefundRequired {
		t.Fatalf("expected refund_required, got %s", resp.Status)
	}
	if e := f.bus.last().(events.LeadPurchased); !e.Oversold {
		t.Fatal("expected oversold event")
	}
	stored, _ = f.repo.GetByID(ctx, lead.ID)
	if stored.CurrentShares != 3 {
		t.Fatalf("oversold purchase changed shares: %d", stored.CurrentShares)
	}
}

func TestRecordPurchaseIsIdempotentPerSession(t *testing.T) {
	f := newFixture()
	lead := f.listed(t, "shared")
	company := uuid.New()
	params := PurchaseParams{LeadID: lead.ID, CompanyID: company, AmountCents: 4400, SessionID: sessionID("cs_same")}

	first, err := f.svc.RecordPurchase(context.Background(), params)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := f.svc.RecordPurchase(context.Background(), params)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("replayed session should return the stored purchase")
	}
	stored, _ := f.repo.GetByID(context.Background(), lead.ID)
	if stored.CurrentShares != 1 {
		t.Fatalf("replay incremented shares to %d", stored.CurrentShares)
	}
}

func TestRecordPurchaseSameCompanyTwiceNeedsRefund(t *testing.T) {
	f := newFixture()
	lead := f.listed(t, "shared")
	company := uuid.New()
	ctx := context.Background()

	if _, err := f.svc.RecordPurchase(ctx, PurchaseParams{LeadID: lead.ID, CompanyID: company, AmountCents: 4400, SessionID: sessionID("cs_1")}); err != nil {
		t.Fatal(err)
	}
	resp, err := f.svc.RecordPurchase(ctx, PurchaseParams{LeadID: lead.ID, CompanyID: company, AmountCents: 4400, SessionID: sessionID("cs_2")})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != domain.PurchaseRefundRequired {
		t.Fatalf("expected refund_required, got %s", resp.Status)
	}
}

func TestExclusivePurchaseAssignsAndArchives(t *testing.T) {
	f := newFixture()
	f.prices.quote.MaxShares = 1
	lead := f.listed(t, "exclusive")
	company := uuid.New()

	_, err := f.svc.RecordPurchase(context.Background(), PurchaseParams{
		PaymentLinkID: *lead.PaymentLinkID, CompanyID: company, AmountCents: 8900, SessionID: sessionID("cs_x"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := f.repo.GetByID(context.Background(), lead.ID)
	if stored.Status != domain.StatusAssigned || !stored.IsArchived || stored.BusinessID == nil || *stored.BusinessID != company {
		t.Fatalf("exclusive lead not handed over: %+v", stored)
	}
	if stored.CurrentShares != 1 {
		t.Fatalf("expected one share sold, got %d", stored.CurrentShares)
	}
}

func TestReturnToAvailable(t *testing.T) {
	f := newFixture()
	lead := f.listed(t, "shared")
	ctx := context.Background()

	resp, err := f.svc.ReturnToAvailable(ctx, lead.ID, uuid.New(), transport.VersionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != string(domain.StatusNew) || resp.PaymentLink != nil || resp.PriceCents != nil {
		t.Fatalf("sale fields not cleared: %+v", resp)
	}
	if len(f.payments.deactivated) != 1 {
		t.Fatal("expected link deactivation")
	}

	sold := f.listed(t, "shared")
	if _, err := f.svc.RecordPurchase(ctx, PurchaseParams{LeadID: sold.ID, CompanyID: uuid.New(), AmountCents: 4400}); err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.ReturnToAvailable(ctx, sold.ID, uuid.New(), transport.VersionRequest{})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict once a share is sold, got %v", err)
	}
}

func TestReturnStaleSales(t *testing.T) {
	f := newFixture()
	stale := f.listed(t, "shared")
	f.now = f.now.Add(72 * time.Hour)
	fresh := f.listed(t, "shared")

	n, err := f.svc.ReturnStaleSales(context.Background(), 48*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 returned, got %d", n)
	}
	got, _ := f.repo.GetByID(context.Background(), stale.ID)
	if got.Status != domain.StatusNew {
		t.Fatalf("stale lead status %s", got.Status)
	}
	got, _ = f.repo.GetByID(context.Background(), fresh.ID)
	if got.Status != domain.StatusPendingSale {
		t.Fatalf("fresh lead status %s", got.Status)
	}
}

func TestUpdateStatusEnforcesTransitions(t *testing.T) {
	f := newFixture()
	lead := f.newLead()
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, lead.ID, uuid.New(), transport.UpdateStatusRequest{Status: "converted"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for new -> converted, got %v", err)
	}

	stale := 99
	_, err = f.svc.UpdateStatus(ctx, lead.ID, uuid.New(), transport.UpdateStatusRequest{Status: "lost", ExpectedVersion: &stale})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	resp, err := f.svc.UpdateStatus(ctx, lead.ID, uuid.New(), transport.UpdateStatusRequest{Status: "lost", ExpectedVersion: &lead.Version})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "lost" || resp.Version != lead.Version+1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestArchivePendingSaleDisablesLinkAndUnarchiveReturnsToNew(t *testing.T) {
	f := newFixture()
	lead := f.listed(t, "shared")
	ctx := context.Background()

	resp, err := f.svc.Archive(ctx, lead.ID, uuid.New(), transport.VersionRequest{})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !resp.IsArchived || resp.PaymentLink != nil || len(f.payments.deactivated) != 1 {
		t.Fatalf("archive did not close the sale: %+v", resp)
	}

	resp, err = f.svc.Unarchive(ctx, lead.ID, uuid.New(), transport.VersionRequest{})
	if err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	if resp.IsArchived || resp.Status != string(domain.StatusNew) {
		t.Fatalf("unexpected state after unarchive: %+v", resp)
	}
}

func TestSubmitNormalizesPhoneAndChecksImageKeys(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := transport.SubmitLeadRequest{
		CustomerName:  "  Sam <b>Lee</b> ",
		CustomerEmail: "Sam@Example.com",
		CustomerPhone: "(650) 253-0000",
		City:          "Austin",
		State:         "tx",
		ServiceType:   "stump grinding",
		ImageKeys:     []string{"submissions/2026/05/01/oak-1a2b3c4d.jpg"},
	}

	resp, err := f.svc.Submit(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := f.repo.GetByID(ctx, resp.ID)
	if stored.CustomerPhone != "+16502530000" || stored.CustomerEmail != "sam@example.com" || stored.State != "TX" {
		t.Fatalf("fields not normalised: %+v", stored)
	}
	if strings.Contains(stored.CustomerName, "<") {
		t.Fatalf("html kept in name: %q", stored.CustomerName)
	}
	if _, ok := f.bus.last().(events.LeadSubmitted); !ok {
		t.Fatalf("expected LeadSubmitted, got %#v", f.bus.last())
	}

	req.ImageKeys = []string{"companies/logo.png"}
	if _, err := f.svc.Submit(ctx, req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for foreign key, got %v", err)
	}

	req.ImageKeys = nil
	req.CustomerPhone = "12"
	if _, err := f.svc.Submit(ctx, req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for phone, got %v", err)
	}
}

func TestListAvailableHidesContactAndTagsCompany(t *testing.T) {
	f := newFixture()
	lead := f.listed(t, "shared")
	f.newLead()
	company := uuid.New()

	resp, err := f.svc.ListAvailable(context.Background(), &company, transport.ListAvailableRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != lead.ID {
		t.Fatalf("expected only the listed lead, got %+v", resp.Items)
	}
	item := resp.Items[0]
	if !strings.Contains(item.PurchaseURL, "client_reference_id="+company.String()) {
		t.Fatalf("purchase URL not tagged: %s", item.PurchaseURL)
	}
	if item.SharesLeft != 3 {
		t.Fatalf("expected 3 shares left, got %d", item.SharesLeft)
	}

	if _, err := f.svc.RecordPurchase(context.Background(), PurchaseParams{LeadID: lead.ID, CompanyID: company, AmountCents: 4400}); err != nil {
		t.Fatal(err)
	}
	resp, _ = f.svc.ListAvailable(context.Background(), &company, transport.ListAvailableRequest{})
	if len(resp.Items) != 0 {
		t.Fatal("company should not see a lead it already bought")
	}
}

func TestCreateCheckoutRequiresAvailableLead(t *testing.T) {
	f := newFixture()
	lead := f.newLead()

	_, err := f.svc.CreateCheckout(context.Background(), lead.ID, uuid.New())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	listed := f.listed(t, "shared")
	resp, err := f.svc.CreateCheckout(context.Background(), listed.ID, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.URL == "" || resp.SessionID == "" {
		t.Fatalf("empty checkout: %+v", resp)
	}
}

func TestDeleteKeepsSoldLeads(t *testing.T) {
	ctx := context.Background()

	t.Run("shares sold", func(t *testing.T) {
		f := newFixture()
		lead := f.listed(t, "shared")
		if _, err := f.svc.RecordPurchase(ctx, PurchaseParams{
			LeadID: lead.ID, CompanyID: uuid.New(), AmountCents: 4400, SessionID: sessionID("cs_keep"),
		}); err != nil {
			t.Fatalf("purchase: %v", err)
		}

		if err := f.svc.Delete(ctx, lead.ID); !apperr.Is(err, apperr.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if purchases, _ := f.repo.Purchases(ctx, lead.ID); len(purchases) != 1 {
			t.Fatalf("expected purchase row to survive, got %d", len(purchases))
		}
	})

	t.Run("refund pending", func(t *testing.T) {
		f := newFixture()
		lead := f.newLead()
		if _, err := f.repo.InsertPurchase(ctx, nil, domain.Purchase{
			LeadID: lead.ID, BusinessID: uuid.New(), AmountCents: 8900, Status: domain.PurchaseRefundRequired,
		}); err != nil {
			t.Fatalf("insert purchase: %v", err)
		}

		if err := f.svc.Delete(ctx, lead.ID); !apperr.Is(err, apperr.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if _, err := f.repo.GetByID(ctx, lead.ID); err != nil {
			t.Fatalf("lead should still exist: %v", err)
		}
	})

	t.Run("unsold listing", func(t *testing.T) {
		f := newFixture()
		lead := f.listed(t, "shared")

		if err := f.svc.Delete(ctx, lead.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := f.repo.GetByID(ctx, lead.ID); !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("expected lead to be gone, got %v", err)
		}
		if len(f.payments.deactivated) != 1 {
			t.Fatalf("expected payment link to be deactivated, got %v", f.payments.deactivated)
		}
	})
}
