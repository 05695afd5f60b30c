package notification

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"treeleads/internal/email"
	"treeleads/internal/events"
	"treeleads/platform/logger"

	"github.com/google/uuid"
)

type testNotificationConfig struct{ adminEmail string }

func (c testNotificationConfig) GetAppBaseURL() string             { return "https://app.example.com/" }
func (c testNotificationConfig) GetAdminNotificationEmail() string { return c.adminEmail }

type sentEmail struct {
	kind   string
	to     string
	url    string
	amount int64
}

type testSender struct {
	mu     sync.Mutex
	sent   []sentEmail
	failTo map[string]bool
}

func (s *testSender) record(e sentEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTo[e.to] {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, e)
	return nil
}

func (s *testSender) SendNewLeadEmail(_ context.Context, to string, _ email.LeadContact, adminURL string) error {
	return s.record(sentEmail{kind: "new_lead", to: to, url: adminURL})
}
func (s *testSender) SendLeadAssignedEmail(_ context.Context, to, _ string, _ email.LeadContact, _ int) error {
	return s.record(sentEmail{kind: "assigned", to: to})
}
func (s *testSender) SendLeadPurchasedEmail(_ context.Context, to, _ string, _ email.LeadContact, amount int64) error {
	return s.record(sentEmail{kind: "purchased", to: to, amount: amount})
}
func (s *testSender) SendOversoldAlertEmail(_ context.Context, to, _ string, _ email.LeadSummary, amount int64, _ string) error {
	return s.record(sentEmail{kind: "oversold", to: to, amount: amount})
}
func (s *testSender) SendLeadAvailableEmail(_ context.Context, to, _ string, _ email.LeadSummary, _ int64, url string) error {
	return s.record(sentEmail{kind: "available", to: to, url: url})
}
func (s *testSender) SendCreditsGrantedEmail(_ context.Context, to, _ string, _, _ int) error {
	return s.record(sentEmail{kind: "credits", to: to})
}

type testLeads struct{ info LeadInfo }

func (r testLeads) NotificationLead(context.Context, uuid.UUID) (LeadInfo, error) { return r.info, nil }

type testCompanies struct {
	byID map[uuid.UUID]CompanyContact
	area []CompanyContact
}

func (r testCompanies) CompanyContact(_ context.Context, id uuid.UUID) (CompanyContact, error) {
	c, ok := r.byID[id]
	if !ok {
		return CompanyContact{}, errors.New("not found")
	}
	return c, nil
}

func (r testCompanies) ActiveCompaniesInArea(context.Context, string, string) ([]CompanyContact, error) {
	return r.area, nil
}

type testLinker struct{}

func (testLinker) PurchaseURL(linkURL string, companyID uuid.UUID) string {
	return linkURL + "?client_reference_id=" + companyID.String()
}

type testQueue struct {
	jobs   []Job
	blasts []uuid.UUID
	err    error
}

func (q *testQueue) EnqueueNotification(_ context.Context, job Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *testQueue) EnqueueEmailBlast(_ context.Context, leadID uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.blasts = append(q.blasts, leadID)
	return nil
}

func newTestModule(adminEmail string, companies testCompanies) (*Module, *testSender) {
	sender := &testSender{failTo: map[string]bool{}}
	m := New(sender, testNotificationConfig{adminEmail: adminEmail}, logger.Discard())
	m.SetLeadReader(testLeads{info: LeadInfo{
		Contact:     email.LeadContact{LeadSummary: email.LeadSummary{City: "Austin", State: "TX", LeadType: "shared"}},
		PriceCents:  4400,
		PaymentLink: "https://buy.stripe.com/abc",
		Available:   true,
	}})
	m.SetCompanyReader(companies)
	m.SetPurchaseLinker(testLinker{})
	return m, sender
}

func TestLeadAssignedSendsInlineWithoutQueue(t *testing.T) {
	companyID := uuid.New()
	m, sender := newTestModule("", testCompanies{byID: map[uuid.UUID]CompanyContact{
		companyID: {ID: companyID, Name: "Acme", Email: "acme@example.com"},
	}})

	err := m.Handle(context.Background(), events.LeadAssigned{LeadID: uuid.New(), CompanyID: companyID, RemainingCredits: 2})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].kind != "assigned" || sender.sent[0].to != "acme@example.com" {
		t.Fatalf("unexpected emails: %+v", sender.sent)
	}
}

func TestEventsAreQueuedWhenQueueAttached(t *testing.T) {
	m, sender := newTestModule("admin@example.com", testCompanies{})
	queue := &testQueue{}
	m.SetQueue(queue)

	leadID := uuid.New()
	companyID := uuid.New()
	ctx := context.Background()
	_ = m.Handle(ctx, events.LeadPurchased{LeadID: leadID, CompanyID: companyID, AmountCents: 4400, Oversold: true})
	_ = m.Handle(ctx, events.LeadEmailBlastRequested{LeadID: leadID})

	if len(sender.sent) != 0 {
		t.Fatalf("expected no inline sends, got %+v", sender.sent)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].Kind != KindLeadOversold || queue.jobs[0].AmountCents != 4400 {
		t.Fatalf("unexpected jobs: %+v", queue.jobs)
	}
	if len(queue.blasts) != 1 || queue.blasts[0] != leadID {
		t.Fatalf("unexpected blasts: %+v", queue.blasts)
	}
}

func TestQueueFailureFallsBackToInline(t *testing.T) {
	m, sender := newTestModule("admin@example.com", testCompanies{})
	m.SetQueue(&testQueue{err: errors.New("redis down")})

	leadID := uuid.New()
	if err := m.Handle(context.Background(), events.LeadSubmitted{LeadID: leadID}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].kind != "new_lead" {
		t.Fatalf("unexpected emails: %+v", sender.sent)
	}
	if want := "https://app.example.com/admin/leads/" + leadID.String(); sender.sent[0].url != want {
		t.Fatalf("admin url = %q, want %q", sender.sent[0].url, want)
	}
}

func TestNewLeadSkippedWithoutAdminEmail(t *testing.T) {
	m, sender := newTestModule("", testCompanies{})
	if err := m.Dispatch(context.Background(), Job{Kind: KindLeadSubmitted, LeadID: uuid.New()}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no emails, got %+v", sender.sent)
	}
}

func TestOversoldAlertGoesToAdmin(t *testing.T) {
	companyID := uuid.New()
	m, sender := newTestModule("admin@example.com", testCompanies{byID: map[uuid.UUID]CompanyContact{
		companyID: {ID: companyID, Name: "Acme", Email: "acme@example.com"},
	}})

	if err := m.Dispatch(context.Background(), Job{Kind: KindLeadOversold, LeadID: uuid.New(), CompanyID: companyID, AmountCents: 8900}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].to != "admin@example.com" || sender.sent[0].amount != 8900 {
		t.Fatalf("unexpected emails: %+v", sender.sent)
	}
}

func TestDispatchUnknownKindFails(t *testing.T) {
	m, _ := newTestModule("", testCompanies{})
	if err := m.Dispatch(context.Background(), Job{Kind: "bogus"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestEmailBlastUsesCompanySpecificLinks(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	m, sender := newTestModule("", testCompanies{area: []CompanyContact{
		{ID: a, Name: "A", Email: "a@example.com"},
		{ID: b, Name: "B", Email: "b@example.com"},
		{ID: c, Name: "C"},
	}})
	sender.failTo["b@example.com"] = true

	sent, err := m.DispatchEmailBlast(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("DispatchEmailBlast: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
	urls := []string{}
	for _, e := range sender.sent {
		urls = append(urls, e.url)
	}
	sort.Strings(urls)
	if len(urls) != 1 || urls[0] != "https://buy.stripe.com/abc?client_reference_id="+a.String() {
		t.Fatalf("unexpected urls: %v", urls)
	}
}

func TestEmailBlastSkipsUnavailableLead(t *testing.T) {
	m, sender := newTestModule("", testCompanies{area: []CompanyContact{{ID: uuid.New(), Email: "a@example.com"}}})
	m.SetLeadReader(testLeads{info: LeadInfo{Available: false}})

	sent, err := m.DispatchEmailBlast(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("DispatchEmailBlast: %v", err)
	}
	if sent != 0 || len(sender.sent) != 0 {
		t.Fatalf("expected nothing sent, got %d %+v", sent, sender.sent)
	}
}
