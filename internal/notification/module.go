// Package notification sends email in response to domain events.
// Domain modules publish events and never talk to the mail provider directly.
// With a Queue attached, work is handed to the asynq worker, which retries failures;
// without one it runs inline and failures are only logged.
package notification

import (
	"context"
	"fmt"
	"strings"

	"treeleads/internal/email"
	"treeleads/internal/events"
	"treeleads/platform/config"
	"treeleads/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const blastConcurrency = 5

// Module handles all notification-related event subscriptions.
type Module struct {
	sender    email.Sender
	cfg       config.NotificationConfig
	log       *logger.Logger
	leads     LeadReader
	companies CompanyReader
	links     PurchaseLinker
	queue     Queue
}

// New creates a new notification module.
func New(sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{sender: sender, cfg: cfg, log: log}
}

func (m *Module) Name() string { return "notification" }

func (m *Module) SetLeadReader(r LeadReader)         { m.leads = r }
func (m *Module) SetCompanyReader(r CompanyReader)   { m.companies = r }
func (m *Module) SetPurchaseLinker(l PurchaseLinker) { m.links = l }

// SetQueue routes notifications through the background worker.
func (m *Module) SetQueue(q Queue) { m.queue = q }

// RegisterHandlers subscribes the module to the events it notifies about.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadSubmitted{}.EventName(), m)
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.LeadPurchased{}.EventName(), m)
	bus.Subscribe(events.LeadEmailBlastRequested{}.EventName(), m)
	bus.Subscribe(events.CreditsGranted{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate job.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadSubmitted:
		return m.submit(ctx, Job{Kind: KindLeadSubmitted, LeadID: e.LeadID})
	case events.LeadAssigned:
		return m.submit(ctx, Job{Kind: KindLeadAssigned, LeadID: e.LeadID, CompanyID: e.CompanyID, RemainingCredits: e.RemainingCredits})
	case events.LeadPurchased:
		kind := KindLeadPurchased
		if e.Oversold {
			kind = KindLeadOversold
		}
		return m.submit(ctx, Job{Kind: kind, LeadID: e.LeadID, CompanyID: e.CompanyID, AmountCents: e.AmountCents})
	case events.CreditsGranted:
		return m.submit(ctx, Job{Kind: KindCreditsGranted, CompanyID: e.CompanyID, Credits: e.Amount, Balance: e.Balance})
	case events.LeadEmailBlastRequested:
		return m.submitBlast(ctx, e.LeadID)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) submit(ctx context.Context, job Job) error {
	if m.queue != nil {
		err := m.queue.EnqueueNotification(ctx, job)
		if err == nil {
			m.log.Debug("notification enqueued", "kind", job.Kind, "leadId", job.LeadID)
			return nil
		}
		m.log.Warn("notification enqueue failed, sending inline", "kind", job.Kind, "error", err)
	}
	if err := m.Dispatch(ctx, job); err != nil {
		m.log.Error("notification failed", "kind", job.Kind, "leadId", job.LeadID, "companyId", job.CompanyID, "error", err)
	}
	return nil
}

func (m *Module) submitBlast(ctx context.Context, leadID uuid.UUID) error {
	if m.queue != nil {
		err := m.queue.EnqueueEmailBlast(ctx, leadID)
		if err == nil {
			m.log.Info("email blast enqueued", "leadId", leadID)
			return nil
		}
		m.log.Warn("email blast enqueue failed, sending inline", "leadId", leadID, "error", err)
	}
	if _, err := m.DispatchEmailBlast(ctx, leadID); err != nil {
		m.log.Error("email blast failed", "leadId", leadID, "error", err)
	}
	return nil
}

// Dispatch sends the email described by job. Errors are returned so the worker can retry.
func (m *Module) Dispatch(ctx context.Context, job Job) error {
	switch job.Kind {
	case KindLeadSubmitted:
		return m.sendNewLead(ctx, job)
	case KindLeadAssigned:
		return m.sendLeadDelivered(ctx, job, true)
	case KindLeadPurchased:
		return m.sendLeadDelivered(ctx, job, false)
	case KindLeadOversold:
		return m.sendOversold(ctx, job)
	case KindCreditsGranted:
		return m.sendCreditsGranted(ctx, job)
	default:
		return fmt.Errorf("unknown notification kind %q", job.Kind)
	}
}

func (m *Module) sendNewLead(ctx context.Context, job Job) error {
	to := strings.TrimSpace(m.cfg.GetAdminNotificationEmail())
	if to == "" {
		m.log.Debug("admin notification email not configured, skipping", "leadId", job.LeadID)
		return nil
	}
	lead, err := m.lead(ctx, job.LeadID)
	if err != nil {
		return err
	}
	return m.sender.SendNewLeadEmail(ctx, to, lead.Contact, m.adminLeadURL(job.LeadID))
}

func (m *Module) sendLeadDelivered(ctx context.Context, job Job, viaCredit bool) error {
	company, err := m.company(ctx, job.CompanyID)
	if err != nil {
		return err
	}
	if company.Email == "" {
		m.log.Warn("company has no email address, lead notification skipped", "companyId", job.CompanyID, "leadId", job.LeadID)
		return nil
	}
	lead, err := m.lead(ctx, job.LeadID)
	if err != nil {
		return err
	}
	if viaCredit {
		err = m.sender.SendLeadAssignedEmail(ctx, company.Email, company.Name, lead.Contact, job.RemainingCredits)
	} else {
		err = m.sender.SendLeadPurchasedEmail(ctx, company.Email, company.Name, lead.Contact, job.AmountCents)
	}
	if err != nil {
		return err
	}
	m.log.Info("lead delivery email sent", "kind", job.Kind, "leadId", job.LeadID, "companyId", job.CompanyID)
	return nil
}

func (m *Module) sendOversold(ctx context.Context, job Job) error {
	to := strings.TrimSpace(m.cfg.GetAdminNotificationEmail())
	if to == "" {
		m.log.Warn("oversold lead purchase needs a refund but no admin email is configured",
			"leadId", job.LeadID, "companyId", job.CompanyID, "amountCents", job.AmountCents)
		return nil
	}
	lead, err := m.lead(ctx, job.LeadID)
	if err != nil {
		return err
	}
	companyName := job.CompanyID.String()
	if company, err := m.company(ctx, job.CompanyID); err == nil && company.Name != "" {
		companyName = company.Name
	}
	return m.sender.SendOversoldAlertEmail(ctx, to, companyName, lead.Contact.LeadSummary, job.AmountCents, m.adminLeadURL(job.LeadID))
}

func (m *Module) sendCreditsGranted(ctx context.Context, job Job) error {
	company, err := m.company(ctx, job.CompanyID)
	if err != nil {
		return err
	}
	if company.Email == "" {
		return nil
	}
	return m.sender.SendCreditsGrantedEmail(ctx, company.Email, company.Name, job.Credits, job.Balance)
}

// DispatchEmailBlast mails every active company in the lead's area a company-specific purchase link.
// Per-company failures are logged and do not fail the blast, so a retry never mails the same list twice.
// It returns the number of emails sent.
func (m *Module) DispatchEmailBlast(ctx context.Context, leadID uuid.UUID) (int, error) {
	if m.companies == nil {
		return 0, fmt.Errorf("company reader not configured")
	}
	lead, err := m.lead(ctx, leadID)
	if err != nil {
		return 0, err
	}
	if !lead.Available || lead.PaymentLink == "" {
		m.log.Info("lead no longer available, email blast skipped", "leadId", leadID)
		return 0, nil
	}

	recipients, err := m.companies.ActiveCompaniesInArea(ctx, lead.Contact.City, lead.Contact.State)
	if err != nil {
		return 0, err
	}

	sent := make([]bool, len(recipients))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blastConcurrency)
	for i, company := range recipients {
		if company.Email == "" {
			continue
		}
		g.Go(func() error {
			url := lead.PaymentLink
			if m.links != nil {
				url = m.links.PurchaseURL(lead.PaymentLink, company.ID)
			}
			if err := m.sender.SendLeadAvailableEmail(gctx, company.Email, company.Name, lead.Contact.LeadSummary, lead.PriceCents, url); err != nil {
				m.log.Warn("email blast delivery failed", "leadId", leadID, "companyId", company.ID, "error", err)
				return nil
			}
			sent[i] = true
			return nil
		})
	}
	_ = g.Wait()

	count := 0
	for _, ok := range sent {
		if ok {
			count++
		}
	}
	m.log.Info("email blast sent", "leadId", leadID, "recipients", len(recipients), "sent", count)
	return count, nil
}

func (m *Module) lead(ctx context.Context, id uuid.UUID) (LeadInfo, error) {
	if m.leads == nil {
		return LeadInfo{}, fmt.Errorf("lead reader not configured")
	}
	return m.leads.NotificationLead(ctx, id)
}

func (m *Module) company(ctx context.Context, id uuid.UUID) (CompanyContact, error) {
	if m.companies == nil {
		return CompanyContact{}, fmt.Errorf("company reader not configured")
	}
	return m.companies.CompanyContact(ctx, id)
}

func (m *Module) adminLeadURL(leadID uuid.UUID) string {
	return strings.TrimRight(m.cfg.GetAppBaseURL(), "/") + "/admin/leads/" + leadID.String()
}
