package email

import (
	"context"

	"treeleads/platform/config"
)

// LeadSummary is the part of a lead that may be shown before purchase.
type LeadSummary struct {
	ID          string
	ServiceType string
	City        string
	State       string
	LeadType    string
	Urgency     string
	Description string
}

// LeadContact adds the homeowner's contact details, sent only to the company that owns the lead.
type LeadContact struct {
	LeadSummary
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       string
}

type Sender interface {
	SendNewLeadEmail(ctx context.Context, toEmail string, lead LeadContact, adminURL string) error
	SendLeadAssignedEmail(ctx context.Context, toEmail, companyName string, lead LeadContact, remainingCredits int) error
	SendLeadPurchasedEmail(ctx context.Context, toEmail, companyName string, lead LeadContact, amountCents int64) error
	SendOversoldAlertEmail(ctx context.Context, toEmail, companyName string, lead LeadSummary, amountCents int64, adminURL string) error
	SendLeadAvailableEmail(ctx context.Context, toEmail, companyName string, lead LeadSummary, priceCents int64, purchaseURL string) error
	SendCreditsGrantedEmail(ctx context.Context, toEmail, companyName string, amount, balance int) error
}

type NoopSender struct{}

func (NoopSender) SendNewLeadEmail(ctx context.Context, toEmail string, lead LeadContact, adminURL string) error {
	return nil
}

func (NoopSender) SendLeadAssignedEmail(ctx context.Context, toEmail, companyName string, lead LeadContact, remainingCredits int) error {
	return nil
}

func (NoopSender) SendLeadPurchasedEmail(ctx context.Context, toEmail, companyName string, lead LeadContact, amountCents int64) error {
	return nil
}

func (NoopSender) SendOversoldAlertEmail(ctx context.Context, toEmail, companyName string, lead LeadSummary, amountCents int64, adminURL string) error {
	return nil
}

func (NoopSender) SendLeadAvailableEmail(ctx context.Context, toEmail, companyName string, lead LeadSummary, priceCents int64, purchaseURL string) error {
	return nil
}

func (NoopSender) SendCreditsGrantedEmail(ctx context.Context, toEmail, companyName string, amount, balance int) error {
	return nil
}

// NewSender returns an SMTP sender, or a NoopSender when email is disabled.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
