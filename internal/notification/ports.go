package notification

import (
	"context"

	"treeleads/internal/email"

	"github.com/google/uuid"
)

// LeadInfo is the lead data a notification needs.
type LeadInfo struct {
	Contact     email.LeadContact
	PriceCents  int64
	PaymentLink string
	Available   bool
}

// CompanyContact is where a company receives email.
type CompanyContact struct {
	ID     uuid.UUID
	Name   string
	Email  string
	Active bool
}

// LeadReader loads leads for notifications.
type LeadReader interface {
	NotificationLead(ctx context.Context, id uuid.UUID) (LeadInfo, error)
}

// CompanyReader loads company contacts.
type CompanyReader interface {
	CompanyContact(ctx context.Context, id uuid.UUID) (CompanyContact, error)
	ActiveCompaniesInArea(ctx context.Context, city, state string) ([]CompanyContact, error)
}

// PurchaseLinker builds the company-specific purchase URL for a payment link.
type PurchaseLinker interface {
	PurchaseURL(linkURL string, companyID uuid.UUID) string
}

// Queue hands jobs to the background worker.
type Queue interface {
	EnqueueNotification(ctx context.Context, job Job) error
	EnqueueEmailBlast(ctx context.Context, leadID uuid.UUID) error
}
