package adapters

import (
	"context"

	companiesrepo "treeleads/internal/companies/repository"
	"treeleads/internal/email"
	leadsdomain "treeleads/internal/leads/domain"
	"treeleads/internal/notification"

	"github.com/google/uuid"
)

// LeadRecordReader is the part of the leads service the notification reader needs.
type LeadRecordReader interface {
	GetRecord(ctx context.Context, id uuid.UUID) (leadsdomain.Lead, error)
}

// NotificationLeadReader exposes leads to the notification module.
type NotificationLeadReader struct {
	leads LeadRecordReader
}

// NewNotificationLeadReader creates a new notification lead reader adapter.
func NewNotificationLeadReader(leads LeadRecordReader) *NotificationLeadReader {
	return &NotificationLeadReader{leads: leads}
}

func (a *NotificationLeadReader) NotificationLead(ctx context.Context, id uuid.UUID) (notification.LeadInfo, error) {
	lead, err := a.leads.GetRecord(ctx, id)
	if err != nil {
		return notification.LeadInfo{}, err
	}
	info := notification.LeadInfo{
		Contact: email.LeadContact{
			LeadSummary: email.LeadSummary{
				ID:          lead.ID.String(),
				ServiceType: lead.ServiceType,
				City:        lead.City,
				State:       lead.State,
				LeadType:    lead.TypeName(),
				Urgency:     deref(lead.Urgency),
				Description: deref(lead.Description),
			},
			CustomerName:  lead.CustomerName,
			CustomerEmail: lead.CustomerEmail,
			CustomerPhone: lead.CustomerPhone,
			Address:       deref(lead.Address),
		},
		PaymentLink: deref(lead.PaymentLink),
		Available:   lead.IsAvailable(),
	}
	if lead.PriceCents != nil {
		info.PriceCents = *lead.PriceCents
	}
	return info, nil
}

// CompanyLookup is the part of the companies service the notification reader needs.
type CompanyLookup interface {
	GetRecord(ctx context.Context, id uuid.UUID) (companiesrepo.Company, error)
	ListActiveByArea(ctx context.Context, city, state string) ([]companiesrepo.Company, error)
}

// NotificationCompanyReader exposes company contacts to the notification module.
type NotificationCompanyReader struct {
	companies CompanyLookup
}

// NewNotificationCompanyReader creates a new notification company reader adapter.
func NewNotificationCompanyReader(companies CompanyLookup) *NotificationCompanyReader {
	return &NotificationCompanyReader{companies: companies}
}

func (a *NotificationCompanyReader) CompanyContact(ctx context.Context, id uuid.UUID) (notification.CompanyContact, error) {
	c, err := a.companies.GetRecord(ctx, id)
	if err != nil {
		return notification.CompanyContact{}, err
	}
	return toCompanyContact(c), nil
}

func (a *NotificationCompanyReader) ActiveCompaniesInArea(ctx context.Context, city, state string) ([]notification.CompanyContact, error) {
	companies, err := a.companies.ListActiveByArea(ctx, city, state)
	if err != nil {
		return nil, err
	}
	out := make([]notification.CompanyContact, 0, len(companies))
	for _, c := range companies {
		out = append(out, toCompanyContact(c))
	}
	return out, nil
}

func toCompanyContact(c companiesrepo.Company) notification.CompanyContact {
	return notification.CompanyContact{
		ID:     c.ID,
		Name:   c.Name,
		Email:  deref(c.Email),
		Active: c.IsActive,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var (
	_ notification.LeadReader    = (*NotificationLeadReader)(nil)
	_ notification.CompanyReader = (*NotificationCompanyReader)(nil)
)
