// Package repository persists leads, their status history and purchases.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"treeleads/internal/leads/domain"
	"treeleads/platform/db"
)

// CreateParams contains the fields of a new lead.
type CreateParams struct {
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	Address          *string
	City             string
	State            string
	ZipCode          *string
	ServiceType      string
	Description      *string
	Urgency          *string
	PropertyType     *string
	PreferredContact *string
	ImageKeys        []string
}

// UpdateDetailsParams applies the non-nil contact and service fields.
type UpdateDetailsParams struct {
	ID               uuid.UUID
	ExpectedVersion  *int
	CustomerName     *string
	CustomerEmail    *string
	CustomerPhone    *string
	Address          *string
	City             *string
	State            *string
	ZipCode          *string
	ServiceType      *string
	Description      *string
	Urgency          *string
	PropertyType     *string
	PreferredContact *string
}

// ListParams filters the admin lead list.
type ListParams struct {
	Status   *domain.Status
	LeadType string
	City     string
	State    string
	Archived *bool
	Search   string
	Limit    int
	Offset   int
}

// AvailableParams filters the marketplace listing.
type AvailableParams struct {
	CompanyID *uuid.UUID
	City      string
	State     string
	LeadType  string
	Limit     int
	Offset    int
}

// MutateFunc receives the locked lead and returns its next state plus an optional history row.
// Returning an error rolls the transaction back. tx may be used for writes that must commit
// together with the lead.
type MutateFunc func(ctx context.Context, tx db.DBTX, current domain.Lead) (domain.Lead, *domain.HistoryEntry, error)

// Repository is the leads persistence contract.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (domain.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	FindByPaymentLinkID(ctx context.Context, linkID string) (domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, int, error)
	ListAvailable(ctx context.Context, params AvailableParams) ([]domain.Lead, int, error)
	ListForCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]domain.Lead, int, error)
	ListStalePendingSales(ctx context.Context, cutoff time.Time, limit int) ([]domain.Lead, error)
	UpdateDetails(ctx context.Context, params UpdateDetailsParams) (domain.Lead, error)
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (domain.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error

	History(ctx context.Context, leadID uuid.UUID) ([]domain.HistoryEntry, error)

	InsertPurchase(ctx context.Context, q db.DBTX, p domain.Purchase) (domain.Purchase, error)
	HasCompletedPurchase(ctx context.Context, q db.DBTX, leadID, companyID uuid.UUID) (bool, error)
	PurchaseBySession(ctx context.Context, sessionID string) (domain.Purchase, error)
	Purchases(ctx context.Context, leadID uuid.UUID) ([]domain.Purchase, error)
}
