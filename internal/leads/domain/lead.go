package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead types known to the marketplace. Custom types may exist in the pricing tables.
const (
	LeadTypeShared    = "shared"
	LeadTypeExclusive = "exclusive"
	LeadTypeEmergency = "emergency"
)

// Lead is a homeowner's quote request.
type Lead struct {
	ID               uuid.UUID
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
	Status           Status
	IsArchived       bool
	LeadType         *string
	PriceCents       *int64
	PaymentLink      *string
	PaymentLinkID    *string
	MaxShares        int
	CurrentShares    int
	BusinessID       *uuid.UUID
	ListedAt         *time.Time
	ArchivedAt       *time.Time
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsSingleBuyer reports whether a lead type may only be sold once.
func IsSingleBuyer(leadType string) bool {
	switch strings.ToLower(strings.TrimSpace(leadType)) {
	case LeadTypeExclusive, LeadTypeEmergency:
		return true
	}
	return false
}

// TypeName returns the lead type or an empty string.
func (l Lead) TypeName() string {
	if l.LeadType == nil {
		return ""
	}
	return *l.LeadType
}

// IsShared reports whether the lead is sold to several companies.
func (l Lead) IsShared() bool {
	return l.LeadType != nil && !IsSingleBuyer(*l.LeadType)
}

// SharesLeft returns how many more purchases the lead accepts.
func (l Lead) SharesLeft() int {
	if !l.IsShared() {
		if l.CurrentShares > 0 {
			return 0
		}
		return 1
	}
	if left := l.MaxShares - l.CurrentShares; left > 0 {
		return left
	}
	return 0
}

// IsAvailable reports whether companies can buy the lead right now.
func (l Lead) IsAvailable() bool {
	if l.IsArchived || l.Status != StatusPendingSale || l.BusinessID != nil {
		return false
	}
	if l.PaymentLink == nil || *l.PaymentLink == "" {
		return false
	}
	return l.SharesLeft() > 0
}

// ClearSale removes all sale fields, returning the lead to the unpriced pool.
func (l *Lead) ClearSale() {
	l.LeadType = nil
	l.PriceCents = nil
	l.PaymentLink = nil
	l.PaymentLinkID = nil
	l.ListedAt = nil
	l.MaxShares = 1
	l.CurrentShares = 0
}

// Archive hides the lead from every listing.
func (l *Lead) Archive(now time.Time) {
	l.IsArchived = true
	l.ArchivedAt = &now
}

// HistoryEntry is one row of a lead's status history.
type HistoryEntry struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	FromStatus *Status
	ToStatus   Status
	Action     string
	ActorID    *uuid.UUID
	BusinessID *uuid.UUID
	Reason     *string
	CreatedAt  time.Time
}

// History actions.
const (
	ActionSubmitted      = "submitted"
	ActionStatusUpdate   = "status_update"
	ActionListedForSale  = "listed_for_sale"
	ActionReturned       = "returned_to_available"
	ActionArchived       = "archived"
	ActionUnarchived     = "unarchived"
	ActionCreditAssigned = "credit_assigned"
	ActionPurchased      = "purchased"
	ActionPurchaseRefund = "purchase_refund_required"
)

// Purchase statuses.
const (
	PurchaseCompleted      = "completed"
	PurchaseRefundRequired = "refund_required"
)

// Purchase is a company buying a lead through checkout.
type Purchase struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	BusinessID      uuid.UUID
	AmountCents     int64
	Status          string
	StripeSessionID *string
	Notes           *string
	CreatedAt       time.Time
}
