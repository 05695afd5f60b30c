// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"treeleads/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadSubmitted is published when a homeowner submits a quote request.
type LeadSubmitted struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerPhone string    `json:"customerPhone"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	ServiceType   string    `json:"serviceType"`
	Urgency       string    `json:"urgency,omitempty"`
}

func (e LeadSubmitted) EventName() string { return "leads.submitted" }

// LeadListedForSale is published once a lead has a price and a payment link.
type LeadListedForSale struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	LeadType    string    `json:"leadType"`
	PriceCents  int64     `json:"priceCents"`
	PaymentLink string    `json:"paymentLink"`
	MaxShares   int       `json:"maxShares"`
	City        string    `json:"city"`
	State       string    `json:"state"`
}

func (e LeadListedForSale) EventName() string { return "leads.listed_for_sale" }

// LeadReturned is published when a pending sale goes back to the available pool.
type LeadReturned struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	PaymentLinkID string    `json:"paymentLinkId,omitempty"`
	Reason        string    `json:"reason"`
}

func (e LeadReturned) EventName() string { return "leads.returned" }

// LeadAssigned is published when a company receives a lead by spending a credit.
type LeadAssigned struct {
	BaseEvent
	LeadID           uuid.UUID `json:"leadId"`
	CompanyID        uuid.UUID `json:"companyId"`
	RemainingCredits int       `json:"remainingCredits"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// LeadPurchased is published after a checkout completes and the purchase is recorded.
type LeadPurchased struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	CompanyID   uuid.UUID `json:"companyId"`
	PurchaseID  uuid.UUID `json:"purchaseId"`
	AmountCents int64     `json:"amountCents"`
	LeadType    string    `json:"leadType"`
	Closed      bool      `json:"closed"`
	Oversold    bool      `json:"oversold"`
}

func (e LeadPurchased) EventName() string { return "leads.purchased" }

// LeadStatusChanged is published for manual status updates.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ActorID   uuid.UUID `json:"actorId"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status_changed" }

// LeadEmailBlastRequested asks the notification module to mail companies in the lead's area.
type LeadEmailBlastRequested struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	City   string    `json:"city"`
	State  string    `json:"state"`
}

func (e LeadEmailBlastRequested) EventName() string { return "leads.email_blast_requested" }

// =============================================================================
// Credits Domain Events
// =============================================================================

// CreditsGranted is published when an admin adds credits to a company balance.
type CreditsGranted struct {
	BaseEvent
	CompanyID uuid.UUID `json:"companyId"`
	Amount    int       `json:"amount"`
	Balance   int       `json:"balance"`
	Reason    string    `json:"reason"`
}

func (e CreditsGranted) EventName() string { return "credits.granted" }
