package notification

import "github.com/google/uuid"

// Kind names a single-recipient notification.
type Kind string

const (
	KindLeadSubmitted  Kind = "lead_submitted"
	KindLeadAssigned   Kind = "lead_assigned"
	KindLeadPurchased  Kind = "lead_purchased"
	KindLeadOversold   Kind = "lead_oversold"
	KindCreditsGranted Kind = "credits_granted"
)

// Job is the serialisable unit of notification work. Only the fields the kind uses are set.
type Job struct {
	Kind             Kind      `json:"kind"`
	LeadID           uuid.UUID `json:"leadId,omitempty"`
	CompanyID        uuid.UUID `json:"companyId,omitempty"`
	AmountCents      int64     `json:"amountCents,omitempty"`
	RemainingCredits int       `json:"remainingCredits,omitempty"`
	Credits          int       `json:"credits,omitempty"`
	Balance          int       `json:"balance,omitempty"`
}
