package transport

import (
	"time"

	"github.com/google/uuid"
)

// GrantCreditsRequest adds credits to a company.
type GrantCreditsRequest struct {
	Amount int    `json:"amount" validate:"required,min=1,max=1000"`
	Reason string `json:"reason" validate:"omitempty,max=200"`
}

// LedgerRequest pages through the credit ledger.
type LedgerRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// BalanceResponse is a company's credit balance.
type BalanceResponse struct {
	CompanyID uuid.UUID `json:"companyId"`
	Balance   int       `json:"balance"`
}

// TransactionResponse is one ledger row.
type TransactionResponse struct {
	ID        uuid.UUID  `json:"id"`
	Delta     int        `json:"delta"`
	Reason    string     `json:"reason"`
	LeadID    *uuid.UUID `json:"leadId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// LedgerResponse is a page of ledger rows.
type LedgerResponse struct {
	Items    []TransactionResponse `json:"items"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"pageSize"`
}
