package transport

import (
	"time"

	"github.com/google/uuid"
)

// SubmitLeadRequest is the public quote request form.
type SubmitLeadRequest struct {
	CustomerName     string   `json:"customerName" validate:"notblank,max=200"`
	CustomerEmail    string   `json:"customerEmail" validate:"required,email,max=254"`
	CustomerPhone    string   `json:"customerPhone" validate:"notblank,max=40"`
	Address          *string  `json:"address,omitempty" validate:"omitempty,max=300"`
	City             string   `json:"city" validate:"notblank,max=100"`
	State            string   `json:"state" validate:"notblank,max=50"`
	ZipCode          *string  `json:"zipCode,omitempty" validate:"omitempty,max=20"`
	ServiceType      string   `json:"serviceType" validate:"notblank,max=100"`
	Description      *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Urgency          *string  `json:"urgency,omitempty" validate:"omitempty,max=50"`
	PropertyType     *string  `json:"propertyType,omitempty" validate:"omitempty,max=50"`
	PreferredContact *string  `json:"preferredContact,omitempty" validate:"omitempty,oneof=phone email text"`
	ImageKeys        []string `json:"imageKeys,omitempty" validate:"omitempty,max=10,dive,notblank,max=500"`
}

// SubmitLeadResponse acknowledges a submission without echoing personal data.
type SubmitLeadResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// PresignImageRequest asks for a lead photo upload URL.
type PresignImageRequest struct {
	FileName    string `json:"fileName" validate:"notblank,max=200"`
	ContentType string `json:"contentType" validate:"required"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

// PresignedUploadResponse is a presigned upload target.
type PresignedUploadResponse struct {
	UploadURL string    `json:"uploadUrl"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ListLeadsRequest filters the admin lead list.
type ListLeadsRequest struct {
	Status   string `form:"status"`
	LeadType string `form:"leadType"`
	City     string `form:"city"`
	State    string `form:"state"`
	Archived *bool  `form:"archived"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// ListAvailableRequest filters the marketplace.
type ListAvailableRequest struct {
	City     string `form:"city"`
	State    string `form:"state"`
	LeadType string `form:"leadType"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// PageRequest pages through a list.
type PageRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// UpdateStatusRequest changes a lead's status.
type UpdateStatusRequest struct {
	Status          string  `json:"status" validate:"required,oneof=new assigned contacted converted lost pending_sale"`
	ExpectedVersion *int    `json:"expectedVersion,omitempty" validate:"omitempty,min=1"`
	Reason          *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// UpdateDetailsRequest edits contact and service fields.
type UpdateDetailsRequest struct {
	ExpectedVersion  *int    `json:"expectedVersion,omitempty" validate:"omitempty,min=1"`
	CustomerName     *string `json:"customerName,omitempty" validate:"omitempty,notblank,max=200"`
	CustomerEmail    *string `json:"customerEmail,omitempty" validate:"omitempty,email,max=254"`
	CustomerPhone    *string `json:"customerPhone,omitempty" validate:"omitempty,notblank,max=40"`
	Address          *string `json:"address,omitempty" validate:"omitempty,max=300"`
	City             *string `json:"city,omitempty" validate:"omitempty,notblank,max=100"`
	State            *string `json:"state,omitempty" validate:"omitempty,notblank,max=50"`
	ZipCode          *string `json:"zipCode,omitempty" validate:"omitempty,max=20"`
	ServiceType      *string `json:"serviceType,omitempty" validate:"omitempty,notblank,max=100"`
	Description      *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Urgency          *string `json:"urgency,omitempty" validate:"omitempty,max=50"`
	PropertyType     *string `json:"propertyType,omitempty" validate:"omitempty,max=50"`
	PreferredContact *string `json:"preferredContact,omitempty" validate:"omitempty,oneof=phone email text"`
}

// ListForSaleRequest prices a lead and creates its payment link.
// PriceCents and MaxShares fall back to the resolved pricing when omitted.
type ListForSaleRequest struct {
	LeadType        string `json:"leadType" validate:"notblank,max=50"`
	PriceCents      *int64 `json:"priceCents,omitempty" validate:"omitempty,min=50,max=10000000"`
	MaxShares       *int   `json:"maxShares,omitempty" validate:"omitempty,min=1,max=20"`
	ExpectedVersion *int   `json:"expectedVersion,omitempty" validate:"omitempty,min=1"`
}

// AssignRequest hands a lead to a company for one credit.
type AssignRequest struct {
	CompanyID       uuid.UUID `json:"companyId" validate:"required"`
	ExpectedVersion *int      `json:"expectedVersion,omitempty" validate:"omitempty,min=1"`
}

// VersionRequest carries an optional optimistic lock.
type VersionRequest struct {
	ExpectedVersion *int `json:"expectedVersion,omitempty" validate:"omitempty,min=1"`
}

// RecordPurchaseRequest records a purchase made outside the webhook, e.g. a manual payment.
type RecordPurchaseRequest struct {
	CompanyID   uuid.UUID `json:"companyId" validate:"required"`
	AmountCents int64     `json:"amountCents" validate:"min=0"`
	Notes       *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// LeadResponse is the full lead for admins and owning companies.
type LeadResponse struct {
	ID               uuid.UUID  `json:"id"`
	CustomerName     string     `json:"customerName"`
	CustomerEmail    string     `json:"customerEmail"`
	CustomerPhone    string     `json:"customerPhone"`
	Address          *string    `json:"address,omitempty"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	ZipCode          *string    `json:"zipCode,omitempty"`
	ServiceType      string     `json:"serviceType"`
	Description      *string    `json:"description,omitempty"`
	Urgency          *string    `json:"urgency,omitempty"`
	PropertyType     *string    `json:"propertyType,omitempty"`
	PreferredContact *string    `json:"preferredContact,omitempty"`
	Images           []ImageURL `json:"images"`
	Status           string     `json:"status"`
	IsArchived       bool       `json:"isArchived"`
	LeadType         *string    `json:"leadType,omitempty"`
	PriceCents       *int64     `json:"priceCents,omitempty"`
	PaymentLink      *string    `json:"paymentLink,omitempty"`
	MaxShares        int        `json:"maxShares"`
	CurrentShares    int        `json:"currentShares"`
	BusinessID       *uuid.UUID `json:"businessId,omitempty"`
	IsAvailable      bool       `json:"isAvailable"`
	ListedAt         *time.Time `json:"listedAt,omitempty"`
	ArchivedAt       *time.Time `json:"archivedAt,omitempty"`
	Version          int        `json:"version"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ImageURL is a presigned download link for a lead photo.
type ImageURL struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// LeadListResponse is a page of leads.
type LeadListResponse struct {
	Items    []LeadResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// MarketplaceLeadResponse is a lead as shown to buyers before purchase.
// Customer contact details are withheld.
type MarketplaceLeadResponse struct {
	ID           uuid.UUID  `json:"id"`
	City         string     `json:"city"`
	State        string     `json:"state"`
	ZipCode      *string    `json:"zipCode,omitempty"`
	ServiceType  string     `json:"serviceType"`
	Description  *string    `json:"description,omitempty"`
	Urgency      *string    `json:"urgency,omitempty"`
	PropertyType *string    `json:"propertyType,omitempty"`
	LeadType     string     `json:"leadType"`
	PriceCents   int64      `json:"priceCents"`
	SharesLeft   int        `json:"sharesLeft"`
	ImageCount   int        `json:"imageCount"`
	PurchaseURL  string     `json:"purchaseUrl"`
	ListedAt     *time.Time `json:"listedAt,omitempty"`
}

// MarketplaceListResponse is a page of available leads.
type MarketplaceListResponse struct {
	Items    []MarketplaceLeadResponse `json:"items"`
	Total    int                       `json:"total"`
	Page     int                       `json:"page"`
	PageSize int                       `json:"pageSize"`
}

// HistoryResponse is one status history row.
type HistoryResponse struct {
	ID         uuid.UUID  `json:"id"`
	FromStatus *string    `json:"fromStatus,omitempty"`
	ToStatus   string     `json:"toStatus"`
	Action     string     `json:"action"`
	ActorID    *uuid.UUID `json:"actorId,omitempty"`
	BusinessID *uuid.UUID `json:"businessId,omitempty"`
	Reason     *string    `json:"reason,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// PurchaseResponse is one recorded purchase.
type PurchaseResponse struct {
	ID              uuid.UUID `json:"id"`
	LeadID          uuid.UUID `json:"leadId"`
	BusinessID      uuid.UUID `json:"businessId"`
	AmountCents     int64     `json:"amountCents"`
	Status          string    `json:"status"`
	StripeSessionID *string   `json:"stripeSessionId,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AssignResponse is the result of a credit assignment.
type AssignResponse struct {
	Lead             LeadResponse `json:"lead"`
	RemainingCredits int          `json:"remainingCredits"`
}

// CheckoutResponse is a hosted checkout to redirect the buyer to.
type CheckoutResponse struct {
	SessionID string    `json:"sessionId"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ReturnStaleResponse reports how many stale sales were returned.
type ReturnStaleResponse struct {
	Returned int `json:"returned"`
}
