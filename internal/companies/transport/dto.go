package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateCompanyRequest contains data for creating a company.
type CreateCompanyRequest struct {
	Name    string  `json:"name" validate:"notblank,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Website *string `json:"website,omitempty" validate:"omitempty,url,max=300"`
	City    string  `json:"city" validate:"notblank,max=100"`
	State   string  `json:"state" validate:"notblank,max=50"`
}

// UpdateCompanyRequest contains data for updating a company.
type UpdateCompanyRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Website  *string `json:"website,omitempty" validate:"omitempty,url,max=300"`
	City     *string `json:"city,omitempty" validate:"omitempty,notblank,max=100"`
	State    *string `json:"state,omitempty" validate:"omitempty,notblank,max=50"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// ListCompaniesRequest filters the admin company list.
type ListCompaniesRequest struct {
	Search   string `form:"search"`
	City     string `form:"city"`
	State    string `form:"state"`
	IsActive *bool  `form:"isActive"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// PresignLogoRequest asks for a logo upload URL.
type PresignLogoRequest struct {
	FileName    string `json:"fileName" validate:"notblank,max=200"`
	ContentType string `json:"contentType" validate:"required"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

// SetLogoRequest stores the key of an uploaded logo.
type SetLogoRequest struct {
	FileKey string `json:"fileKey" validate:"notblank,max=500"`
}

// PresignedUploadResponse is a presigned upload target.
type PresignedUploadResponse struct {
	UploadURL string    `json:"uploadUrl"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CompanyResponse represents a company in API responses.
type CompanyResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Website   *string   `json:"website,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	LogoURL   *string   `json:"logoUrl,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CompanyListResponse wraps a page of companies.
type CompanyListResponse struct {
	Items    []CompanyResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}
