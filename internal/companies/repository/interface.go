package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Company is a tree service company that can buy or be assigned leads.
type Company struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	Website   *string
	City      string
	State     string
	LogoKey   *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateParams contains parameters for creating a company.
type CreateParams struct {
	Name    string
	Email   *string
	Phone   *string
	Website *string
	City    string
	State   string
}

// UpdateParams contains parameters for updating a company. Nil fields are left unchanged.
type UpdateParams struct {
	ID       uuid.UUID
	Name     *string
	Email    *string
	Phone    *string
	Website  *string
	City     *string
	State    *string
	LogoKey  *string
	IsActive *bool
}

// ListParams filters and pages the admin company list.
type ListParams struct {
	Search   string
	City     string
	State    string
	IsActive *bool
	Offset   int
	Limit    int
}

// Repository is the companies persistence contract.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Company, error)
	List(ctx context.Context, params ListParams) ([]Company, int, error)
	ListActiveByArea(ctx context.Context, city, state string) ([]Company, error)
	Create(ctx context.Context, params CreateParams) (Company, error)
	Update(ctx context.Context, params UpdateParams) (Company, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
