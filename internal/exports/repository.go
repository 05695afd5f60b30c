package exports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PurchaseRow is one lead purchase joined with its lead and buyer.
type PurchaseRow struct {
	PurchaseID      uuid.UUID
	LeadID          uuid.UUID
	CompanyID       uuid.UUID
	CompanyName     string
	City            string
	State           string
	ServiceType     string
	LeadType        *string
	AmountCents     int64
	Status          string
	StripeSessionID *string
	CreatedAt       time.Time
}

// PurchaseFilter narrows the export.
type PurchaseFilter struct {
	From   time.Time
	To     time.Time
	Status string
	Limit  int
}

// Repository provides data access for export operations.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPurchases returns purchases created in [From, To], oldest first.
func (r *Repository) ListPurchases(ctx context.Context, f PurchaseFilter) ([]PurchaseRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.lead_id, p.business_id, c.name, q.city, q.state, q.service_type, q.lead_type,
		       p.amount_cents, p.status, p.stripe_session_id, p.created_at
		FROM lead_purchases p
		JOIN quote_requests q ON q.id = p.lead_id
		JOIN tree_service_companies c ON c.id = p.business_id
		WHERE p.created_at BETWEEN $1 AND $2
		  AND ($3::text IS NULL OR p.status = $3)
		ORDER BY p.created_at ASC
		LIMIT $4`,
		f.From, f.To, nullIfEmpty(f.Status), f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PurchaseRow
	for rows.Next() {
		var p PurchaseRow
		if err := rows.Scan(&p.PurchaseID, &p.LeadID, &p.CompanyID, &p.CompanyName, &p.City, &p.State,
			&p.ServiceType, &p.LeadType, &p.AmountCents, &p.Status, &p.StripeSessionID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
