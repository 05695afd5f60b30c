package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"treeleads/internal/leads/domain"
	"treeleads/platform/apperr"
	"treeleads/platform/db"
)

const (
	leadNotFoundMessage     = "lead not found"
	purchaseNotFoundMessage = "purchase not found"
	msgLeadHasPurchases     = "lead has recorded purchases and cannot be deleted; archive it instead"

	leadColumns = `q.id, q.customer_name, q.customer_email, q.customer_phone, q.address, q.city, q.state, q.zip_code,
		q.service_type, q.description, q.urgency, q.property_type, q.preferred_contact, q.image_keys,
		q.lead_status, q.is_archived, q.lead_type, q.price_cents, q.payment_link, q.payment_link_id,
		q.max_shares, q.current_shares, q.business_id, q.listed_at, q.archived_at, q.version, q.created_at, q.updated_at`

	purchaseColumns = `id, lead_id, business_id, amount_cents, status, stripe_session_id, notes, created_at`
)

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Create inserts a lead with status new and its first history row.
func (r *Repo) Create(ctx context.Context, params CreateParams) (domain.Lead, error) {
	imageKeys := params.ImageKeys
	if imageKeys == nil {
		imageKeys = []string{}
	}

	var lead domain.Lead
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		lead, err = scanLead(tx.QueryRow(ctx, `
			INSERT INTO quote_requests AS q (
				customer_name, customer_email, customer_phone, address, city, state, zip_code,
				service_type, description, urgency, property_type, preferred_contact, image_keys
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING `+leadColumns,
			params.CustomerName, params.CustomerEmail, params.CustomerPhone, params.Address, params.City, params.State,
			params.ZipCode, params.ServiceType, params.Description, params.Urgency, params.PropertyType,
			params.PreferredContact, imageKeys))
		if err != nil {
			return err
		}
		return insertHistory(ctx, tx, domain.HistoryEntry{
			LeadID:   lead.ID,
			ToStatus: domain.StatusNew,
			Action:   domain.ActionSubmitted,
		})
	})
	if err != nil {
		return domain.Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return lead, nil
}

// GetByID retrieves a lead.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM quote_requests q WHERE q.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// FindByPaymentLinkID retrieves the lead a payment link was created for.
func (r *Repo) FindByPaymentLinkID(ctx context.Context, linkID string) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM quote_requests q WHERE q.payment_link_id = $1`, linkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return domain.Lead{}, fmt.Errorf("get lead by payment link: %w", err)
	}
	return lead, nil
}

// List retrieves leads for the admin dashboard, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	var statusParam, typeParam, cityParam, stateParam, searchParam interface{}
	if params.Status != nil {
		statusParam = string(*params.Status)
	}
	if params.LeadType != "" {
		typeParam = params.LeadType
	}
	if params.City != "" {
		cityParam = params.City
	}
	if params.State != "" {
		stateParam = params.State
	}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}

	where := `
		WHERE ($1::text IS NULL OR q.lead_status = $1)
			AND ($2::text IS NULL OR lower(q.lead_type) = lower($2))
			AND ($3::text IS NULL OR lower(q.city) = lower($3))
			AND ($4::text IS NULL OR lower(q.state) = lower($4))
			AND ($5::boolean IS NULL OR q.is_archived = $5)
			AND ($6::text IS NULL OR q.customer_name ILIKE $6 OR q.customer_email ILIKE $6
				OR q.customer_phone ILIKE $6 OR q.service_type ILIKE $6)`
	args := []interface{}{statusParam, typeParam, cityParam, stateParam, params.Archived, searchParam}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quote_requests q`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM quote_requests q`+where+`
		ORDER BY q.created_at DESC
		LIMIT $7 OFFSET $8`, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAvailable returns leads that can be bought now. When a company is given,
// leads it already bought are excluded.
func (r *Repo) ListAvailable(ctx context.Context, params AvailableParams) ([]domain.Lead, int, error) {
	var cityParam, stateParam, typeParam interface{}
	if params.City != "" {
		cityParam = params.City
	}
	if params.State != "" {
		stateParam = params.State
	}
	if params.LeadType != "" {
		typeParam = params.LeadType
	}

	where := `
		WHERE q.lead_status = 'pending_sale'
			AND NOT q.is_archived
			AND q.business_id IS NULL
			AND q.payment_link IS NOT NULL
			AND q.current_shares < q.max_shares
			AND ($1::uuid IS NULL OR NOT EXISTS (
				SELECT 1 FROM lead_purchases p
				WHERE p.lead_id = q.id AND p.business_id = $1 AND p.status = 'completed'))
			AND ($2::text IS NULL OR lower(q.city) = lower($2))
			AND ($3::text IS NULL OR lower(q.state) = lower($3))
			AND ($4::text IS NULL OR lower(q.lead_type) = lower($4))`
	args := []interface{}{params.CompanyID, cityParam, stateParam, typeParam}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quote_requests q`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count available leads: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM quote_requests q`+where+`
		ORDER BY q.listed_at DESC NULLS LAST
		LIMIT $5 OFFSET $6`, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list available leads: %w", err)
	}
	defer rows.Close()

	items, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListForCompany returns leads a company received by credit or bought.
func (r *Repo) ListForCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]domain.Lead, int, error) {
	where := `
		WHERE q.business_id = $1
			OR EXISTS (
				SELECT 1 FROM lead_purchases p
				WHERE p.lead_id = q.id AND p.business_id = $1 AND p.status = 'completed')`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quote_requests q`+where, companyID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count company leads: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM quote_requests q`+where+`
		ORDER BY q.updated_at DESC
		LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list company leads: %w", err)
	}
	defer rows.Close()

	items, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListStalePendingSales returns unsold pending sales listed before cutoff.
func (r *Repo) ListStalePendingSales(ctx context.Context, cutoff time.Time, limit int) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM quote_requests q
		WHERE q.lead_status = 'pending_sale'
			AND NOT q.is_archived
			AND q.current_shares = 0
			AND q.listed_at < $1
		ORDER BY q.listed_at ASC
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending sales: %w", err)
	}
	defer rows.Close()
	return scanLeads(rows)
}

// UpdateDetails applies contact and service field changes. A stale ExpectedVersion yields a conflict.
func (r *Repo) UpdateDetails(ctx context.Context, params UpdateDetailsParams) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE quote_requests AS q SET
			customer_name = COALESCE($3, customer_name),
			customer_email = COALESCE($4, customer_email),
			customer_phone = COALESCE($5, customer_phone),
			address = COALESCE($6, address),
			city = COALESCE($7, city),
			state = COALESCE($8, state),
			zip_code = COALESCE($9, zip_code),
			service_type = COALESCE($10, service_type),
			description = COALESCE($11, description),
			urgency = COALESCE($12, urgency),
			property_type = COALESCE($13, property_type),
			preferred_contact = COALESCE($14, preferred_contact),
			version = version + 1,
			updated_at = now()
		WHERE id = $1 AND ($2::int IS NULL OR version = $2)
		RETURNING `+leadColumns,
		params.ID, params.ExpectedVersion, params.CustomerName, params.CustomerEmail, params.CustomerPhone,
		params.Address, params.City, params.State, params.ZipCode, params.ServiceType, params.Description,
		params.Urgency, params.PropertyType, params.PreferredContact))
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, fmt.Errorf("update lead details: %w", err)
	}
	if _, getErr := r.GetByID(ctx, params.ID); getErr != nil {
		return domain.Lead{}, getErr
	}
	return domain.Lead{}, apperr.Conflict("lead was modified by someone else")
}

// Mutate locks the lead row, applies fn and writes the result with the history row in one transaction.
func (r *Repo) Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (domain.Lead, error) {
	var updated domain.Lead
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanLead(tx.QueryRow(ctx, `SELECT `+leadColumns+` FROM quote_requests q WHERE q.id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound(leadNotFoundMessage)
			}
			return fmt.Errorf("lock lead: %w", err)
		}

		next, history, err := fn(ctx, tx, current)
		if err != nil {
			return err
		}

		updated, err = scanLead(tx.QueryRow(ctx, `
			UPDATE quote_requests AS q SET
				lead_status = $2,
				is_archived = $3,
				lead_type = $4,
				price_cents = $5,
				payment_link = $6,
				payment_link_id = $7,
				max_shares = $8,
				current_shares = $9,
				business_id = $10,
				listed_at = $11,
				archived_at = $12,
				version = version + 1,
				updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			id, string(next.Status), next.IsArchived, next.LeadType, next.PriceCents, next.PaymentLink,
			next.PaymentLinkID, next.MaxShares, next.CurrentShares, next.BusinessID, next.ListedAt, next.ArchivedAt))
		if err != nil {
			if db.IsCheckViolation(err) {
				return apperr.Conflict("lead share limit reached")
			}
			if db.IsUniqueViolation(err) {
				return apperr.Conflict("payment link is already used by another lead")
			}
			return fmt.Errorf("update lead: %w", err)
		}

		if history != nil {
			history.LeadID = id
			if err := insertHistory(ctx, tx, *history); err != nil {
				return fmt.Errorf("record lead history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Lead{}, err
	}
	return updated, nil
}

// Delete removes a lead together with its history. Purchase rows restrict the delete.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM quote_requests WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Conflict(msgLeadHasPurchases)
		}
		return fmt.Errorf("delete lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}
	return nil
}

// History returns a lead's status history, oldest first.
func (r *Repo) History(ctx context.Context, leadID uuid.UUID) ([]domain.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, from_status, to_status, action, actor_id, business_id, reason, created_at
		FROM lead_status_history
		WHERE lead_id = $1
		ORDER BY created_at ASC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list lead history: %w", err)
	}
	defer rows.Close()

	items := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var h domain.HistoryEntry
		var from *string
		var to string
		if err := rows.Scan(&h.ID, &h.LeadID, &from, &to, &h.Action, &h.ActorID, &h.BusinessID, &h.Reason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead history: %w", err)
		}
		if from != nil {
			s := domain.Status(*from)
			h.FromStatus = &s
		}
		h.ToStatus = domain.Status(to)
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead history: %w", err)
	}
	return items, nil
}

// InsertPurchase records a purchase, usually inside a Mutate transaction.
func (r *Repo) InsertPurchase(ctx context.Context, q db.DBTX, p domain.Purchase) (domain.Purchase, error) {
	saved, err := scanPurchase(q.QueryRow(ctx, `
		INSERT INTO lead_purchases (lead_id, business_id, amount_cents, status, stripe_session_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+purchaseColumns,
		p.LeadID, p.BusinessID, p.AmountCents, p.Status, p.StripeSessionID, p.Notes))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return domain.Purchase{}, apperr.Conflict("purchase already recorded")
		}
		if db.IsForeignKeyViolation(err) {
			return domain.Purchase{}, apperr.NotFound("company not found")
		}
		return domain.Purchase{}, fmt.Errorf("insert purchase: %w", err)
	}
	return saved, nil
}

// HasCompletedPurchase reports whether a company already bought a lead. A nil q uses the pool.
func (r *Repo) HasCompletedPurchase(ctx context.Context, q db.DBTX, leadID, companyID uuid.UUID) (bool, error) {
	if q == nil {
		q = r.pool
	}
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM lead_purchases
			WHERE lead_id = $1 AND business_id = $2 AND status = 'completed')`, leadID, companyID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}
	return exists, nil
}

// PurchaseBySession finds the purchase recorded for a checkout session.
func (r *Repo) PurchaseBySession(ctx context.Context, sessionID string) (domain.Purchase, error) {
	p, err := scanPurchase(r.pool.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM lead_purchases WHERE stripe_session_id = $1`, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Purchase{}, apperr.NotFound(purchaseNotFoundMessage)
		}
		return domain.Purchase{}, fmt.Errorf("get purchase by session: %w", err)
	}
	return p, nil
}

// Purchases lists all purchases of a lead, oldest first.
func (r *Repo) Purchases(ctx context.Context, leadID uuid.UUID) ([]domain.Purchase, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+purchaseColumns+` FROM lead_purchases WHERE lead_id = $1 ORDER BY created_at ASC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Purchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return items, nil
}

func insertHistory(ctx context.Context, q db.DBTX, h domain.HistoryEntry) error {
	var from *string
	if h.FromStatus != nil {
		s := string(*h.FromStatus)
		from = &s
	}
	_, err := q.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, from_status, to_status, action, actor_id, business_id, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.LeadID, from, string(h.ToStatus), h.Action, h.ActorID, h.BusinessID, h.Reason)
	return err
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var l domain.Lead
	var status string
	err := row.Scan(&l.ID, &l.CustomerName, &l.CustomerEmail, &l.CustomerPhone, &l.Address, &l.City, &l.State,
		&l.ZipCode, &l.ServiceType, &l.Description, &l.Urgency, &l.PropertyType, &l.PreferredContact, &l.ImageKeys,
		&status, &l.IsArchived, &l.LeadType, &l.PriceCents, &l.PaymentLink, &l.PaymentLinkID,
		&l.MaxShares, &l.CurrentShares, &l.BusinessID, &l.ListedAt, &l.ArchivedAt, &l.Version, &l.CreatedAt, &l.UpdatedAt)
	l.Status = domain.Status(status)
	return l, err
}

func scanLeads(rows pgx.Rows) ([]domain.Lead, error) {
	items := make([]domain.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return items, nil
}

func scanPurchase(row pgx.Row) (domain.Purchase, error) {
	var p domain.Purchase
	err := row.Scan(&p.ID, &p.LeadID, &p.BusinessID, &p.AmountCents, &p.Status, &p.StripeSessionID, &p.Notes, &p.CreatedAt)
	return p, err
}
