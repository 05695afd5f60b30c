package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"treeleads/platform/apperr"
	"treeleads/platform/db"
)

const (
	leadTypeNotFoundMessage  = "lead type not found"
	cityPriceNotFoundMessage = "city price not found"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new pricing repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// LookupPrice reads the lead type, its default price and an optional city override in one round trip.
func (r *Repo) LookupPrice(ctx context.Context, city, state, leadType string) (PriceLookup, error) {
	query := `
		SELECT lt.is_active, lt.default_max_shares, c.price_cents, d.price_cents
		FROM lead_types lt
		LEFT JOIN lead_pricing_by_city c
			ON c.lead_type_id = lt.id AND lower(c.city) = lower($1) AND lower(c.state) = lower($2)
		LEFT JOIN lead_pricing_defaults d ON d.lead_type_id = lt.id
		WHERE lt.name = $3`

	var lookup PriceLookup
	err := r.pool.QueryRow(ctx, query, city, state, leadType).Scan(
		&lookup.LeadTypeActive, &lookup.DefaultMaxShares, &lookup.CityPriceCents, &lookup.DefaultCents,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PriceLookup{}, nil
		}
		return PriceLookup{}, fmt.Errorf("lookup price: %w", err)
	}
	lookup.LeadTypeFound = true
	return lookup, nil
}

const leadTypeColumns = `id, name, description, default_max_shares, is_active, created_at, updated_at`

// ListLeadTypes returns lead types ordered by name.
func (r *Repo) ListLeadTypes(ctx context.Context, includeInactive bool) ([]LeadType, error) {
	query := `SELECT ` + leadTypeColumns + ` FROM lead_types
		WHERE ($1::boolean OR is_active)
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list lead types: %w", err)
	}
	defer rows.Close()

	var items []LeadType
	for rows.Next() {
		lt, err := scanLeadType(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead types: %w", err)
	}
	return items, nil
}

// GetLeadType retrieves a lead type by ID.
func (r *Repo) GetLeadType(ctx context.Context, id uuid.UUID) (LeadType, error) {
	query := `SELECT ` + leadTypeColumns + ` FROM lead_types WHERE id = $1`

	lt, err := scanLeadType(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LeadType{}, apperr.NotFound(leadTypeNotFoundMessage)
		}
		return LeadType{}, err
	}
	return lt, nil
}

// CreateLeadType inserts a new lead type.
func (r *Repo) CreateLeadType(ctx context.Context, params CreateLeadTypeParams) (LeadType, error) {
	query := `
		INSERT INTO lead_types (name, description, default_max_shares)
		VALUES ($1, $2, $3)
		RETURNING ` + leadTypeColumns

	lt, err := scanLeadType(r.pool.QueryRow(ctx, query, params.Name, params.Description, params.DefaultMaxShares))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return LeadType{}, apperr.Conflict("lead type already exists")
		}
		return LeadType{}, err
	}
	return lt, nil
}

// UpdateLeadType applies the non-nil fields.
func (r *Repo) UpdateLeadType(ctx context.Context, params UpdateLeadTypeParams) (LeadType, error) {
	query := `
		UPDATE lead_types SET
			description = COALESCE($2, description),
			default_max_shares = COALESCE($3, default_max_shares),
			is_active = COALESCE($4, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + leadTypeColumns

	lt, err := scanLeadType(r.pool.QueryRow(ctx, query, params.ID, params.Description, params.DefaultMaxShares, params.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LeadType{}, apperr.NotFound(leadTypeNotFoundMessage)
		}
		return LeadType{}, err
	}
	return lt, nil
}

// DeleteLeadType removes a lead type and, by cascade, its prices.
func (r *Repo) DeleteLeadType(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM lead_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead type: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadTypeNotFoundMessage)
	}
	return nil
}

// ListDefaultPrices returns the global price of every lead type that has one.
func (r *Repo) ListDefaultPrices(ctx context.Context) ([]DefaultPrice, error) {
	query := `
		SELECT d.lead_type_id, lt.name, d.price_cents, d.updated_at
		FROM lead_pricing_defaults d
		JOIN lead_types lt ON lt.id = d.lead_type_id
		ORDER BY lt.name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list default prices: %w", err)
	}
	defer rows.Close()

	var items []DefaultPrice
	for rows.Next() {
		var p DefaultPrice
		if err := rows.Scan(&p.LeadTypeID, &p.LeadTypeName, &p.PriceCents, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan default price: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate default prices: %w", err)
	}
	return items, nil
}

// UpsertDefaultPrice sets the global price of a lead type.
func (r *Repo) UpsertDefaultPrice(ctx context.Context, leadTypeID uuid.UUID, priceCents int64) (DefaultPrice, error) {
	query := `
		WITH upserted AS (
			INSERT INTO lead_pricing_defaults (lead_type_id, price_cents)
			VALUES ($1, $2)
			ON CONFLICT (lead_type_id) DO UPDATE SET price_cents = EXCLUDED.price_cents, updated_at = now()
			RETURNING lead_type_id, price_cents, updated_at
		)
		SELECT u.lead_type_id, lt.name, u.price_cents, u.updated_at
		FROM upserted u JOIN lead_types lt ON lt.id = u.lead_type_id`

	var p DefaultPrice
	err := r.pool.QueryRow(ctx, query, leadTypeID, priceCents).Scan(&p.LeadTypeID, &p.LeadTypeName, &p.PriceCents, &p.UpdatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return DefaultPrice{}, apperr.NotFound(leadTypeNotFoundMessage)
		}
		return DefaultPrice{}, fmt.Errorf("upsert default price: %w", err)
	}
	return p, nil
}

const cityPriceSelect = `
	SELECT c.id, c.city, c.state, c.lead_type_id, lt.name, c.price_cents, c.created_at, c.updated_at
	FROM lead_pricing_by_city c
	JOIN lead_types lt ON lt.id = c.lead_type_id`

// ListCityPrices returns city overrides matching the filter.
func (r *Repo) ListCityPrices(ctx context.Context, filter CityPriceFilter) ([]CityPrice, error) {
	var cityParam, stateParam interface{}
	if filter.City != "" {
		cityParam = filter.City
	}
	if filter.State != "" {
		stateParam = filter.State
	}

	query := cityPriceSelect + `
		WHERE ($1::text IS NULL OR lower(c.city) = lower($1))
			AND ($2::text IS NULL OR lower(c.state) = lower($2))
			AND ($3::uuid IS NULL OR c.lead_type_id = $3)
		ORDER BY c.state ASC, c.city ASC, lt.name ASC`

	rows, err := r.pool.Query(ctx, query, cityParam, stateParam, filter.LeadTypeID)
	if err != nil {
		return nil, fmt.Errorf("list city prices: %w", err)
	}
	defer rows.Close()

	var items []CityPrice
	for rows.Next() {
		p, err := scanCityPrice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate city prices: %w", err)
	}
	return items, nil
}

// UpsertCityPrice creates or replaces the override for (city, state, lead type).
func (r *Repo) UpsertCityPrice(ctx context.Context, params UpsertCityPriceParams) (CityPrice, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_pricing_by_city (city, state, lead_type_id, price_cents)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lower(city), lower(state), lead_type_id)
		DO UPDATE SET price_cents = EXCLUDED.price_cents, updated_at = now()
		RETURNING id`,
		params.City, params.State, params.LeadTypeID, params.PriceCents,
	).Scan(&id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return CityPrice{}, apperr.NotFound(leadTypeNotFoundMessage)
		}
		return CityPrice{}, fmt.Errorf("upsert city price: %w", err)
	}

	p, err := scanCityPrice(r.pool.QueryRow(ctx, cityPriceSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return CityPrice{}, err
	}
	return p, nil
}

// DeleteCityPrice removes a city override.
func (r *Repo) DeleteCityPrice(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM lead_pricing_by_city WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete city price: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(cityPriceNotFoundMessage)
	}
	return nil
}

func scanLeadType(row pgx.Row) (LeadType, error) {
	var lt LeadType
	if err := row.Scan(&lt.ID, &lt.Name, &lt.Description, &lt.DefaultMaxShares, &lt.IsActive, &lt.CreatedAt, &lt.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LeadType{}, err
		}
		return LeadType{}, fmt.Errorf("scan lead type: %w", err)
	}
	return lt, nil
}

func scanCityPrice(row pgx.Row) (CityPrice, error) {
	var p CityPrice
	if err := row.Scan(&p.ID, &p.City, &p.State, &p.LeadTypeID, &p.LeadTypeName, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return CityPrice{}, fmt.Errorf("scan city price: %w", err)
	}
	return p, nil
}
