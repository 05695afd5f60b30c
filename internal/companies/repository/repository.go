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
	companyNotFoundMessage = "company not found"
	companyColumns         = `id, name, email, phone, website, city, state, logo_key, is_active, created_at, updated_at`
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new companies repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// GetByID retrieves a company by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Company, error) {
	query := `SELECT ` + companyColumns + ` FROM tree_service_companies WHERE id = $1`
	c, err := scanCompany(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound(companyNotFoundMessage)
		}
		return Company{}, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// List retrieves companies with search, area and active filters.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Company, int, error) {
	var searchParam, cityParam, stateParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}
	if params.City != "" {
		cityParam = params.City
	}
	if params.State != "" {
		stateParam = params.State
	}

	where := `
		WHERE ($1::text IS NULL OR name ILIKE $1 OR email ILIKE $1)
			AND ($2::text IS NULL OR lower(city) = lower($2))
			AND ($3::text IS NULL OR lower(state) = lower($3))
			AND ($4::boolean IS NULL OR is_active = $4)`
	args := []interface{}{searchParam, cityParam, stateParam, params.IsActive}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tree_service_companies`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}

	query := `SELECT ` + companyColumns + ` FROM tree_service_companies` + where + `
		ORDER BY name ASC
		LIMIT $5 OFFSET $6`
	rows, err := r.pool.Query(ctx, query, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	items, err := scanCompanies(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListActiveByArea returns active companies with an email address in a city/state.
func (r *Repo) ListActiveByArea(ctx context.Context, city, state string) ([]Company, error) {
	query := `SELECT ` + companyColumns + ` FROM tree_service_companies
		WHERE is_active AND email IS NOT NULL AND email <> ''
			AND lower(city) = lower($1) AND lower(state) = lower($2)
		ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, city, state)
	if err != nil {
		return nil, fmt.Errorf("list companies by area: %w", err)
	}
	defer rows.Close()
	return scanCompanies(rows)
}

// Create inserts a company.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Company, error) {
	query := `
		INSERT INTO tree_service_companies (name, email, phone, website, city, state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + companyColumns
	c, err := scanCompany(r.pool.QueryRow(ctx, query,
		params.Name, params.Email, params.Phone, params.Website, params.City, params.State))
	if err != nil {
		return Company{}, fmt.Errorf("create company: %w", err)
	}
	return c, nil
}

// Update applies the non-nil fields.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Company, error) {
	query := `
		UPDATE tree_service_companies SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			website = COALESCE($5, website),
			city = COALESCE($6, city),
			state = COALESCE($7, state),
			logo_key = COALESCE($8, logo_key),
			is_active = COALESCE($9, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + companyColumns
	c, err := scanCompany(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Email, params.Phone, params.Website,
		params.City, params.State, params.LogoKey, params.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound(companyNotFoundMessage)
		}
		return Company{}, fmt.Errorf("update company: %w", err)
	}
	return c, nil
}

// Delete removes a company. Assigned leads keep their history with business_id
// cleared; a company with recorded purchases cannot be deleted.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tree_service_companies WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Conflict("company has recorded lead purchases; deactivate it instead")
		}
		return fmt.Errorf("delete company: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(companyNotFoundMessage)
	}
	return nil
}

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Website, &c.City, &c.State,
		&c.LogoKey, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanCompanies(rows pgx.Rows) ([]Company, error) {
	items := make([]Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return items, nil
}
