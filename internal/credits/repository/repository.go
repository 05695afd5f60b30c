// Package repository persists company credit balances and their ledger.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"treeleads/platform/apperr"
	"treeleads/platform/db"
)

// Ledger reasons.
const (
	ReasonGrant          = "grant"
	ReasonLeadAssignment = "lead_assignment"
)

// Transaction is one ledger row. Delta is negative when credits are spent.
type Transaction struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Delta     int
	Reason    string
	LeadID    *uuid.UUID
	ActorID   *uuid.UUID
	CreatedAt time.Time
}

// Repository is the credits persistence contract.
type Repository interface {
	Balance(ctx context.Context, companyID uuid.UUID) (int, error)
	Grant(ctx context.Context, companyID uuid.UUID, amount int, reason string, actorID *uuid.UUID) (int, error)
	Ledger(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]Transaction, int, error)
	Consume(ctx context.Context, q db.DBTX, companyID, leadID uuid.UUID, actorID *uuid.UUID) (int, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a credits repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Balance returns the current balance; companies without a row have zero.
func (r *Repo) Balance(ctx context.Context, companyID uuid.UUID) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx, `SELECT balance FROM business_lead_credits WHERE business_id = $1`, companyID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get credit balance: %w", err)
	}
	return balance, nil
}

// Grant adds amount credits and writes the ledger row in one transaction.
func (r *Repo) Grant(ctx context.Context, companyID uuid.UUID, amount int, reason string, actorID *uuid.UUID) (int, error) {
	var balance int
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO business_lead_credits (business_id, balance)
			VALUES ($1, $2)
			ON CONFLICT (business_id) DO UPDATE
				SET balance = business_lead_credits.balance + EXCLUDED.balance, updated_at = now()
			RETURNING balance`, companyID, amount).Scan(&balance)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO lead_credit_transactions (business_id, delta, reason, actor_id)
			VALUES ($1, $2, $3, $4)`, companyID, amount, reason, actorID)
		return err
	})
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, apperr.NotFound("company not found")
		}
		if db.IsCheckViolation(err) {
			return 0, apperr.Conflict("credit balance cannot go below zero")
		}
		return 0, fmt.Errorf("grant credits: %w", err)
	}
	return balance, nil
}

// Ledger returns the newest transactions first.
func (r *Repo) Ledger(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]Transaction, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lead_credit_transactions WHERE business_id = $1`, companyID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count credit transactions: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, business_id, delta, reason, lead_id, actor_id, created_at
		FROM lead_credit_transactions
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list credit transactions: %w", err)
	}
	defer rows.Close()

	items := make([]Transaction, 0)
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Delta, &t.Reason, &t.LeadID, &t.ActorID, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan credit transaction: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate credit transactions: %w", err)
	}
	return items, total, nil
}

// Consume spends exactly one credit inside the caller's transaction and returns the remaining balance.
func (r *Repo) Consume(ctx context.Context, q db.DBTX, companyID, leadID uuid.UUID, actorID *uuid.UUID) (int, error) {
	var remaining int
	err := q.QueryRow(ctx, `
		UPDATE business_lead_credits
		SET balance = balance - 1, updated_at = now()
		WHERE business_id = $1 AND balance >= 1
		RETURNING balance`, companyID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.Conflict("company has no lead credits left")
		}
		return 0, fmt.Errorf("consume credit: %w", err)
	}

	if _, err := q.Exec(ctx, `
		INSERT INTO lead_credit_transactions (business_id, delta, reason, lead_id, actor_id)
		VALUES ($1, -1, $2, $3, $4)`, companyID, ReasonLeadAssignment, leadID, actorID); err != nil {
		return 0, fmt.Errorf("record credit consumption: %w", err)
	}
	return remaining, nil
}
