package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/slicelab/pizzeria/internal/domain/discount"
)

const (
	// FOR UPDATE pins the code row for the rest of the transaction: a
	// concurrent placement presenting the same code blocks here and, once
	// the winner commits its redemption, sees is_active = false.
	findCodeSQL = `SELECT discount_code_id, code, discount_value, is_active, valid_from, valid_to, redeemed_at
		FROM discount_codes
		WHERE lower(code) = lower($1)
		FOR UPDATE`

	markRedeemedSQL = `UPDATE discount_codes SET is_active = FALSE, redeemed_at = $2
		WHERE discount_code_id = $1`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	db queryer
}

// NewDiscountRepository returns a DiscountRepository over the given queryer.
func NewDiscountRepository(db queryer) *DiscountRepository {
	return &DiscountRepository{db: db}
}

// FindByCode returns the code row matching code case-insensitively, locked
// for update, or discount.ErrNotFound.
func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (*discount.Code, error) {
	var c discount.Code
	err := r.db.QueryRow(ctx, findCodeSQL, code).
		Scan(&c.ID, &c.Code, &c.Value, &c.IsActive, &c.ValidFrom, &c.ValidTo, &c.RedeemedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}
	return &c, nil
}

// MarkRedeemed deactivates the code and records the redemption time.
func (r *DiscountRepository) MarkRedeemed(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, markRedeemedSQL, id, at)
	if err != nil {
		return fmt.Errorf("redeeming discount code %d: %w", id, err)
	}
	return nil
}
