package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slicelab/pizzeria/internal/domain/order"
)

var _ order.Store = (*Store)(nil)

// Store implements order.Store on a pgx pool. Every placement runs in one
// transaction; the row locks taken by the discount and delivery repositories
// (SELECT ... FOR UPDATE) are held until that transaction ends, which is
// what serializes concurrent placements racing for the same driver or code.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store over the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InTx begins a read-committed transaction, invokes fn with repositories
// bound to it, and commits when fn returns nil. Any error rolls everything
// back; constraint violations surface as order.ErrConstraint.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, r order.Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	repos := order.Repositories{
		Customers: NewCustomerRepository(tx),
		Catalog:   NewCatalogRepository(tx),
		Discounts: NewDiscountRepository(tx),
		Delivery:  NewDeliveryRepository(tx),
		Orders:    NewOrderRepository(tx),
	}

	if err := fn(ctx, repos); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return translateConstraint(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translateConstraint(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// translateConstraint maps SQLSTATE class 23 (integrity constraint
// violation) onto order.ErrConstraint, preserving the original message.
func translateConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s", order.ErrConstraint, pgErr.Message)
	}
	return err
}
