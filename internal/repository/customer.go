package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/slicelab/pizzeria/internal/domain/customer"
)

const (
	getCustomerSQL = `SELECT customer_id, name, birthdate, postcode_id, pizzas_ordered
		FROM customers WHERE customer_id = $1`

	incrementPizzaCountSQL = `UPDATE customers SET pizzas_ordered = pizzas_ordered + $2
		WHERE customer_id = $1`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	db queryer
}

// NewCustomerRepository returns a CustomerRepository over the given queryer.
func NewCustomerRepository(db queryer) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByID returns the customer or customer.ErrNotFound.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	var c customer.Customer
	err := r.db.QueryRow(ctx, getCustomerSQL, id).
		Scan(&c.ID, &c.Name, &c.Birthdate, &c.PostcodeID, &c.PizzasOrdered)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	return &c, nil
}

// IncrementPizzaCount adds delta to the customer's lifetime pizza counter.
func (r *CustomerRepository) IncrementPizzaCount(ctx context.Context, id int64, delta int) error {
	tag, err := r.db.Exec(ctx, incrementPizzaCountSQL, id, delta)
	if err != nil {
		return fmt.Errorf("incrementing pizza count for customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}
