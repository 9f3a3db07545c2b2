package repository

import (
	"context"
	"fmt"

	"github.com/slicelab/pizzeria/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (
			customer_id, delivery_postcode_id, driver_id, discount_code_id,
			status, placed_at, notes,
			total_before_discounts, discount_total, total_due,
			loyalty_discount_applied, birthday_pizza_applied, birthday_drink_applied
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING order_id`

	insertOrderItemSQL = `INSERT INTO order_items (
			order_id, item_type, pizza_id, menu_item_id,
			description, quantity, unit_price, discount_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING order_item_id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	db queryer
}

// NewOrderRepository returns an OrderRepository over the given queryer.
func NewOrderRepository(db queryer) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and its items, filling in generated ids. Callers
// run this inside a transaction, so a failed item insert discards the order
// row as well.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := r.db.QueryRow(ctx, insertOrderSQL,
		o.CustomerID, o.PostcodeID, o.DriverID, o.DiscountCodeID,
		string(o.Status), o.PlacedAt, o.Notes,
		o.TotalBeforeDiscounts, o.DiscountTotal, o.TotalDue,
		o.LoyaltyDiscountApplied, o.BirthdayPizzaApplied, o.BirthdayDrinkApplied,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	for _, it := range o.Items {
		err := r.db.QueryRow(ctx, insertOrderItemSQL,
			o.ID, string(it.Category), it.PizzaID, it.MenuItemID,
			it.Description, it.Quantity, it.UnitPrice, it.DiscountAmount,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("inserting order item %q: %w", it.Description, err)
		}
	}
	return nil
}
