// Package order implements the order placement pipeline: cart normalization,
// catalog resolution, discount computation and allocation, driver
// reservation, and the all-or-nothing orchestration that binds them inside
// one storage transaction.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slicelab/pizzeria/internal/domain/catalog"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusNew        Status = "new"
	StatusPreparing  Status = "preparing"
	StatusDispatched Status = "dispatched"
	StatusDelivered  Status = "delivered"
	StatusFailed     Status = "failed"
)

// Order is the aggregate root built by the placement pipeline. Totals are
// derived from the items via RecalculateTotals and quantized to 2 decimals.
type Order struct {
	ID             int64
	CustomerID     int64
	PostcodeID     *int64
	DriverID       *int64
	DiscountCodeID *int64
	Status         Status
	PlacedAt       time.Time
	Notes          string

	TotalBeforeDiscounts decimal.Decimal
	DiscountTotal        decimal.Decimal
	TotalDue             decimal.Decimal

	LoyaltyDiscountApplied bool
	BirthdayPizzaApplied   bool
	BirthdayDrinkApplied   bool

	Items []*OrderItem
}

// OrderItem is one priced line of an order. The unit price is snapshotted
// from the catalog at placement time and never revisited.
type OrderItem struct {
	ID             int64
	Category       catalog.Category
	PizzaID        *int64
	MenuItemID     *int64
	Description    string
	Quantity       int
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
}

// LineTotal returns unit price times quantity, before discounts.
func (it *OrderItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Discountable returns how much discount the line can still absorb.
func (it *OrderItem) Discountable() decimal.Decimal {
	return it.LineTotal().Sub(it.DiscountAmount)
}

// ApplyDiscount adds amount to the line's discount, capped at the line total.
// Non-positive amounts are ignored. This is the only way discount_amount is
// written, which keeps 0 <= discount_amount <= unit_price*quantity.
func (it *OrderItem) ApplyDiscount(amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	it.DiscountAmount = decimal.Min(it.LineTotal(), it.DiscountAmount.Add(amount))
}

// NewOrder creates an empty order shell for the given customer.
func NewOrder(customerID int64, postcodeID *int64, notes string, placedAt time.Time) *Order {
	return &Order{
		CustomerID:           customerID,
		PostcodeID:           postcodeID,
		Status:               StatusNew,
		PlacedAt:             placedAt,
		Notes:                notes,
		TotalBeforeDiscounts: decimal.Zero,
		DiscountTotal:        decimal.Zero,
		TotalDue:             decimal.Zero,
	}
}

// AddPizzaLine appends a pizza line at the pizza's current menu price.
func (o *Order) AddPizzaLine(p *catalog.Pizza, quantity int) *OrderItem {
	id := p.ID
	item := &OrderItem{
		Category:       catalog.CategoryPizza,
		PizzaID:        &id,
		Description:    p.Name,
		Quantity:       quantity,
		UnitPrice:      p.Price,
		DiscountAmount: decimal.Zero,
	}
	o.Items = append(o.Items, item)
	return item
}

// AddMenuLine appends a drink or dessert line at the item's base price.
func (o *Order) AddMenuLine(m *catalog.MenuItem, quantity int) *OrderItem {
	id := m.ID
	item := &OrderItem{
		Category:       m.Category,
		MenuItemID:     &id,
		Description:    m.Name,
		Quantity:       quantity,
		UnitPrice:      m.Price,
		DiscountAmount: decimal.Zero,
	}
	o.Items = append(o.Items, item)
	return item
}

// RecalculateTotals recomputes the three order totals from the current items.
// Idempotent: it reads only item state, so repeated calls yield the same
// result. Quantization is half-up to 2 decimal places.
func (o *Order) RecalculateTotals() {
	gross := decimal.Zero
	discounts := decimal.Zero
	for _, it := range o.Items {
		gross = gross.Add(it.LineTotal())
		discounts = discounts.Add(it.DiscountAmount)
	}
	o.TotalBeforeDiscounts = gross.Round(2)
	o.DiscountTotal = discounts.Round(2)
	o.TotalDue = gross.Sub(discounts).Round(2)
}

// Repository defines order persistence. Create inserts the order and all of
// its items and fills in generated identifiers.
type Repository interface {
	Create(ctx context.Context, o *Order) error
}
