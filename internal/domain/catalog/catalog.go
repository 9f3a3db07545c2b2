// Package catalog holds the priced menu records that order lines snapshot
// their prices from: pizzas with a computed menu price and flat-priced menu
// items (drinks, desserts).
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Category tags a menu entry. Stored as-is on order items.
type Category string

const (
	CategoryPizza   Category = "pizza"
	CategoryDrink   Category = "drink"
	CategoryDessert Category = "dessert"
)

// ErrNotFound is returned when a pizza or menu item does not exist or has no
// usable price.
var ErrNotFound = errors.New("catalog item not found")

// Pizza is a pizza together with its computed menu price. Pizzas without a
// price row are not orderable and resolve to ErrNotFound.
type Pizza struct {
	ID           int64
	Name         string
	Price        decimal.Decimal
	IsVegan      bool
	IsVegetarian bool
}

// MenuItem is a non-pizza menu entry with a flat base price.
type MenuItem struct {
	ID           int64
	Name         string
	Category     Category
	Price        decimal.Decimal
	IsVegan      bool
	IsVegetarian bool
	Active       bool
}

// Repository defines catalog lookups used during order resolution.
type Repository interface {
	// PizzaWithPrice returns the pizza with its computed menu price, or
	// ErrNotFound when the pizza is unknown or unpriced.
	PizzaWithPrice(ctx context.Context, id int64) (*Pizza, error)
	// ActiveMenuItems returns the active menu items among the given ids.
	// Missing or inactive ids are simply absent from the result.
	ActiveMenuItems(ctx context.Context, ids []int64) ([]MenuItem, error)
	// ListPizzas returns all priced pizzas, ordered by id.
	ListPizzas(ctx context.Context) ([]Pizza, error)
	// ListMenuItems returns all active non-pizza menu items, ordered by id.
	ListMenuItems(ctx context.Context) ([]MenuItem, error)
}
