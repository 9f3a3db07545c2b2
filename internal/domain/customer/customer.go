// Package customer exposes the slice of the customer aggregate the ordering
// pipeline consumes. Customers are owned by the account-management side of
// the system; this core only reads them and bumps the loyalty counter.
package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no customer exists for the given id.
var ErrNotFound = errors.New("customer not found")

// Customer carries the fields order placement needs: delivery postcode,
// birthdate for the birthday promotion, and the lifetime pizza counter that
// drives loyalty eligibility.
type Customer struct {
	ID            int64
	Name          string
	Birthdate     *time.Time
	PostcodeID    *int64
	PizzasOrdered int
}

// BirthdayOn reports whether the customer's birthday falls on the given date
// (month and day match; the year is ignored).
func (c *Customer) BirthdayOn(date time.Time) bool {
	if c.Birthdate == nil {
		return false
	}
	return c.Birthdate.Month() == date.Month() && c.Birthdate.Day() == date.Day()
}

// Repository defines the customer access this core requires.
type Repository interface {
	// GetByID returns the customer or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Customer, error)
	// IncrementPizzaCount adds delta to the customer's lifetime pizza counter.
	IncrementPizzaCount(ctx context.Context, id int64, delta int) error
}
