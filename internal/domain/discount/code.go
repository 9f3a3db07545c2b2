// Package discount holds single-use percentage discount codes and their
// validity rules. A code is redeemable at most once: redemption clears the
// active flag and stamps redeemed_at, after which lookups no longer match it.
package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no code row exists for the given code string.
var ErrNotFound = errors.New("discount code not found")

var hundred = decimal.NewFromInt(100)

// Code is a redeemable percentage discount code.
type Code struct {
	ID         int64
	Code       string
	Value      decimal.Decimal // percentage, 0-100, two decimals
	IsActive   bool
	ValidFrom  *time.Time // inclusive, date precision
	ValidTo    *time.Time // inclusive, date precision
	RedeemedAt *time.Time
}

// RedeemableOn reports whether the code can be redeemed on the given date:
// still active and inside its validity window when one is set.
func (c *Code) RedeemableOn(date time.Time) bool {
	if !c.IsActive {
		return false
	}
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if c.ValidFrom != nil && day.Before(dateOnly(*c.ValidFrom)) {
		return false
	}
	if c.ValidTo != nil && day.After(dateOnly(*c.ValidTo)) {
		return false
	}
	return true
}

// Fraction returns the code's value as a multiplier, e.g. 10 -> 0.10.
func (c *Code) Fraction() decimal.Decimal {
	return c.Value.Div(hundred)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Repository defines discount code lookup and redemption.
//
// Implementations must serialize FindByCode against concurrent redemption of
// the same code (row lock or equivalent), so that two transactions racing on
// one code cannot both observe it active.
type Repository interface {
	// FindByCode returns the code row matching the given code string
	// case-insensitively, or ErrNotFound. Redeemability is not checked here;
	// callers decide via RedeemableOn.
	FindByCode(ctx context.Context, code string) (*Code, error)
	// MarkRedeemed clears the active flag and records the redemption time.
	MarkRedeemed(ctx context.Context, id int64, at time.Time) error
}
