// Package delivery covers driver selection and the cooldown window a driver
// enters after being assigned to an order.
package delivery

import (
	"context"
	"time"
)

// Cooldown is how long a driver stays unavailable after taking an order.
const Cooldown = 30 * time.Minute

// Driver is a delivery person. The is_available column is a cache; the
// unavailable_until timestamp is authoritative (see AvailableAt).
type Driver struct {
	ID               int64
	Name             string
	IsAvailable      bool
	UnavailableUntil *time.Time
}

// AvailableAt reports whether the driver can take an order at the given time:
// no cooldown window, or one that has already elapsed. The stored boolean is
// deliberately ignored.
func (d *Driver) AvailableAt(at time.Time) bool {
	return d.UnavailableUntil == nil || !d.UnavailableUntil.After(at)
}

// FirstAvailable returns the first driver in candidates that is effectively
// available at the given time, or nil. Candidates are expected in repository
// order: no cooldown first, then soonest-available.
func FirstAvailable(candidates []Driver, at time.Time) *Driver {
	for i := range candidates {
		if candidates[i].AvailableAt(at) {
			return &candidates[i]
		}
	}
	return nil
}

// Repository defines driver lookup and reservation.
//
// Implementations must return candidate rows locked for update so that two
// concurrent order placements cannot both select the same driver before
// either commits its cooldown window.
type Repository interface {
	// DriversForPostcode returns drivers linked to the postcode, available
	// first, then by soonest unavailable_until.
	DriversForPostcode(ctx context.Context, postcodeID int64) ([]Driver, error)
	// FallbackDrivers returns all drivers under the same ordering. Used when
	// the postcode has no linked drivers.
	FallbackDrivers(ctx context.Context) ([]Driver, error)
	// Reserve sets the driver's cooldown window and clears the availability
	// cache flag.
	Reserve(ctx context.Context, driverID int64, until time.Time) error
}
