package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/slicelab/pizzeria/internal/domain/delivery"
)

const (
	// Candidate rows are locked FOR UPDATE: two concurrent placements cannot
	// both read the same driver as available, because the second blocks
	// until the first commits its cooldown update. Ordering puts drivers
	// with no cooldown window first, then the soonest to free up.
	driversForPostcodeSQL = `SELECT dp.driver_id, dp.name, dp.is_available, dp.unavailable_until
		FROM delivery_persons dp
		JOIN delivery_person_postcodes z ON z.driver_id = dp.driver_id
		WHERE z.postcode_id = $1
		ORDER BY dp.unavailable_until IS NOT NULL, dp.unavailable_until
		FOR UPDATE OF dp`

	fallbackDriversSQL = `SELECT driver_id, name, is_available, unavailable_until
		FROM delivery_persons
		ORDER BY unavailable_until IS NOT NULL, unavailable_until
		FOR UPDATE`

	reserveDriverSQL = `UPDATE delivery_persons SET unavailable_until = $2, is_available = FALSE
		WHERE driver_id = $1`
)

var _ delivery.Repository = (*DeliveryRepository)(nil)

// DeliveryRepository implements delivery.Repository backed by PostgreSQL.
type DeliveryRepository struct {
	db queryer
}

// NewDeliveryRepository returns a DeliveryRepository over the given queryer.
func NewDeliveryRepository(db queryer) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// DriversForPostcode returns the drivers linked to the postcode, locked,
// available-first.
func (r *DeliveryRepository) DriversForPostcode(ctx context.Context, postcodeID int64) ([]delivery.Driver, error) {
	rows, err := r.db.Query(ctx, driversForPostcodeSQL, postcodeID)
	if err != nil {
		return nil, fmt.Errorf("drivers for postcode %d: %w", postcodeID, err)
	}
	drivers, err := pgx.CollectRows(rows, scanDriver)
	if err != nil {
		return nil, fmt.Errorf("drivers for postcode %d: %w", postcodeID, err)
	}
	return drivers, nil
}

// FallbackDrivers returns the whole fleet, locked, under the same ordering.
func (r *DeliveryRepository) FallbackDrivers(ctx context.Context) ([]delivery.Driver, error) {
	rows, err := r.db.Query(ctx, fallbackDriversSQL)
	if err != nil {
		return nil, fmt.Errorf("fallback drivers: %w", err)
	}
	drivers, err := pgx.CollectRows(rows, scanDriver)
	if err != nil {
		return nil, fmt.Errorf("fallback drivers: %w", err)
	}
	return drivers, nil
}

// Reserve books the driver's cooldown window.
func (r *DeliveryRepository) Reserve(ctx context.Context, driverID int64, until time.Time) error {
	tag, err := r.db.Exec(ctx, reserveDriverSQL, driverID, until)
	if err != nil {
		return fmt.Errorf("reserving driver %d: %w", driverID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reserving driver %d: no such driver", driverID)
	}
	return nil
}

func scanDriver(row pgx.CollectableRow) (delivery.Driver, error) {
	var d delivery.Driver
	err := row.Scan(&d.ID, &d.Name, &d.IsAvailable, &d.UnavailableUntil)
	return d, err
}
