package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/slicelab/pizzeria/internal/domain/catalog"
	"github.com/slicelab/pizzeria/internal/domain/customer"
	"github.com/slicelab/pizzeria/internal/domain/delivery"
	"github.com/slicelab/pizzeria/internal/domain/discount"
)

// Repositories bundles the data access contracts one order placement needs.
// All of them must be bound to the same transaction: the pipeline's reads
// (customer, catalog, code, drivers) and writes (order, counter, redemption,
// reservation) either commit together or not at all.
type Repositories struct {
	Customers customer.Repository
	Catalog   catalog.Repository
	Discounts discount.Repository
	Delivery  delivery.Repository
	Orders    Repository
}

// Store opens the transactional scope a placement runs in. InTx begins a
// transaction, invokes fn with repositories bound to it, commits when fn
// returns nil and rolls back otherwise. Implementations map constraint
// violations at commit to ErrConstraint.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
}

// PlaceOrderRequest is the raw input for placing an order. Category is
// implied by which slice an entry arrives in.
type PlaceOrderRequest struct {
	CustomerID   int64
	Pizzas       []CartItem
	Drinks       []CartItem
	Desserts     []CartItem
	DiscountCode string
	Notes        string
	// RequestedAt anchors the birthday comparison and the driver cooldown.
	// Zero means now.
	RequestedAt time.Time
}

// PlaceOrderResult is the fully priced order aggregate returned on success.
type PlaceOrderResult struct {
	Order  *Order
	Driver *delivery.Driver
	Code   *discount.Code
}

// Service orchestrates order placement.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a Service over the given transactional store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// PlaceOrder runs the placement pipeline: validate input, resolve the cart
// against the catalog, price the order, apply discounts, reserve a driver,
// and commit everything as one unit. Expected failures come back as
// *ValidationError keyed by input field; no partial order survives any of
// them.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	var result *PlaceOrderResult

	err := s.store.InTx(ctx, func(ctx context.Context, r Repositories) error {
		placed, err := s.placeOrder(ctx, r, req)
		if err != nil {
			return err
		}
		result = placed
		return nil
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, verr
		}
		if errors.Is(err, ErrConstraint) {
			return nil, singleFieldError(FieldDatabase,
				"Could not persist the order due to a database constraint.")
		}
		return nil, errors.Wrap(err, "place order")
	}
	return result, nil
}

func (s *Service) placeOrder(ctx context.Context, r Repositories, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	fields := make(fieldErrors)

	cust, err := r.Customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		if !errors.Is(err, customer.ErrNotFound) {
			return nil, errors.Wrap(err, "get customer")
		}
		fields.set(FieldCustomer, "Customer not found.")
	}

	pizzas := NormalizeItems(req.Pizzas)
	if len(pizzas) == 0 {
		fields.set(FieldPizzas, "At least one pizza must be included in an order.")
	}
	drinks := NormalizeItems(req.Drinks)
	desserts := NormalizeItems(req.Desserts)

	// Cheap shape checks failed; skip catalog and code lookups entirely.
	if err := fields.asError(); err != nil {
		return nil, err
	}

	requestedAt := req.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = s.now()
	}

	pizzaLines, err := resolvePizzaLines(ctx, r.Catalog, pizzas, fields)
	if err != nil {
		return nil, err
	}
	drinkLines, err := resolveMenuLines(ctx, r.Catalog, drinks, catalog.CategoryDrink, fields)
	if err != nil {
		return nil, err
	}
	dessertLines, err := resolveMenuLines(ctx, r.Catalog, desserts, catalog.CategoryDessert, fields)
	if err != nil {
		return nil, err
	}

	code, err := s.lookupDiscountCode(ctx, r.Discounts, req.DiscountCode, requestedAt, fields)
	if err != nil {
		return nil, err
	}

	// Resolution errors are collected, not fail-fast, so the caller gets the
	// complete set in one round trip.
	if err := fields.asError(); err != nil {
		return nil, err
	}

	o := NewOrder(cust.ID, cust.PostcodeID, req.Notes, requestedAt)
	for _, line := range pizzaLines {
		o.AddPizzaLine(line.pizza, line.quantity)
	}
	for _, line := range drinkLines {
		o.AddMenuLine(line.item, line.quantity)
	}
	for _, line := range dessertLines {
		o.AddMenuLine(line.item, line.quantity)
	}
	o.RecalculateTotals()

	// Discounts compound in a fixed order, each computed against what the
	// previous step left discountable: birthday first, then loyalty, then
	// the code.
	if cust.BirthdayOn(requestedAt) {
		o.ApplyBirthdayFreebies()
	}
	if cust.PizzasOrdered >= LoyaltyThreshold {
		o.ApplyPercentageDiscount(LoyaltyDiscount)
		o.LoyaltyDiscountApplied = true
	}
	if code != nil {
		o.DiscountCodeID = &code.ID
		o.ApplyPercentageDiscount(code.Fraction())
	}
	o.RecalculateTotals()

	driver, err := s.reserveDriver(ctx, r.Delivery, cust.PostcodeID, requestedAt)
	if err != nil {
		return nil, err
	}
	o.DriverID = &driver.ID

	// Loyalty counter moves by this order's pizza quantity only after the
	// pre-order value decided eligibility above.
	if err := r.Customers.IncrementPizzaCount(ctx, cust.ID, totalQuantity(pizzas)); err != nil {
		return nil, errors.Wrap(err, "increment pizza count")
	}
	if code != nil {
		if err := r.Discounts.MarkRedeemed(ctx, code.ID, requestedAt); err != nil {
			return nil, errors.Wrap(err, "redeem discount code")
		}
		code.IsActive = false
		code.RedeemedAt = &requestedAt
	}

	o.RecalculateTotals()
	if err := r.Orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return &PlaceOrderResult{Order: o, Driver: driver, Code: code}, nil
}

// lookupDiscountCode resolves the supplied code, when any, to a redeemable
// code row. An unknown, redeemed, or out-of-window code yields one generic
// field message; the caller cannot distinguish which case it hit.
func (s *Service) lookupDiscountCode(ctx context.Context, repo discount.Repository, raw string, at time.Time, fields fieldErrors) (*discount.Code, error) {
	if raw == "" {
		return nil, nil
	}
	code, err := repo.FindByCode(ctx, raw)
	if err != nil {
		if errors.Is(err, discount.ErrNotFound) {
			fields.set(FieldDiscountCode, "Discount code is not valid or has already been used.")
			return nil, nil
		}
		return nil, errors.Wrap(err, "find discount code")
	}
	if !code.RedeemableOn(at) {
		fields.set(FieldDiscountCode, "Discount code is not valid or has already been used.")
		return nil, nil
	}
	return code, nil
}

// reserveDriver picks the first effectively available driver for the
// postcode, falling back to the whole fleet when the zone has none linked,
// and books the cooldown window. No driver available is a hard failure for
// the whole placement.
func (s *Service) reserveDriver(ctx context.Context, repo delivery.Repository, postcodeID *int64, at time.Time) (*delivery.Driver, error) {
	var (
		candidates []delivery.Driver
		err        error
	)
	if postcodeID != nil {
		candidates, err = repo.DriversForPostcode(ctx, *postcodeID)
		if err != nil {
			return nil, errors.Wrap(err, "drivers for postcode")
		}
	}
	if len(candidates) == 0 {
		candidates, err = repo.FallbackDrivers(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "fallback drivers")
		}
	}

	driver := delivery.FirstAvailable(candidates, at)
	if driver == nil {
		return nil, singleFieldError(FieldDelivery,
			"No delivery driver is available for the requested postcode at this time.")
	}

	until := at.Add(delivery.Cooldown)
	if err := repo.Reserve(ctx, driver.ID, until); err != nil {
		return nil, errors.Wrap(err, "reserve driver")
	}
	driver.UnavailableUntil = &until
	driver.IsAvailable = false
	return driver, nil
}
