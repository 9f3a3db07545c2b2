package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slicelab/pizzeria/internal/domain/catalog"
	"github.com/slicelab/pizzeria/internal/domain/customer"
	"github.com/slicelab/pizzeria/internal/domain/delivery"
	"github.com/slicelab/pizzeria/internal/domain/discount"
)

// --- Mock implementations ---

type mockCustomerRepo struct {
	byID       map[int64]*customer.Customer
	increments map[int64]int
}

func (m *mockCustomerRepo) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *mockCustomerRepo) IncrementPizzaCount(_ context.Context, id int64, delta int) error {
	if m.increments == nil {
		m.increments = make(map[int64]int)
	}
	m.increments[id] += delta
	return nil
}

type mockCatalogRepo struct {
	pizzas map[int64]*catalog.Pizza
	menu   map[int64]catalog.MenuItem
}

func (m *mockCatalogRepo) PizzaWithPrice(_ context.Context, id int64) (*catalog.Pizza, error) {
	p, ok := m.pizzas[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockCatalogRepo) ActiveMenuItems(_ context.Context, ids []int64) ([]catalog.MenuItem, error) {
	items := make([]catalog.MenuItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := m.menu[id]; ok && it.Active {
			items = append(items, it)
		}
	}
	return items, nil
}

func (m *mockCatalogRepo) ListPizzas(_ context.Context) ([]catalog.Pizza, error) {
	return nil, nil
}

func (m *mockCatalogRepo) ListMenuItems(_ context.Context) ([]catalog.MenuItem, error) {
	return nil, nil
}

type mockDiscountRepo struct {
	codes    map[string]*discount.Code
	redeemed map[int64]time.Time
}

func (m *mockDiscountRepo) FindByCode(_ context.Context, code string) (*discount.Code, error) {
	c, ok := m.codes[strings.ToLower(code)]
	if !ok {
		return nil, discount.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *mockDiscountRepo) MarkRedeemed(_ context.Context, id int64, at time.Time) error {
	if m.redeemed == nil {
		m.redeemed = make(map[int64]time.Time)
	}
	m.redeemed[id] = at
	return nil
}

type mockDeliveryRepo struct {
	byPostcode map[int64][]delivery.Driver
	fallback   []delivery.Driver
	reserved   map[int64]time.Time
}

func (m *mockDeliveryRepo) DriversForPostcode(_ context.Context, postcodeID int64) ([]delivery.Driver, error) {
	return m.byPostcode[postcodeID], nil
}

func (m *mockDeliveryRepo) FallbackDrivers(_ context.Context) ([]delivery.Driver, error) {
	return m.fallback, nil
}

func (m *mockDeliveryRepo) Reserve(_ context.Context, driverID int64, until time.Time) error {
	if m.reserved == nil {
		m.reserved = make(map[int64]time.Time)
	}
	m.reserved[driverID] = until
	return nil
}

type mockOrderRepo struct {
	created *Order
	err     error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.err != nil {
		return m.err
	}
	o.ID = 1001
	m.created = o
	return nil
}

// mockStore invokes the pipeline against a fixed repository set. commitErr
// simulates a failure surfacing at commit time.
type mockStore struct {
	repos     Repositories
	commitErr error
}

func (s *mockStore) InTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	if err := fn(ctx, s.repos); err != nil {
		return err
	}
	return s.commitErr
}

// --- Fixtures ---

var testNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	customers *mockCustomerRepo
	catalog   *mockCatalogRepo
	discounts *mockDiscountRepo
	delivery  *mockDeliveryRepo
	orders    *mockOrderRepo
	store     *mockStore
	svc       *Service
}

func ptrTime(t time.Time) *time.Time { return &t }

func newFixture() *fixture {
	postcode := int64(55)
	f := &fixture{
		customers: &mockCustomerRepo{byID: map[int64]*customer.Customer{
			1: {ID: 1, Name: "Ada", PostcodeID: &postcode, PizzasOrdered: 0},
		}},
		catalog: &mockCatalogRepo{
			pizzas: map[int64]*catalog.Pizza{
				1: {ID: 1, Name: "Margherita", Price: dec("8.00")},
				2: {ID: 2, Name: "Diavola", Price: dec("10.00")},
			},
			menu: map[int64]catalog.MenuItem{
				101: {ID: 101, Name: "Cola", Category: catalog.CategoryDrink, Price: dec("2.50"), Active: true},
				201: {ID: 201, Name: "Tiramisu", Category: catalog.CategoryDessert, Price: dec("4.00"), Active: true},
			},
		},
		discounts: &mockDiscountRepo{codes: map[string]*discount.Code{
			"save10": {ID: 7, Code: "SAVE10", Value: dec("10.00"), IsActive: true},
		}},
		delivery: &mockDeliveryRepo{
			byPostcode: map[int64][]delivery.Driver{
				55: {{ID: 3, Name: "Marco", IsAvailable: true}},
			},
			fallback: []delivery.Driver{{ID: 9, Name: "Luca", IsAvailable: true}},
		},
		orders: &mockOrderRepo{},
	}
	f.store = &mockStore{repos: Repositories{
		Customers: f.customers,
		Catalog:   f.catalog,
		Discounts: f.discounts,
		Delivery:  f.delivery,
		Orders:    f.orders,
	}}
	f.svc = NewService(f.store)
	return f
}

func requireFieldError(t *testing.T, err error, key string) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, key)
	return verr
}

// --- Tests ---

func TestPlaceOrder_Plain(t *testing.T) {
	f := newFixture()

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  1,
		Pizzas:      []CartItem{{ItemID: 1, Quantity: 2}},
		Drinks:      []CartItem{{ItemID: 101, Quantity: 1}},
		RequestedAt: testNow,
	})
	require.NoError(t, err)

	assert.True(t, res.Order.TotalBeforeDiscounts.Equal(dec("18.50")))
	assert.True(t, res.Order.DiscountTotal.IsZero())
	assert.True(t, res.Order.TotalDue.Equal(dec("18.50")))
	assert.Equal(t, int64(1001), res.Order.ID)
	assert.Equal(t, StatusNew, res.Order.Status)
	require.NotNil(t, f.orders.created)
	assert.Equal(t, 2, f.customers.increments[1])
}

func TestPlaceOrder_LoyaltyDiscount(t *testing.T) {
	f := newFixture()
	f.customers.byID[1].PizzasOrdered = 12

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  1,
		Pizzas:      []CartItem{{ItemID: 2, Quantity: 1}},
		RequestedAt: testNow,
	})
	require.NoError(t, err)

	assert.True(t, res.Order.LoyaltyDiscountApplied)
	assert.True(t, res.Order.DiscountTotal.Equal(dec("1.00")))
	assert.True(t, res.Order.TotalDue.Equal(dec("9.00")))
}

func TestPlaceOrder_LoyaltyCheckedBeforeIncrement(t *testing.T) {
	f := newFixture()
	f.customers.byID[1].PizzasOrdered = 9

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  1,
		Pizzas:      []CartItem{{ItemID: 2, Quantity: 1}},
		RequestedAt: testNow,
	})
	require.NoError(t, err)

	// The order crossing the threshold gets no discount itself.
	assert.False(t, res.Order.LoyaltyDiscountApplied)
	assert.True(t, res.Order.TotalDue.Equal(dec("10.00")))
	assert.Equal(t, 1, f.customers.increments[1])
}

func TestPlaceOrder_BirthdayFreebies(t *testing.T) {
	f := newFixture()
	f.customers.byID[1].Birthdate = ptrTime(time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC))

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID: 1,
		Pizzas: []CartItem{
			{ItemID: 1, Quantity: 1},
			{ItemID: 2, Quantity: 1},
		},
		Drinks:      []CartItem{{ItemID: 101, Quantity: 1}},
		RequestedAt: testNow,
	})
	require.NoError(t, err)

	assert.True(t, res.Order.BirthdayPizzaApplied)
	assert.True(t, res.Order.BirthdayDrinkApplied)
	assert.True(t, res.Order.TotalBeforeDiscounts.Equal(dec("20.50")))
	assert.True(t, res.Order.DiscountTotal.Equal(dec("10.50")))
	assert.True(t, res.Order.TotalDue.Equal(dec("10.00")))
}

func TestPlaceOrder_BirthdayOnDifferentDay(t *testing.T) {
	f := newFixture()
	f.customers.byID[1].Birthdate = ptrTime(time.Date(1990, time.June, 1, 0, 0, 0, 0, time.UTC))

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  1,
		Pizzas:      []CartItem{{ItemID: 1, Quantity: 1}},
		RequestedAt: testNow,
	})
	require.NoError(t, err)

	assert.False(t, res.Order.BirthdayPizzaApplied)
	assert.True(t, res.Order.DiscountTotal.IsZero())
}

func TestPlaceOrder_DiscountCode(t *testing.T) {
	f := newFixture()

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:   1,
		Pizzas:       []CartItem{{ItemID: 2, Quantity: 2}},
		DiscountCode: "save10",
		RequestedAt:  testNow,
	})
	require.NoError(t, err)

	assert.True(t, res.Order.DiscountTotal.Equal(dec("2.00")))
	assert.True(t, res.Order.TotalDue.Equal(dec("18.00")))
	require.NotNil(t, res.Order.DiscountCodeID)
	assert.Equal(t, int64(7), *res.Order.DiscountCodeID)

	require.NotNil(t, res.Code)
	assert.False(t, res.Code.IsActive)
	require.NotNil(t, res.Code.RedeemedAt)
	assert.Equal(t, testNow, f.discounts.redeemed[7])
}

func TestPlaceOrder_DiscountsCompound(t *testing.T) {
	f := newFixture()
	f.customers.byID[1].PizzasOrdered = 15
	f.customers.byID[1].Birthdate = ptrTime(time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC))

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID: 1,
		Pizzas: []CartItem{
			{ItemID: 1, Quantity: 1},
			{ItemID: 2, Quantity: 1},
		},
		DiscountCode: "SAVE10",
		RequestedAt:  testNow,
	})
	require.NoError(t, err)

	// 18.00 gross, birthday -8.00, loyalty -1.00 (10% of 10.00),
	// code -0.90 (10% of 9.00).
	assert.True(t, res.Order.DiscountTotal.Equal(dec("9.90")))
	assert.True(t, res.Order.TotalDue.Equal(dec("8.10")))
	assert.True(t, res.Order.LoyaltyDiscountApplied)
	assert.True(t, res.Order.BirthdayPizzaApplied)
}

func TestPlaceOrder_NoPizzas(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  1,
		Drinks:      []CartItem{{ItemID: 101, Quantity: 1}},
		RequestedAt: testNow,
	})

	verr := requireFieldError(t, err, FieldPizzas)
	assert.Equal(t, "At least one pizza must be included in an order.", verr.Fields[FieldPizzas])
	assert.Nil(t, f.orders.created)
	assert.Empty(t, f.customers.increments)
}

func TestPlaceOrder_InvalidEntriesOnlyIsEmpty(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  1,
		Pizzas:      []CartItem{{ItemID: 1, Quantity: 0}, {ItemID: -2, Quantity: 3}},
		RequestedAt: testNow,
	})

	requireFieldError(t, err, FieldPizzas)
}

func TestPlaceOrder_UnknownCustomer(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  99,
		Pizzas:      []CartItem{{ItemID: 1, Quantity: 1}},
		RequestedAt: testNow,
	})

	verr := requireFieldError(t, err, FieldCustomer)
	assert.Equal(t, "Customer not found.", verr.Fields[FieldCustomer])
	assert.Nil(t, f.orders.created)
}

func TestPlaceOrder_CollectsResolutionErrors(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID: 1,
		Pizzas:     []CartItem{{ItemID: 1, Quantity: 1}, {ItemID: 999, Quantity: 1}},
		Drinks:     []CartItem{{ItemID: 201, Quantity: 1}}, // dessert id in the drink slot
		Desserts:   []CartItem{{ItemID: 888, Quantity: 1}},
		DiscountCode: "NOPE",
		RequestedAt:  testNow,
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 4)
	assert.Equal(t, "One or more pizzas are unavailable.", verr.Fields[FieldPizzas])
	assert.Equal(t, "Item 201 is not an available drink.", verr.Fields[FieldDrinks])
	assert.Equal(t, "Item 888 is not an available dessert.", verr.Fields[FieldDesserts])
	assert.Equal(t, "Discount code is not valid or has already been used.", verr.Fields[FieldDiscountCode])
	assert.Nil(t, f.orders.created)
	assert.Empty(t, f.customers.increments)
	assert.Empty(t, f.discounts.redeemed)
}

func TestPlaceOrder_RedeemedCodeRejected(t *testing.T) {
	f := newFixture()
	f.discounts.codes["save10"].IsActive = false
	f.discounts.codes["save10"].RedeemedAt = ptrTime(testNow.Add(-time.Hour))

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:   1,
		Pizzas:       []CartItem{{ItemID: 1, Quantity: 1}},
		DiscountCode: "SAVE10",
		RequestedAt:  testNow,
	})

	requireFieldError(t, err, FieldDiscountCode)
	assert.Nil(t, f.orders.created)
}

func TestPlaceOrder_NoDriverAvailable(t *testing.T) {
	f := newFixture()
	busy := testNow.Add(10 * time.Minute)
	f.delivery.byPostcode[55] = []delivery.Driver{{ID: 3, Name: "Marco", UnavailableUntil: &busy}}
	f.delivery.fallback = []delivery.Driver{{ID: 9, Name: "Luca", UnavailableUntil: &busy}}

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:   1,
		Pizzas:       []CartItem{{ItemID: 1, Quantity: 1}},
		DiscountCode: "SAVE10",
		RequestedAt:  testNow,
	})

	verr := requireFieldError(t, err, FieldDelivery)
	assert.Len(t, verr.Fields, 1)
	// Nothing from the failed placement sticks.
	assert.Nil(t, f.orders.created)
	assert.Empty(t, f.customers.increments)
	assert.Empty(t, f.discounts.redeemed)
	assert.Empty(t, f.delivery.reserved)
}

func TestPlaceOrder_FallbackWhenPostcodeBusy(t *testing.T) {
	f := newFixture()
	f.delivery.byPostcode = nil

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  1,
		Pizzas:      []CartItem{{ItemID: 1, Quantity: 1}},
		RequestedAt: testNow,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(9), res.Driver.ID)
}

func TestPlaceOrder_ExpiredCooldownDriverSelectable(t *testing.T) {
	f := newFixture()
	past := testNow.Add(-time.Minute)
	f.delivery.byPostcode[55] = []delivery.Driver{
		{ID: 3, Name: "Marco", IsAvailable: false, UnavailableUntil: &past},
	}

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  1,
		Pizzas:      []CartItem{{ItemID: 1, Quantity: 1}},
		RequestedAt: testNow,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), res.Driver.ID)
	assert.Equal(t, testNow.Add(delivery.Cooldown), f.delivery.reserved[3])
	require.NotNil(t, res.Driver.UnavailableUntil)
	assert.Equal(t, testNow.Add(delivery.Cooldown), *res.Driver.UnavailableUntil)
}

func TestPlaceOrder_MergesDuplicateCartLines(t *testing.T) {
	f := newFixture()

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID: 1,
		Pizzas: []CartItem{
			{ItemID: 1, Quantity: 1},
			{ItemID: 1, Quantity: 2},
		},
		Drinks: []CartItem{
			{ItemID: 101, Quantity: 1},
			{ItemID: 101, Quantity: 1},
		},
		RequestedAt: testNow,
	})
	require.NoError(t, err)

	require.Len(t, res.Order.Items, 2)
	assert.Equal(t, 3, res.Order.Items[0].Quantity)
	assert.Equal(t, 2, res.Order.Items[1].Quantity)
	assert.Equal(t, 3, f.customers.increments[1])
}

func TestPlaceOrder_ConstraintViolationAtCommit(t *testing.T) {
	f := newFixture()
	f.store.commitErr = errors.Wrap(ErrConstraint, "commit")

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  1,
		Pizzas:      []CartItem{{ItemID: 1, Quantity: 1}},
		RequestedAt: testNow,
	})

	verr := requireFieldError(t, err, FieldDatabase)
	assert.Len(t, verr.Fields, 1)
}

func TestPlaceOrder_InfrastructureErrorPassesThrough(t *testing.T) {
	f := newFixture()
	f.orders.err = errors.New("connection reset")

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  1,
		Pizzas:      []CartItem{{ItemID: 1, Quantity: 1}},
		RequestedAt: testNow,
	})

	require.Error(t, err)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestPlaceOrder_ResultCarriesPostcode(t *testing.T) {
	f := newFixture()

	res, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  1,
		Pizzas:      []CartItem{{ItemID: 1, Quantity: 1}},
		Notes:       "ring twice",
		RequestedAt: testNow,
	})
	require.NoError(t, err)

	require.NotNil(t, res.Order.PostcodeID)
	assert.Equal(t, int64(55), *res.Order.PostcodeID)
	assert.Equal(t, "ring twice", res.Order.Notes)
	assert.Equal(t, testNow, res.Order.PlacedAt)
	require.NotNil(t, res.Order.DriverID)
	assert.Equal(t, res.Driver.ID, *res.Order.DriverID)
}
