package order

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/slicelab/pizzeria/internal/domain/catalog"
)

// LoyaltyThreshold is the lifetime pizza count at which a customer starts
// receiving the loyalty discount. The counter is checked before the current
// order's pizzas are added to it, so the order that crosses the threshold
// does not itself get the discount.
const LoyaltyThreshold = 10

// LoyaltyDiscount is the loyalty percentage as a fraction.
var LoyaltyDiscount = decimal.RequireFromString("0.10")

// ApplyBirthdayFreebies fully discounts one unit of the cheapest pizza line
// and one unit of the cheapest drink line. Ties go to the earlier line. The
// promotion flags are set only when a qualifying line existed. The caller
// decides whether today is the customer's birthday.
func (o *Order) ApplyBirthdayFreebies() {
	if target := o.cheapestLine(catalog.CategoryPizza); target != nil {
		target.ApplyDiscount(target.UnitPrice)
		o.BirthdayPizzaApplied = true
	}
	if target := o.cheapestLine(catalog.CategoryDrink); target != nil {
		target.ApplyDiscount(target.UnitPrice)
		o.BirthdayDrinkApplied = true
	}
}

// cheapestLine returns the line of the given category with the lowest unit
// price, or nil. Strict comparison keeps the first line on ties.
func (o *Order) cheapestLine(cat catalog.Category) *OrderItem {
	var best *OrderItem
	for _, it := range o.Items {
		if it.Category != cat {
			continue
		}
		if best == nil || it.UnitPrice.LessThan(best.UnitPrice) {
			best = it
		}
	}
	return best
}

// PercentageDiscountAmount computes fraction of the order's remaining
// discountable value (gross minus discounts granted so far), quantized
// half-up to 2 decimals. Returns zero when nothing is left to discount.
// Computing against the remainder rather than full gross is what makes
// sequential discounts compound instead of stack.
func (o *Order) PercentageDiscountAmount(fraction decimal.Decimal) decimal.Decimal {
	base := decimal.Zero
	for _, it := range o.Items {
		base = base.Add(it.Discountable())
	}
	if !base.IsPositive() {
		return decimal.Zero
	}
	return base.Mul(fraction).Round(2)
}

// ApplyPercentageDiscount computes the percentage amount and allocates it
// across the lines. A no-op when nothing remains discountable.
func (o *Order) ApplyPercentageDiscount(fraction decimal.Decimal) {
	amount := o.PercentageDiscountAmount(fraction)
	if amount.IsPositive() {
		o.AllocateDiscount(amount)
	}
}

// AllocateDiscount distributes amount across the order's lines: largest
// remaining discountable first, each line capped at its own line total. The
// greedy order is deterministic (stable sort, ties keep line order). If
// aggregate capacity is short the shortfall is dropped, never stored as a
// negative or an over-cap line discount.
func (o *Order) AllocateDiscount(amount decimal.Decimal) {
	lines := make([]*OrderItem, len(o.Items))
	copy(lines, o.Items)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Discountable().GreaterThan(lines[j].Discountable())
	})

	remaining := amount
	for _, it := range lines {
		available := it.Discountable()
		if !available.IsPositive() {
			continue
		}
		grant := decimal.Min(available, remaining)
		it.ApplyDiscount(grant)
		remaining = remaining.Sub(grant)
		if !remaining.IsPositive() {
			break
		}
	}
}
