package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/slicelab/pizzeria/internal/domain/catalog"
)

// pizzaLine pairs a resolved, priced pizza with its requested quantity.
type pizzaLine struct {
	pizza    *catalog.Pizza
	quantity int
}

// menuLine pairs a resolved menu item with its requested quantity.
type menuLine struct {
	item     *catalog.MenuItem
	quantity int
}

// resolvePizzaLines resolves normalized pizza requests against priced catalog
// pizzas. Unresolvable ids collapse into one generic message so the error
// does not leak which catalog ids exist; resolution continues so the caller
// still gets every resolvable line.
func resolvePizzaLines(ctx context.Context, repo catalog.Repository, reqs []CartItem, fields fieldErrors) ([]pizzaLine, error) {
	lines := make([]pizzaLine, 0, len(reqs))
	for _, req := range reqs {
		p, err := repo.PizzaWithPrice(ctx, req.ItemID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				fields.setDefault(FieldPizzas, "One or more pizzas are unavailable.")
				continue
			}
			return nil, errors.Wrap(err, "resolve pizza")
		}
		lines = append(lines, pizzaLine{pizza: p, quantity: req.Quantity})
	}
	return lines, nil
}

// resolveMenuLines resolves normalized drink or dessert requests against
// active menu items in one batch and verifies each resolved item carries the
// expected category. A drink id supplied in the dessert slot is an error, not
// a silent re-tag. All mismatches for the category are collected.
func resolveMenuLines(ctx context.Context, repo catalog.Repository, reqs []CartItem, want catalog.Category, fields fieldErrors) ([]menuLine, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(reqs))
	for i, req := range reqs {
		ids[i] = req.ItemID
	}
	items, err := repo.ActiveMenuItems(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "resolve menu items")
	}

	byID := make(map[int64]*catalog.MenuItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	key := FieldDrinks
	if want == catalog.CategoryDessert {
		key = FieldDesserts
	}

	lines := make([]menuLine, 0, len(reqs))
	for _, req := range reqs {
		item, ok := byID[req.ItemID]
		if !ok || item.Category != want {
			fields.set(key, fmt.Sprintf("Item %d is not an available %s.", req.ItemID, want))
			continue
		}
		lines = append(lines, menuLine{item: item, quantity: req.Quantity})
	}
	return lines, nil
}
