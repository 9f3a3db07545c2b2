package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/slicelab/pizzeria/internal/domain/catalog"
)

const (
	getPizzaWithPriceSQL = `SELECT p.pizza_id, p.pizza_name, mp.calculated_price, mp.is_vegan, mp.is_vegetarian
		FROM pizzas p
		JOIN pizza_menu_prices mp ON mp.pizza_id = p.pizza_id
		WHERE p.pizza_id = $1`

	getActiveMenuItemsSQL = `SELECT item_id, name, item_type, base_price, is_vegan, is_vegetarian, active
		FROM menu_items
		WHERE item_id = ANY($1) AND active AND base_price IS NOT NULL`

	listPizzasSQL = `SELECT p.pizza_id, p.pizza_name, mp.calculated_price, mp.is_vegan, mp.is_vegetarian
		FROM pizzas p
		JOIN pizza_menu_prices mp ON mp.pizza_id = p.pizza_id
		ORDER BY p.pizza_id`

	listMenuItemsSQL = `SELECT item_id, name, item_type, base_price, is_vegan, is_vegetarian, active
		FROM menu_items
		WHERE active AND base_price IS NOT NULL AND item_type <> 'pizza'
		ORDER BY item_id`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL. The
// pizza price comes from the precomputed menu price table, so a pizza with no
// price row is simply not orderable.
type CatalogRepository struct {
	db queryer
}

// NewCatalogRepository returns a CatalogRepository over the given queryer.
func NewCatalogRepository(db queryer) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// PizzaWithPrice returns the priced pizza or catalog.ErrNotFound.
func (r *CatalogRepository) PizzaWithPrice(ctx context.Context, id int64) (*catalog.Pizza, error) {
	var p catalog.Pizza
	err := r.db.QueryRow(ctx, getPizzaWithPriceSQL, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.IsVegan, &p.IsVegetarian)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting pizza %d: %w", id, err)
	}
	return &p, nil
}

// ActiveMenuItems returns the active, priced menu items among ids. Missing
// ids are absent from the result, not an error.
func (r *CatalogRepository) ActiveMenuItems(ctx context.Context, ids []int64) ([]catalog.MenuItem, error) {
	rows, err := r.db.Query(ctx, getActiveMenuItemsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting menu items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanMenuItem)
	if err != nil {
		return nil, fmt.Errorf("getting menu items: %w", err)
	}
	return items, nil
}

// ListPizzas returns all priced pizzas ordered by id.
func (r *CatalogRepository) ListPizzas(ctx context.Context) ([]catalog.Pizza, error) {
	rows, err := r.db.Query(ctx, listPizzasSQL)
	if err != nil {
		return nil, fmt.Errorf("listing pizzas: %w", err)
	}
	pizzas, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Pizza, error) {
		var p catalog.Pizza
		err := row.Scan(&p.ID, &p.Name, &p.Price, &p.IsVegan, &p.IsVegetarian)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing pizzas: %w", err)
	}
	return pizzas, nil
}

// ListMenuItems returns all active non-pizza menu items ordered by id.
func (r *CatalogRepository) ListMenuItems(ctx context.Context) ([]catalog.MenuItem, error) {
	rows, err := r.db.Query(ctx, listMenuItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanMenuItem)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return items, nil
}

func scanMenuItem(row pgx.CollectableRow) (catalog.MenuItem, error) {
	var (
		m        catalog.MenuItem
		itemType string
	)
	err := row.Scan(&m.ID, &m.Name, &itemType, &m.Price, &m.IsVegan, &m.IsVegetarian, &m.Active)
	if err != nil {
		return catalog.MenuItem{}, err
	}
	m.Category = catalog.Category(itemType)
	return m, nil
}
