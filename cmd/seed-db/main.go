// Command seed-db applies the schema and loads a small sample dataset:
// postcodes, customers, the priced pizza menu, drinks and desserts, delivery
// drivers with their zones, and a few discount codes. Safe to re-run; every
// insert is conflict-tolerant.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slicelab/pizzeria/internal/repository"
)

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	for name, stmts := range map[string][]string{
		"postcodes":      postcodes,
		"customers":      customers,
		"catalog":        catalog,
		"drivers":        drivers,
		"discount codes": discountCodes,
	} {
		slog.Info("seeding", slog.String("dataset", name))
		if err := execAll(ctx, pool, stmts); err != nil {
			return errors.Wrapf(err, "seed %s", name)
		}
	}
	return nil
}

func execAll(ctx context.Context, pool *pgxpool.Pool, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var postcodes = []string{
	`INSERT INTO postcodes (postcode_id, postcode, city) VALUES
		(1, '6211', 'Maastricht Centrum'),
		(2, '6221', 'Maastricht Wyck'),
		(3, '6229', 'Maastricht Randwyck')
	ON CONFLICT (postcode_id) DO NOTHING`,
}

var customers = []string{
	`INSERT INTO customers (customer_id, name, birthdate, postcode_id, pizzas_ordered) VALUES
		(1, 'Anna Janssen', '1992-04-17', 1, 0),
		(2, 'Bram de Vries', '1988-11-02', 2, 12),
		(3, 'Chiara Rossi', NULL, 3, 4)
	ON CONFLICT (customer_id) DO NOTHING`,
}

var catalog = []string{
	`INSERT INTO pizzas (pizza_id, pizza_name) VALUES
		(1, 'Margherita'),
		(2, 'Funghi'),
		(3, 'Diavola'),
		(4, 'Quattro Formaggi'),
		(5, 'Vegana')
	ON CONFLICT (pizza_id) DO NOTHING`,
	`INSERT INTO pizza_menu_prices (pizza_id, calculated_price, is_vegan, is_vegetarian) VALUES
		(1, 8.00, FALSE, TRUE),
		(2, 9.25, FALSE, TRUE),
		(3, 10.50, FALSE, FALSE),
		(4, 11.75, FALSE, TRUE),
		(5, 10.00, TRUE, TRUE)
	ON CONFLICT (pizza_id) DO NOTHING`,
	`INSERT INTO menu_items (item_id, name, item_type, base_price, is_vegan, is_vegetarian, active) VALUES
		(100, 'Cola', 'drink', 2.50, TRUE, TRUE, TRUE),
		(101, 'Sparkling Water', 'drink', 2.00, TRUE, TRUE, TRUE),
		(102, 'Craft Lemonade', 'drink', 3.25, TRUE, TRUE, TRUE),
		(200, 'Tiramisu', 'dessert', 4.50, FALSE, TRUE, TRUE),
		(201, 'Vegan Brownie', 'dessert', 4.00, TRUE, TRUE, TRUE)
	ON CONFLICT (item_id) DO NOTHING`,
}

var drivers = []string{
	`INSERT INTO delivery_persons (driver_id, name, is_available) VALUES
		(1, 'Daan Peters', TRUE),
		(2, 'Eva Smit', TRUE),
		(3, 'Finn Bakker', TRUE)
	ON CONFLICT (driver_id) DO NOTHING`,
	`INSERT INTO delivery_person_postcodes (driver_id, postcode_id) VALUES
		(1, 1), (1, 2),
		(2, 2), (2, 3),
		(3, 3)
	ON CONFLICT (driver_id, postcode_id) DO NOTHING`,
}

var discountCodes = []string{
	`INSERT INTO discount_codes (code, discount_value, is_active, valid_from, valid_to) VALUES
		('SAVE10', 10.00, TRUE, NULL, NULL),
		('WELCOME15', 15.00, TRUE, NULL, NULL),
		('SUMMER20', 20.00, TRUE, '2026-06-01', '2026-08-31')
	ON CONFLICT (code) DO NOTHING`,
}
