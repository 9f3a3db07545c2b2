//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/slicelab/pizzeria/internal/repository"
)

// setupTestDB starts a throwaway postgres container, connects a pool to it,
// and applies the schema. The returned cleanup tears both down.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := repository.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	if err := repository.RunMigrations(ctx, pool); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}
	return pool, cleanup
}

// seedFixtures loads the minimal data set the placement tests run against.
func seedFixtures(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	stmts := []string{
		`INSERT INTO postcodes (postcode_id, postcode, city) VALUES (1, '10115', 'Berlin')`,
		`INSERT INTO customers (customer_id, name, birthdate, postcode_id, pizzas_ordered)
		 VALUES (1, 'Ada Lovelace', '1990-03-14', 1, 0),
		        (2, 'Grace Hopper', NULL, 1, 12)`,
		`INSERT INTO pizzas (pizza_id, pizza_name) VALUES (1, 'Margherita'), (2, 'Diavola')`,
		`INSERT INTO pizza_menu_prices (pizza_id, calculated_price, is_vegetarian)
		 VALUES (1, 8.00, TRUE), (2, 10.00, FALSE)`,
		`INSERT INTO menu_items (item_id, name, item_type, base_price, active)
		 VALUES (101, 'Cola', 'drink', 2.50, TRUE),
		        (201, 'Tiramisu', 'dessert', 4.00, TRUE)`,
		`INSERT INTO discount_codes (discount_code_id, code, discount_value, is_active)
		 VALUES (7, 'SAVE10', 10.00, TRUE)`,
		`INSERT INTO delivery_persons (driver_id, name, is_available)
		 VALUES (3, 'Marco', TRUE), (4, 'Luca', TRUE)`,
		`INSERT INTO delivery_person_postcodes (driver_id, postcode_id) VALUES (3, 1), (4, 1)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("seed: %v\n%s", err, stmt)
		}
	}
}
