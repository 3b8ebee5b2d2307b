package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupPostgres(t *testing.T, c context.Context) *pgxpool.Pool {
	t.Helper()

	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_USER":     "postgres",
		}),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			filepath.Join("..", "db", "migrations", "000001_create_table_products.up.sql"),
		),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed terminating postgres container with error: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(c, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}

	pool, err := pgxpool.New(c, connStr)
	if err != nil {
		t.Fatalf("failed creating connection pool with error: %s", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

func setupRedis(t *testing.T, c context.Context) *redis.Client {
	t.Helper()

	redisContainer, err := testRedis.Run(c, "redis/redis-stack-server:7.4.0-v3")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := redisContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed terminating redis container with error: %s", err)
		}
	})

	endpoint, err := redisContainer.Endpoint(c, "")
	if err != nil {
		t.Fatalf("failed getting redis endpoint with error: %s", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("failed closing redis client with error: %s", err)
		}
	})

	return client
}

func seedCatalog(t *testing.T, c context.Context, cat Catalog) []Product {
	t.Helper()

	inserted := make([]Product, 0, len(SeedProducts()))
	for _, p := range SeedProducts() {
		p.ID = 0
		stored, err := cat.Insert(c, p)
		if err != nil {
			t.Fatalf("failed seeding product sku=%s with error: %s", p.SKU, err)
		}
		inserted = append(inserted, stored)
	}
	return inserted
}

func assertDecimalEqual(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	if !decimal.RequireFromString(expected).Equal(actual) {
		t.Fatalf("expected decimal %s but got %s", expected, actual)
	}
}
