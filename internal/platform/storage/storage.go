package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-api/internal/config"
	"catalog-api/internal/infrastructure/dynamodb"
	"catalog-api/internal/infrastructure/postgres"
	"catalog-api/internal/ports"
)

type Stores struct {
	Users      ports.UserStore
	Roles      ports.RoleStore
	Products   ports.ProductStore
	Categories ports.CategoryStore
	Links      ports.ProductCategoryStore
	Orders     ports.OrderStore
}

// Backend owns the Postgres pool and the stores built on the configured
// identity backend. Catalog and order data always live in Postgres.
type Backend struct {
	Pool   *pgxpool.Pool
	Stores Stores
}

func Open(ctx context.Context, cfg *config.Config, metrics ports.StoreMetrics) (*Backend, error) {
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		URL:            cfg.DatabaseURL,
		MaxConns:       cfg.DBMaxConns,
		AcquireTimeout: cfg.DBAcquireTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	stores := Stores{
		Users:      postgres.NewUserRepository(pool, metrics),
		Roles:      postgres.NewRoleRepository(pool, metrics),
		Products:   postgres.NewProductRepository(pool, metrics),
		Categories: postgres.NewCategoryRepository(pool, metrics),
		Links:      postgres.NewProductCategoryRepository(pool, metrics),
		Orders:     postgres.NewOrderRepository(pool, metrics),
	}
	if cfg.IdentityBackend == config.BackendDynamoDB {
		client, err := dynamodb.NewClient(ctx, cfg.AWSRegion, cfg.TableName, metrics)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("open dynamodb: %w", err)
		}
		stores.Users = dynamodb.NewUserRepository(client)
		stores.Roles = dynamodb.NewRoleRepository(client)
	}
	return &Backend{Pool: pool, Stores: stores}, nil
}

func (b *Backend) Close() {
	b.Pool.Close()
}
