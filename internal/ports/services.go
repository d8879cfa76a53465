package ports

import (
	"context"

	"catalog-api/internal/domain"
)

type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// Metrics receives authorization outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveAuthorization(required domain.PermissionLevel, granted bool)
}

// StoreMetrics counts storage calls per entity kind and operation.
type StoreMetrics interface {
	ObserveStoreOperation(entity, op string, err error)
}
