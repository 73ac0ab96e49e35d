package repositories

import (
	"context"

	domain "github.com/forsage-shop/pos/internal/domain"
)

// KVStore is the durable key-value backend. Each collection lives under one key and is
// always written as a whole. Get reports found=false for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// Pinger is implemented by backends that can report liveness for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Collection loads and replaces one entity collection. LoadAll never fails on a corrupt
// payload; it returns an empty list instead. Backend outages are returned as errors.
type Collection[T any] interface {
	LoadAll(ctx context.Context) ([]T, error)
	SaveAll(ctx context.Context, items []T) error
}

// Registry aggregates the three collections behind one unit of work.
type Registry interface {
	Customers() Collection[domain.Customer]
	Products() Collection[domain.Product]
	Orders() Collection[domain.Order]
	Health() HealthRepository
	UnitOfWork
	Close(ctx context.Context) error
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork groups collection operations so that a read-modify-replace cycle is not
// interleaved with another one.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// HealthRepository exposes status of downstream dependencies for readiness checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.HealthReport, error)
}
