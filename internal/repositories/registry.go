package repositories

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	domain "github.com/forsage-shop/pos/internal/domain"
)

const (
	// DefaultKeyPrefix keeps keys compatible with data exported from the browser build of the app.
	DefaultKeyPrefix = "autoparts_"

	customersKey = "customers"
	productsKey  = "products"
	ordersKey    = "orders"
)

// RegistryOption customises a KVRegistry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	keyPrefix     string
	logger        *zap.Logger
	clock         func() time.Time
	clampDiscount bool
	probes        []Probe
}

// WithKeyPrefix namespaces the collection keys.
func WithKeyPrefix(prefix string) RegistryOption {
	return func(o *registryOptions) {
		o.keyPrefix = prefix
	}
}

// WithLogger sets the logger used for corrupt payload warnings.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(o *registryOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the clock used to name corrupt payload backups.
func WithClock(fn func() time.Time) RegistryOption {
	return func(o *registryOptions) {
		if fn != nil {
			o.clock = fn
		}
	}
}

// WithDiscountClamp toggles clamping of stored customer discounts to [0,100] on load.
func WithDiscountClamp(enabled bool) RegistryOption {
	return func(o *registryOptions) {
		o.clampDiscount = enabled
	}
}

// WithProbes adds readiness probes next to the storage probe.
func WithProbes(probes ...Probe) RegistryOption {
	return func(o *registryOptions) {
		o.probes = append(o.probes, probes...)
	}
}

// KVRegistry implements Registry on top of any KVStore.
type KVRegistry struct {
	store     KVStore
	mu        sync.Mutex
	customers *jsonCollection[domain.Customer]
	products  *jsonCollection[domain.Product]
	orders    *jsonCollection[domain.Order]
	health    HealthRepository
}

var _ Registry = (*KVRegistry)(nil)

// NewRegistry wires the three collections over store.
func NewRegistry(store KVStore, opts ...RegistryOption) (*KVRegistry, error) {
	if store == nil {
		return nil, errors.New("registry: store is required")
	}
	options := registryOptions{
		keyPrefix:     DefaultKeyPrefix,
		logger:        zap.NewNop(),
		clock:         time.Now,
		clampDiscount: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	prefix := strings.TrimSpace(options.keyPrefix)
	metrics := newStoreMetrics(options.logger)
	codec := customerCodec{clampDiscount: options.clampDiscount}

	reg := &KVRegistry{store: store}
	reg.customers = newJSONCollection[domain.Customer](customersKey, prefix+customersKey, store, codec.decode, options.logger, metrics, options.clock)
	reg.products = newJSONCollection[domain.Product](productsKey, prefix+productsKey, store, nil, options.logger, metrics, options.clock)
	reg.orders = newJSONCollection[domain.Order](ordersKey, prefix+ordersKey, store, nil, options.logger, metrics, options.clock)

	probes := append([]Probe{{Name: "storage", Check: reg.ping}}, options.probes...)
	health, err := NewProbeHealthRepository(probes)
	if err != nil {
		return nil, err
	}
	reg.health = health
	return reg, nil
}

func (r *KVRegistry) Customers() Collection[domain.Customer] { return r.customers }
func (r *KVRegistry) Products() Collection[domain.Product]   { return r.products }
func (r *KVRegistry) Orders() Collection[domain.Order]       { return r.orders }
func (r *KVRegistry) Health() HealthRepository               { return r.health }

// RunInTx serialises fn against every other unit of work on this registry. Each
// SaveAll inside fn is a single full-collection write.
func (r *KVRegistry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("registry: transaction function is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

// Close releases the backend when it holds resources.
func (r *KVRegistry) Close(ctx context.Context) error {
	switch closer := r.store.(type) {
	case interface{ Close(context.Context) error }:
		return closer.Close(ctx)
	case interface{ Close() error }:
		return closer.Close()
	}
	return nil
}

func (r *KVRegistry) ping(ctx context.Context) error {
	if p, ok := r.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	_, _, err := r.store.Get(ctx, r.products.key)
	return err
}
