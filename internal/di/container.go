package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/forsage-shop/pos/internal/handlers"
	"github.com/forsage-shop/pos/internal/platform/config"
	pfirestore "github.com/forsage-shop/pos/internal/platform/firestore"
	"github.com/forsage-shop/pos/internal/platform/jobs"
	"github.com/forsage-shop/pos/internal/platform/observability"
	"github.com/forsage-shop/pos/internal/repositories"
	"github.com/forsage-shop/pos/internal/repositories/file"
	firestoreRepo "github.com/forsage-shop/pos/internal/repositories/firestore"
	"github.com/forsage-shop/pos/internal/repositories/memory"
	"github.com/forsage-shop/pos/internal/repositories/sqlstore"
	"github.com/forsage-shop/pos/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Orders     services.OrderService
	Catalog    services.CatalogService
	Customers  services.CustomerService
	Statistics services.StatisticsService
}

// Container wires repositories, services and the HTTP router for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
	Router       http.Handler

	logger    *zap.Logger
	publisher *jobs.PubSubOrderEventPublisher
	pubsub    *pubsub.Client
}

// Option customises container wiring.
type Option func(*options)

type options struct {
	store   repositories.KVStore
	version string
	clock   func() time.Time
}

// WithStore bypasses the configured storage driver. Tests pass an in-memory store.
func WithStore(store repositories.KVStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithVersion reports version on /healthz.
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = strings.TrimSpace(version)
	}
}

// WithClock overrides time.Now for services.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// NewContainer constructs the runtime dependencies from cfg.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	store := o.store
	if store == nil {
		var err error
		store, err = openStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	c := &Container{Config: cfg, logger: logger}

	var probes []repositories.Probe
	if cfg.Events.Enabled() {
		if err := c.openPublisher(ctx, cfg.Events); err != nil {
			closeStore(ctx, store)
			return nil, err
		}
		probes = append(probes, repositories.Probe{Name: "pubsub", Check: c.publisher.Ping})
	}

	reg, err := repositories.NewRegistry(store,
		repositories.WithKeyPrefix(cfg.Storage.KeyPrefix),
		repositories.WithLogger(logger.Named("storage")),
		repositories.WithClock(o.clock),
		repositories.WithDiscountClamp(cfg.Shop.ClampDiscount),
		repositories.WithProbes(probes...),
	)
	if err != nil {
		c.closePublisher()
		closeStore(ctx, store)
		return nil, fmt.Errorf("build registry: %w", err)
	}
	c.Repositories = reg

	svc, err := buildServices(reg, cfg, c.publisher, logger, o.clock)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.Services = svc
	c.Router = buildRouter(reg, svc, cfg, logger, o.version)
	return c, nil
}

// Close flushes pending events and releases the storage backend.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.closePublisher()
	if c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func (c *Container) openPublisher(ctx context.Context, cfg config.EventsConfig) error {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("build pubsub client: %w", err)
	}
	topic := client.Topic(cfg.Topic)
	topic.EnableMessageOrdering = true
	publisher, err := jobs.NewPubSubOrderEventPublisher(topic)
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("build order event publisher: %w", err)
	}
	c.pubsub = client
	c.publisher = publisher
	return nil
}

func (c *Container) closePublisher() {
	if c.publisher != nil {
		c.publisher.Stop()
		c.publisher = nil
	}
	if c.pubsub != nil {
		if err := c.pubsub.Close(); err != nil {
			c.logger.Warn("pubsub close error", zap.Error(err))
		}
		c.pubsub = nil
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.KVStore, error) {
	debug := cfg.Log.Level == "debug"
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverFile:
		store, err := file.Open(cfg.Storage.FilePath, logger.Named("file-store"))
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return store, nil
	case config.DriverSQLite:
		store, err := sqlstore.OpenSQLite(cfg.Storage.SQLitePath, debug)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case config.DriverPostgres:
		store, err := sqlstore.OpenPostgres(cfg.Storage.PostgresDSN, debug)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case config.DriverFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		if _, err := provider.Client(ctx); err != nil {
			return nil, fmt.Errorf("initialise firestore client: %w", err)
		}
		store, err := firestoreRepo.NewStore(provider, cfg.Firestore.Collection)
		if err != nil {
			_ = provider.Close(ctx)
			return nil, fmt.Errorf("open firestore store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func closeStore(ctx context.Context, store repositories.KVStore) {
	switch closer := store.(type) {
	case interface{ Close(context.Context) error }:
		_ = closer.Close(ctx)
	case interface{ Close() error }:
		_ = closer.Close()
	}
}

func buildServices(reg *repositories.KVRegistry, cfg config.Config, publisher *jobs.PubSubOrderEventPublisher, logger *zap.Logger, clock func() time.Time) (Services, error) {
	var svc Services
	events := observability.EventLogger(logger.Named("services"))

	var orderEvents services.OrderEventPublisher
	if publisher != nil {
		orderEvents = publisher
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:     reg.Orders(),
		Customers:  reg.Customers(),
		Products:   reg.Products(),
		UnitOfWork: reg,
		Clock:      clock,
		Events:     orderEvents,
		Logger:     events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orders

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:   reg.Products(),
		UnitOfWork: reg,
		Logger:     events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalog

	customers, err := services.NewCustomerService(services.CustomerServiceDeps{
		Customers:      reg.Customers(),
		UnitOfWork:     reg,
		Clock:          clock,
		Logger:         events,
		ClampDiscount:  cfg.Shop.ClampDiscount,
		BirthdayWindow: cfg.Shop.BirthdayWindowDays,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build customer service: %w", err)
	}
	svc.Customers = customers

	stats, err := services.NewStatisticsService(services.StatisticsServiceDeps{
		Orders:       reg.Orders(),
		Clock:        clock,
		TopCustomers: cfg.Shop.TopCustomers,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build statistics service: %w", err)
	}
	svc.Statistics = stats

	if svc.Orders == nil || svc.Catalog == nil || svc.Customers == nil || svc.Statistics == nil {
		return Services{}, errors.New("service wiring incomplete")
	}
	return svc, nil
}

func buildRouter(reg *repositories.KVRegistry, svc Services, cfg config.Config, logger *zap.Logger, version string) http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(),
		observability.RequestLoggerMiddleware(),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthRepository(reg.Health()),
		handlers.WithHealthVersion(version),
	)

	var opts []handlers.Option
	opts = append(opts, handlers.WithMiddlewares(middlewares...))
	opts = append(opts, handlers.WithHealthHandlers(healthHandlers))
	opts = append(opts, handlers.WithCustomerRoutes(handlers.NewCustomerHandlers(svc.Customers, svc.Orders).Routes))
	opts = append(opts, handlers.WithProductRoutes(handlers.NewProductHandlers(svc.Catalog, cfg.Shop.ImportMaxBytes).Routes))
	opts = append(opts, handlers.WithOrderRoutes(handlers.NewOrderHandlers(svc.Orders).Routes))
	opts = append(opts, handlers.WithStatisticsRoutes(handlers.NewStatisticsHandlers(svc.Statistics).Routes))
	return handlers.NewRouter(opts...)
}
