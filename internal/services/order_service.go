package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/forsage-shop/pos/internal/domain"
	"github.com/forsage-shop/pos/internal/platform/textutil"
	"github.com/forsage-shop/pos/internal/repositories"
)

const (
	instrumentationName = "github.com/forsage-shop/pos/internal/services"

	orderIDPrefix   = "ord_"
	productIDPrefix = "prd_"
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.Collection[domain.Order]
	Customers   repositories.Collection[domain.Customer]
	Products    repositories.Collection[domain.Product]
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders     repositories.Collection[domain.Order]
	customers  repositories.Collection[domain.Customer]
	products   repositories.Collection[domain.Product]
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	newID      func() string
	events     OrderEventPublisher
	logger     func(context.Context, string, map[string]any)
	tracer     trace.Tracer
	created    metric.Int64Counter
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order collection is required")
	}
	if deps.Customers == nil {
		return nil, errors.New("order service: customer collection is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order service: product collection is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	created, err := otel.Meter(instrumentationName).Int64Counter(
		"pos.orders.created",
		metric.WithDescription("Orders finalised at the counter"),
	)
	if err != nil {
		return nil, fmt.Errorf("order service: create counter: %w", err)
	}

	return &orderService{
		orders:     deps.Orders,
		customers:  deps.Customers,
		products:   deps.Products,
		unitOfWork: unit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:   idGen,
		events:  deps.Events,
		logger:  logger,
		tracer:  otel.Tracer(instrumentationName),
		created: created,
	}, nil
}

func (s *orderService) QuoteOrder(ctx context.Context, cmd QuoteOrderCommand) (OrderQuote, error) {
	items, err := buildOrderItems(cmd.Items, nil)
	if err != nil {
		return OrderQuote{}, err
	}
	if err := validateAmount("expenses", cmd.Expenses); err != nil {
		return OrderQuote{}, err
	}
	if err := validateAmount("prepayment", cmd.Prepayment); err != nil {
		return OrderQuote{}, err
	}

	discount := 0.0
	switch {
	case cmd.DiscountPercent != nil:
		discount = repositories.ClampDiscount(*cmd.DiscountPercent)
	case strings.TrimSpace(cmd.CustomerID) != "":
		customers, err := s.customers.LoadAll(ctx)
		if err != nil {
			return OrderQuote{}, mapRepositoryError(err, ErrCustomerNotFound)
		}
		customer, ok := findCustomer(customers, cmd.CustomerID)
		if !ok {
			return OrderQuote{}, ErrCustomerNotFound
		}
		discount = customer.DiscountPercent
	}

	fin := ComputeOrderFinancials(items, discount, cmd.Expenses)
	return OrderQuote{
		DiscountPercent:  discount,
		Financials:       fin,
		RemainingBalance: RemainingBalance(fin.TotalAmount, cmd.Prepayment),
	}, nil
}

func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (order Order, err error) {
	ctx, span := s.tracer.Start(ctx, "orders.create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" {
		return Order{}, fmt.Errorf("%w: customer id is required", ErrOrderInvalidInput)
	}
	items, err := buildOrderItems(cmd.Items, s.nextProductID)
	if err != nil {
		return Order{}, err
	}
	if err := validateAmount("expenses", cmd.Expenses); err != nil {
		return Order{}, err
	}
	if err := validateAmount("prepayment", cmd.Prepayment); err != nil {
		return Order{}, err
	}
	method := cmd.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodCash
	}
	if !method.Valid() {
		return Order{}, fmt.Errorf("%w: unknown payment method %q", ErrOrderInvalidInput, method)
	}

	var registered []Product
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		customers, err := s.customers.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrCustomerNotFound)
		}
		customer, ok := findCustomer(customers, customerID)
		if !ok {
			return ErrCustomerNotFound
		}
		if len(customer.Vehicles) == 0 {
			return ErrCustomerHasNoVehicles
		}
		vehicle := customer.Vehicles[0]
		if id := strings.TrimSpace(cmd.VehicleID); id != "" {
			if vehicle, ok = customer.Vehicle(id); !ok {
				return ErrVehicleNotFound
			}
		}

		fin := ComputeOrderFinancials(items, customer.DiscountPercent, cmd.Expenses)
		order = Order{
			ID:               s.nextOrderID(),
			CustomerID:       customer.ID,
			CustomerSnapshot: customer.Clone(),
			VehicleSnapshot:  vehicle,
			Items:            items,
			Status:           domain.OrderStatusNew,
			Date:             s.now(),
			TotalAmount:      fin.TotalAmount,
			Prepayment:       cmd.Prepayment,
			Expenses:         cmd.Expenses,
			PaymentMethod:    method,
			TotalProfit:      fin.TotalProfit,
			Notes:            textutil.CleanMultiline(cmd.Notes),
		}

		orders, err := s.orders.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrOrderNotFound)
		}
		if err := s.orders.SaveAll(txCtx, append([]Order{order}, orders...)); err != nil {
			return mapRepositoryError(err, ErrOrderNotFound)
		}

		registered, err = registerOrderProducts(txCtx, s.products, items)
		if err != nil {
			s.logger(txCtx, "catalog.autoregister.failed", map[string]any{
				"order": order.ID,
				"error": err.Error(),
			})
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	span.SetAttributes(
		attribute.String("pos.order_id", order.ID),
		attribute.Int("pos.order_items", len(order.Items)),
	)
	s.created.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", string(order.PaymentMethod))))
	s.logger(ctx, "order.created", map[string]any{
		"order":    order.ID,
		"customer": order.CustomerID,
		"total":    order.TotalAmount,
	})
	if len(registered) > 0 {
		s.logger(ctx, "catalog.autoregistered", map[string]any{
			"order":    order.ID,
			"products": len(registered),
		})
	}
	s.publishEvent(ctx, newOrderEvent(OrderEventCreated, order, order.Date))
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	orders, err := s.orders.LoadAll(ctx)
	if err != nil {
		return Order{}, mapRepositoryError(err, ErrOrderNotFound)
	}
	idx := slices.IndexFunc(orders, func(o Order) bool { return o.ID == orderID })
	if idx < 0 {
		return Order{}, ErrOrderNotFound
	}
	return orders[idx], nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, *filter.Status)
	}
	orders, err := s.orders.LoadAll(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, ErrOrderNotFound)
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		if filter.From != nil && o.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && o.Date.After(*filter.To) {
			continue
		}
		if !orderMatches(o, filter.Query) {
			continue
		}
		out = append(out, o)
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

func (s *orderService) CustomerHistory(ctx context.Context, customerID string) (CustomerHistory, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return CustomerHistory{}, fmt.Errorf("%w: customer id is required", ErrCustomerInvalidInput)
	}
	orders, err := s.ListOrders(ctx, OrderListFilter{CustomerID: customerID})
	if err != nil {
		return CustomerHistory{}, err
	}
	history := CustomerHistory{CustomerID: customerID, Orders: orders}
	for _, o := range orders {
		history.TotalSpent += o.TotalAmount
	}
	return history, nil
}

func (s *orderService) SetStatus(ctx context.Context, orderID string, status OrderStatus) (Order, error) {
	if !status.Valid() {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, status)
	}
	var previous OrderStatus
	order, err := s.mutate(ctx, orderID, func(o *Order) {
		previous = o.Status
		SetStatus(o, status)
	})
	if err != nil {
		return Order{}, err
	}
	event := newOrderEvent(OrderEventStatusChanged, order, s.now())
	event.PreviousStatus = previous
	s.logger(ctx, OrderEventStatusChanged, map[string]any{
		"order":    order.ID,
		"previous": string(previous),
		"status":   string(order.Status),
	})
	s.publishEvent(ctx, event)
	return order, nil
}

func (s *orderService) CloseDebt(ctx context.Context, orderID string) (Order, error) {
	var previous OrderStatus
	order, err := s.mutate(ctx, orderID, func(o *Order) {
		previous = o.Status
		CloseDebt(o)
	})
	if err != nil {
		return Order{}, err
	}
	event := newOrderEvent(OrderEventDebtClosed, order, s.now())
	event.PreviousStatus = previous
	s.logger(ctx, OrderEventDebtClosed, map[string]any{
		"order":      order.ID,
		"prepayment": order.Prepayment,
		"status":     string(order.Status),
	})
	s.publishEvent(ctx, event)
	return order, nil
}

func (s *orderService) UpdateExpenses(ctx context.Context, orderID string, expenses float64) (Order, error) {
	if err := validateAmount("expenses", expenses); err != nil {
		return Order{}, err
	}
	order, err := s.mutate(ctx, orderID, func(o *Order) { UpdateExpenses(o, expenses) })
	if err != nil {
		return Order{}, err
	}
	s.publishEvent(ctx, newOrderEvent(OrderEventUpdated, order, s.now()))
	return order, nil
}

func (s *orderService) UpdatePrepayment(ctx context.Context, orderID string, prepayment float64) (Order, error) {
	if err := validateAmount("prepayment", prepayment); err != nil {
		return Order{}, err
	}
	order, err := s.mutate(ctx, orderID, func(o *Order) { UpdatePrepayment(o, prepayment) })
	if err != nil {
		return Order{}, err
	}
	s.publishEvent(ctx, newOrderEvent(OrderEventUpdated, order, s.now()))
	return order, nil
}

func (s *orderService) UpdateNotes(ctx context.Context, orderID string, notes string) (Order, error) {
	cleaned := textutil.CleanMultiline(notes)
	return s.mutate(ctx, orderID, func(o *Order) { UpdateNotes(o, cleaned) })
}

func (s *orderService) DeleteOrder(ctx context.Context, cmd DeleteCommand) error {
	orderID := strings.TrimSpace(cmd.ID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if !cmd.Confirmed {
		return ErrConfirmationRequired
	}

	var removed Order
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		orders, err := s.orders.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrOrderNotFound)
		}
		idx := slices.IndexFunc(orders, func(o Order) bool { return o.ID == orderID })
		if idx < 0 {
			return ErrOrderNotFound
		}
		removed = orders[idx]
		return mapRepositoryError(s.orders.SaveAll(txCtx, slices.Delete(orders, idx, idx+1)), ErrOrderNotFound)
	})
	if err != nil {
		return err
	}
	s.logger(ctx, "order.deleted", map[string]any{"order": orderID})
	s.publishEvent(ctx, newOrderEvent(OrderEventDeleted, removed, s.now()))
	return nil
}

// mutate applies fn to one order and writes the collection back in a single save.
func (s *orderService) mutate(ctx context.Context, orderID string, fn func(*Order)) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	var updated Order
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		orders, err := s.orders.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrOrderNotFound)
		}
		idx := slices.IndexFunc(orders, func(o Order) bool { return o.ID == orderID })
		if idx < 0 {
			return ErrOrderNotFound
		}
		fn(&orders[idx])
		updated = orders[idx]
		return mapRepositoryError(s.orders.SaveAll(txCtx, orders), ErrOrderNotFound)
	})
	if err != nil {
		return Order{}, err
	}
	return updated, nil
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func (s *orderService) nextOrderID() string {
	return orderIDPrefix + s.newID()
}

func (s *orderService) nextProductID() string {
	return productIDPrefix + s.newID()
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":   event.Type,
			"order":  event.OrderID,
			"error":  err.Error(),
			"status": string(event.Status),
		})
	}
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// buildOrderItems validates operator input and snapshots it. newID may be nil for quotes.
func buildOrderItems(inputs []OrderItemInput, newID func() string) ([]OrderItem, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrOrderInvalidInput)
	}
	items := make([]OrderItem, 0, len(inputs))
	for i, in := range inputs {
		name := textutil.CleanField(in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: item %d: name is required", ErrOrderInvalidInput, i)
		}
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d: quantity must be positive", ErrOrderInvalidInput, i)
		}
		if err := validateAmount("buy price", in.BuyPrice); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if err := validateAmount("sell price", in.SellPrice); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		item := OrderItem{
			Product: Product{
				Code:      textutil.CleanField(in.Code),
				Brand:     textutil.CleanField(in.Brand),
				Name:      name,
				BuyPrice:  in.BuyPrice,
				SellPrice: in.SellPrice,
			},
			Quantity: in.Quantity,
		}
		if newID != nil {
			item.ID = newID()
		}
		items = append(items, item)
	}
	return items, nil
}

func validateAmount(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrOrderInvalidInput, field)
	}
	if value < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrOrderInvalidInput, field)
	}
	return nil
}

func findCustomer(customers []Customer, id string) (Customer, bool) {
	for _, c := range customers {
		if c.ID == id {
			return c, true
		}
	}
	return Customer{}, false
}
