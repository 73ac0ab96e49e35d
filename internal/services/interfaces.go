package services

import (
	"context"
	"io"
	"time"

	domain "github.com/forsage-shop/pos/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Customer        = domain.Customer
	Vehicle         = domain.Vehicle
	Product         = domain.Product
	OrderItem       = domain.OrderItem
	Order           = domain.Order
	OrderStatus     = domain.OrderStatus
	PaymentMethod   = domain.PaymentMethod
	MarkupMode      = domain.MarkupMode
	ColumnMapping   = domain.ColumnMapping
	OrderFinancials = domain.OrderFinancials
)

// OrderService owns order creation and every later mutation of an order.
type OrderService interface {
	QuoteOrder(ctx context.Context, cmd QuoteOrderCommand) (OrderQuote, error)
	// CreateOrder refuses customers without vehicles. An empty cmd.VehicleID means the
	// customer's first vehicle; an unknown one yields ErrVehicleNotFound.
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error)
	CustomerHistory(ctx context.Context, customerID string) (CustomerHistory, error)
	SetStatus(ctx context.Context, orderID string, status OrderStatus) (Order, error)
	CloseDebt(ctx context.Context, orderID string) (Order, error)
	UpdateExpenses(ctx context.Context, orderID string, expenses float64) (Order, error)
	UpdatePrepayment(ctx context.Context, orderID string, prepayment float64) (Order, error)
	UpdateNotes(ctx context.Context, orderID string, notes string) (Order, error)
	DeleteOrder(ctx context.Context, cmd DeleteCommand) error
}

// CatalogService manages the product catalog.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductListFilter) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	CreateProduct(ctx context.Context, cmd ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, productID string, cmd ProductInput) (Product, error)
	DeleteProduct(ctx context.Context, cmd DeleteCommand) error
	ImportRows(ctx context.Context, cmd ImportRowsCommand) (ImportResult, error)
	ImportSpreadsheet(ctx context.Context, cmd ImportSpreadsheetCommand) (ImportResult, error)
	PreviewSpreadsheet(ctx context.Context, cmd PreviewSpreadsheetCommand) (SpreadsheetPreview, error)
	BulkMarkup(ctx context.Context, cmd BulkMarkupCommand) ([]Product, error)
}

// CustomerService manages customers and the vehicles they own.
type CustomerService interface {
	ListCustomers(ctx context.Context, filter CustomerListFilter) ([]Customer, error)
	GetCustomer(ctx context.Context, customerID string) (Customer, error)
	CreateCustomer(ctx context.Context, cmd CustomerInput) (Customer, error)
	UpdateCustomer(ctx context.Context, customerID string, cmd CustomerInput) (Customer, error)
	DeleteCustomer(ctx context.Context, cmd DeleteCommand) error
	AddVehicle(ctx context.Context, customerID string, cmd VehicleInput) (Customer, error)
	UpdateVehicle(ctx context.Context, customerID, vehicleID string, cmd VehicleInput) (Customer, error)
	RemoveVehicle(ctx context.Context, customerID, vehicleID string) (Customer, error)
	UpcomingBirthdays(ctx context.Context) ([]BirthdayReminder, error)
}

// StatisticsService reports revenue and profit over a period.
type StatisticsService interface {
	Summarize(ctx context.Context, filter StatisticsFilter) (Statistics, error)
}

// DeleteCommand carries the operator's explicit confirmation for destructive operations.
type DeleteCommand struct {
	ID        string
	Confirmed bool
}

// OrderItemInput is a line item as entered by the operator. Prices are captured by value.
type OrderItemInput struct {
	Code      string
	Brand     string
	Name      string
	BuyPrice  float64
	SellPrice float64
	Quantity  int
}

// QuoteOrderCommand prices a prospective order without persisting anything.
type QuoteOrderCommand struct {
	CustomerID      string
	DiscountPercent *float64
	Items           []OrderItemInput
	Expenses        float64
	Prepayment      float64
}

// OrderQuote is the result of QuoteOrder.
type OrderQuote struct {
	DiscountPercent  float64
	Financials       OrderFinancials
	RemainingBalance float64
}

// CreateOrderCommand finalises an order for a customer's vehicle.
type CreateOrderCommand struct {
	CustomerID    string
	// VehicleID selects the vehicle the order is for. Empty selects the customer's first
	// vehicle, the one the order form preselects when a customer is picked.
	VehicleID     string
	Items         []OrderItemInput
	Prepayment    float64
	Expenses      float64
	PaymentMethod PaymentMethod
	Notes         string
}

// OrderListFilter narrows ListOrders. Query matches customer name or phone, vehicle VIN,
// or the leading characters of the order id.
type OrderListFilter struct {
	Query      string
	Status     *OrderStatus
	CustomerID string
	From       *time.Time
	To         *time.Time
}

// CustomerHistory lists a customer's orders newest first.
type CustomerHistory struct {
	CustomerID string
	Orders     []Order
	TotalSpent float64
}

// ProductListFilter narrows ListProducts by name, code or brand.
type ProductListFilter struct {
	Query string
}

// ProductInput carries the editable product fields.
type ProductInput struct {
	Code      string
	Brand     string
	Name      string
	BuyPrice  float64
	SellPrice float64
}

// ImportRowsCommand imports an already extracted cell grid.
type ImportRowsCommand struct {
	Grid    [][]string
	Mapping ColumnMapping
}

// ImportSpreadsheetCommand imports an uploaded file.
type ImportSpreadsheetCommand struct {
	Filename string
	Content  io.Reader
	Mapping  ColumnMapping
}

// PreviewSpreadsheetCommand asks for the first rows of an upload so columns can be mapped.
type PreviewSpreadsheetCommand struct {
	Filename string
	Content  io.Reader
	Rows     int
}

// SpreadsheetPreview shows the head of an upload with column letters.
type SpreadsheetPreview struct {
	Columns   []string
	Rows      [][]string
	TotalRows int
}

// ImportResult summarises a merge of imported rows into the catalog.
type ImportResult struct {
	Extracted int
	Updated   int
	Added     int
	Catalog   []Product
}

// BulkMarkupCommand changes sell prices of the selected products by Percent.
type BulkMarkupCommand struct {
	ProductIDs []string
	Percent    float64
	Mode       MarkupMode
}

// CustomerListFilter narrows ListCustomers by name, phone, VIN or vehicle make.
type CustomerListFilter struct {
	Query string
}

// CustomerInput carries the editable customer fields. Vehicles replaces the whole list
// when non-nil.
type CustomerInput struct {
	Name            string
	Phone           string
	BirthDate       string
	DiscountPercent float64
	Vehicles        []VehicleInput
}

// VehicleInput carries the editable vehicle fields. ID is kept when present.
type VehicleInput struct {
	ID         string
	VIN        string
	Make       string
	Model      string
	Year       string
	EngineSize string
}

// BirthdayReminder is a customer whose birthday falls inside the reminder window.
type BirthdayReminder struct {
	Customer  Customer
	DaysUntil int
	Date      time.Time
}

// StatisticsPeriod selects the reporting window. Weeks run Monday to Sunday.
type StatisticsPeriod string

const (
	PeriodAll    StatisticsPeriod = "all"
	PeriodToday  StatisticsPeriod = "today"
	PeriodWeek   StatisticsPeriod = "week"
	PeriodMonth  StatisticsPeriod = "month"
	PeriodCustom StatisticsPeriod = "custom"
)

// StatisticsFilter bounds the report. From and To are calendar days, inclusive.
type StatisticsFilter struct {
	Period StatisticsPeriod
	From   *time.Time
	To     *time.Time
}

// Statistics is the dashboard summary.
type Statistics struct {
	From           *time.Time
	To             *time.Time
	OrderCount     int
	Revenue        float64
	RealizedProfit float64
	Debt           float64
	ByStatus       map[OrderStatus]int
	TopCustomers   []CustomerSpend
}

// CustomerSpend aggregates revenue per customer.
type CustomerSpend struct {
	CustomerID string
	Name       string
	Total      float64
	Orders     int
}
