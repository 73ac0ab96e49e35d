package domain

import (
	"strings"
	"time"
)

// Vehicle is owned by exactly one customer and is only addressable through it.
type Vehicle struct {
	ID         string `json:"id"`
	VIN        string `json:"vin"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	Year       string `json:"year"`
	EngineSize string `json:"engineSize"`
}

// Customer is the live registry record. Orders embed a copy taken at creation time.
type Customer struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	BirthDate       string    `json:"birthDate,omitempty"`
	DiscountPercent float64   `json:"discountPercent"`
	Vehicles        []Vehicle `json:"vehicles"`
}

// Clone returns a deep copy suitable for embedding into an order.
func (c Customer) Clone() Customer {
	out := c
	if c.Vehicles != nil {
		out.Vehicles = append([]Vehicle(nil), c.Vehicles...)
	}
	return out
}

// Vehicle returns the vehicle with the given id.
func (c Customer) Vehicle(id string) (Vehicle, bool) {
	for _, v := range c.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

// Product is a catalog entry. Code is a soft natural key used only when merging imports.
type Product struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Brand     string  `json:"brand,omitempty"`
	Name      string  `json:"name"`
	BuyPrice  float64 `json:"buyPrice"`
	SellPrice float64 `json:"sellPrice"`
}

// HasCode reports whether the product carries a non-blank code.
func (p Product) HasCode() bool {
	return strings.TrimSpace(p.Code) != ""
}

// OrderItem is a by-value snapshot of a product at the moment it was added to an order.
// Its ID is the snapshot identity, never a catalog reference.
type OrderItem struct {
	Product
	Quantity int `json:"quantity"`
}

// PaymentMethod records how an order was paid. Nothing is charged.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
)

// Valid reports whether the payment method is one of the supported values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer:
		return true
	}
	return false
}

// Order links a customer snapshot, a vehicle snapshot and priced line items.
type Order struct {
	ID               string        `json:"id"`
	CustomerID       string        `json:"customerId"`
	CustomerSnapshot Customer      `json:"customerSnapshot"`
	VehicleSnapshot  Vehicle       `json:"vehicleSnapshot"`
	Items            []OrderItem   `json:"items"`
	Status           OrderStatus   `json:"status"`
	Date             time.Time     `json:"date"`
	TotalAmount      float64       `json:"totalAmount"`
	Prepayment       float64       `json:"prepayment"`
	Expenses         float64       `json:"expenses"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	TotalProfit      float64       `json:"totalProfit"`
	Notes            string        `json:"notes,omitempty"`
}

// MarkupMode selects the base price a bulk percentage change is applied to.
type MarkupMode string

const (
	// MarkupOnBuy derives the new sell price from the buy price.
	MarkupOnBuy MarkupMode = "MARKUP_ON_BUY"
	// MarkupChangeCurrent shifts the current sell price.
	MarkupChangeCurrent MarkupMode = "CHANGE_CURRENT"
)

// Valid reports whether the mode is known.
func (m MarkupMode) Valid() bool {
	return m == MarkupOnBuy || m == MarkupChangeCurrent
}

// MarkupOptions lists the quick markup percentages offered on the order form.
var MarkupOptions = []float64{5, 10, 15, 20, 25, 30, 40, 50}

// ColumnMapping maps product fields to zero-based spreadsheet columns. A nil
// column leaves the field unmapped. StartRow is 1-based.
type ColumnMapping struct {
	Code      *int
	Brand     *int
	Name      *int
	BuyPrice  *int
	SellPrice *int
	StartRow  int
}

// DefaultColumnMapping mirrors the layout of the supplier price lists the shop receives.
func DefaultColumnMapping() ColumnMapping {
	col := func(i int) *int { return &i }
	return ColumnMapping{
		Code:      col(0),
		Brand:     col(1),
		Name:      col(2),
		BuyPrice:  col(3),
		SellPrice: col(4),
		StartRow:  2,
	}
}
