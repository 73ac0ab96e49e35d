package services

import (
	"slices"
	"strings"

	"github.com/forsage-shop/pos/internal/platform/textutil"
)

const orderIDMatchPrefix = 8

func customerMatches(c Customer, query string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}
	values := []string{c.Name, c.Phone}
	for _, v := range c.Vehicles {
		values = append(values, v.VIN, v.Make)
	}
	return textutil.AnyContainsFold(query, values...)
}

func productMatches(p Product, query string) bool {
	return textutil.AnyContainsFold(query, p.Name, p.Code, p.Brand)
}

// orderMatches checks the customer snapshot, the vehicle VIN and the short order id
// shown on receipts.
func orderMatches(o Order, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return textutil.AnyContainsFold(query,
		o.CustomerSnapshot.Name,
		o.CustomerSnapshot.Phone,
		o.VehicleSnapshot.VIN,
		ShortOrderID(o.ID),
	)
}

// ShortOrderID is the receipt form of an order id.
func ShortOrderID(id string) string {
	short := strings.TrimPrefix(id, orderIDPrefix)
	if len(short) > orderIDMatchPrefix {
		short = short[:orderIDMatchPrefix]
	}
	return strings.ToUpper(short)
}

// sortOrdersNewestFirst is stable so orders sharing a timestamp keep insertion order.
func sortOrdersNewestFirst(orders []Order) {
	slices.SortStableFunc(orders, func(a, b Order) int {
		return b.Date.Compare(a.Date)
	})
}
