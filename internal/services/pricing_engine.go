package services

import (
	domain "github.com/forsage-shop/pos/internal/domain"
	"github.com/forsage-shop/pos/internal/platform/textutil"
)

// ComputeOrderFinancials prices items for a customer discount. No rounding is applied;
// callers that round prices do so before this runs. A discount of exactly 0 takes the
// undiscounted path so the total equals the subtotal bit for bit.
func ComputeOrderFinancials(items []OrderItem, discountPercent, expenses float64) OrderFinancials {
	subtotal := 0.0
	for _, item := range items {
		subtotal += item.SellPrice * float64(item.Quantity)
	}

	total := subtotal
	if discountPercent > 0 {
		total = subtotal * (1 - discountPercent/100)
	}

	cost := TotalCost(items)
	return domain.OrderFinancials{
		Subtotal:       subtotal,
		DiscountAmount: subtotal - total,
		TotalAmount:    total,
		TotalCost:      cost,
		Expenses:       expenses,
		TotalProfit:    total - cost - expenses,
	}
}

// TotalCost is the cost of goods of items at their snapshot buy prices.
func TotalCost(items []OrderItem) float64 {
	cost := 0.0
	for _, item := range items {
		cost += item.BuyPrice * float64(item.Quantity)
	}
	return cost
}

// RecomputeProfit derives profit from a stored total, the item snapshot and expenses.
// Profit may be negative.
func RecomputeProfit(totalAmount float64, items []OrderItem, expenses float64) float64 {
	return totalAmount - TotalCost(items) - expenses
}

// RemainingBalance is what the customer still owes, never negative.
func RemainingBalance(totalAmount, prepayment float64) float64 {
	if remaining := totalAmount - prepayment; remaining > 0 {
		return remaining
	}
	return 0
}

// SuggestSellPrice applies a quick markup to a buy price, rounded to whole units.
func SuggestSellPrice(buyPrice, percent float64) float64 {
	return textutil.RoundHalfUp(buyPrice + buyPrice*(percent/100))
}
