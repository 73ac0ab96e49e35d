package services

import (
	domain "github.com/forsage-shop/pos/internal/domain"
)

// The functions below are the only places an order changes after creation. They
// assume already validated numbers and never fail.

// SetStatus overwrites the status. Every transition is allowed.
func SetStatus(order *Order, status OrderStatus) {
	order.Status = status
}

// CloseDebt marks the order fully paid. An order in DEBT also moves to PICKED_UP.
// Callers persist both fields in a single write.
func CloseDebt(order *Order) {
	order.Prepayment = order.TotalAmount
	if order.Status == domain.OrderStatusDebt {
		order.Status = domain.OrderStatusPickedUp
	}
}

// UpdateExpenses replaces expenses and recomputes profit from the stored total and item
// snapshot. The total itself is untouched.
func UpdateExpenses(order *Order, expenses float64) {
	order.Expenses = expenses
	order.TotalProfit = RecomputeProfit(order.TotalAmount, order.Items, expenses)
}

// UpdatePrepayment stores the prepayment verbatim. Overpayment is allowed.
func UpdatePrepayment(order *Order, prepayment float64) {
	order.Prepayment = prepayment
}

// UpdateNotes replaces the free-text notes.
func UpdateNotes(order *Order, notes string) {
	order.Notes = notes
}
