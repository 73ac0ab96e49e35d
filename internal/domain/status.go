package domain

import "strings"

// OrderStatus is the closed set of fulfilment and payment states.
type OrderStatus string

const (
	OrderStatusNew      OrderStatus = "NEW"
	OrderStatusReceived OrderStatus = "RECEIVED"
	OrderStatusNotified OrderStatus = "NOTIFIED"
	OrderStatusPaid     OrderStatus = "PAID"
	OrderStatusPickedUp OrderStatus = "PICKED_UP"
	OrderStatusDebt     OrderStatus = "DEBT"
)

var statusFlow = []OrderStatus{
	OrderStatusNew,
	OrderStatusReceived,
	OrderStatusNotified,
	OrderStatusPaid,
	OrderStatusPickedUp,
}

// StatusFlow returns the suggested linear flow. DEBT is a side branch and not part of it.
func StatusFlow() []OrderStatus {
	return append([]OrderStatus(nil), statusFlow...)
}

// AllStatuses lists every status, flow first.
func AllStatuses() []OrderStatus {
	return append(StatusFlow(), OrderStatusDebt)
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	if s == OrderStatusDebt {
		return true
	}
	return flowIndex(s) >= 0
}

// ParseOrderStatus normalises user input into an OrderStatus.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

func flowIndex(s OrderStatus) int {
	for i, candidate := range statusFlow {
		if candidate == s {
			return i
		}
	}
	return -1
}

// IsStepCompleted reports progress for display only. It never guards a transition.
func IsStepCompleted(current, step OrderStatus) bool {
	if current == OrderStatusDebt {
		return false
	}
	if step == current {
		return true
	}
	currentIdx := flowIndex(current)
	stepIdx := flowIndex(step)
	if currentIdx < 0 || stepIdx < 0 {
		return false
	}
	return stepIdx <= currentIdx
}

// RealizedStatuses are the statuses whose profit is reported as realized.
func RealizedStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPickedUp, OrderStatusPaid, OrderStatusDebt}
}

// IsRealized reports whether profit of an order in status s counts as realized.
func (s OrderStatus) IsRealized() bool {
	for _, r := range RealizedStatuses() {
		if r == s {
			return true
		}
	}
	return false
}
