package services

import (
	"context"
	"time"
)

const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status.changed"
	OrderEventDebtClosed    = "order.debt.closed"
	OrderEventUpdated       = "order.updated"
	OrderEventDeleted       = "order.deleted"
)

// OrderEventPublisher publishes order events for downstream consumers such as SMS
// reminders or accounting exports. Publishing is best effort.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent is the payload emitted after an order mutation has been persisted.
type OrderEvent struct {
	Type           string      `json:"type"`
	OrderID        string      `json:"orderId"`
	CustomerID     string      `json:"customerId,omitempty"`
	PreviousStatus OrderStatus `json:"previousStatus,omitempty"`
	Status         OrderStatus `json:"status,omitempty"`
	TotalAmount    float64     `json:"totalAmount"`
	Prepayment     float64     `json:"prepayment"`
	OccurredAt     time.Time   `json:"occurredAt"`
}

// OrderingKey keeps events of one order in publish order.
func (e OrderEvent) OrderingKey() string {
	return e.OrderID
}

func newOrderEvent(eventType string, order Order, now time.Time) OrderEvent {
	return OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Prepayment:  order.Prepayment,
		OccurredAt:  now,
	}
}
