package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/forsage-shop/pos/internal/domain"
	"github.com/forsage-shop/pos/internal/repositories"
)

type stubCollection[T any] struct {
	mu      sync.Mutex
	items   []T
	loadErr error
	saveErr error
	saves   int
}

func (s *stubCollection[T]) LoadAll(context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]T{}, s.items...), nil
}

func (s *stubCollection[T]) SaveAll(_ context.Context, items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.items = append([]T{}, items...)
	return nil
}

type stubPublisher struct {
	events []OrderEvent
	err    error
}

func (s *stubPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	s.events = append(s.events, event)
	return s.err
}

type recordedLog struct {
	event  string
	fields map[string]any
}

type stubLogger struct {
	entries []recordedLog
}

func (l *stubLogger) log(_ context.Context, event string, fields map[string]any) {
	l.entries = append(l.entries, recordedLog{event: event, fields: fields})
}

func (l *stubLogger) has(event string) bool {
	for _, e := range l.entries {
		if e.event == event {
			return true
		}
	}
	return false
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ID%03d", n)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func unavailableErr() error {
	return repositories.Unavailable("load", fmt.Errorf("connection refused"))
}

func sampleCustomer() domain.Customer {
	return domain.Customer{
		ID:              "cus_1",
		Name:            "Ivan Petrov",
		Phone:           "+7 900 123-45-67",
		DiscountPercent: 10,
		Vehicles: []domain.Vehicle{
			{ID: "veh_1", VIN: "XTA210990Y2765432", Make: "Lada", Model: "2109", Year: "2000"},
			{ID: "veh_2", VIN: "WVWZZZ1JZXW000001", Make: "VW", Model: "Golf", Year: "1999"},
		},
	}
}
