package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	domain "github.com/forsage-shop/pos/internal/domain"
	"github.com/forsage-shop/pos/internal/repositories"
)

const defaultTopCustomers = 5

// StatisticsServiceDeps bundles constructor inputs for the statistics service.
type StatisticsServiceDeps struct {
	Orders       repositories.Collection[domain.Order]
	Clock        func() time.Time
	TopCustomers int
}

type statisticsService struct {
	orders       repositories.Collection[domain.Order]
	clock        func() time.Time
	topCustomers int
}

// NewStatisticsService constructs the statistics service.
func NewStatisticsService(deps StatisticsServiceDeps) (StatisticsService, error) {
	if deps.Orders == nil {
		return nil, errors.New("statistics service: order collection is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	top := deps.TopCustomers
	if top <= 0 {
		top = defaultTopCustomers
	}
	return &statisticsService{orders: deps.Orders, clock: clock, topCustomers: top}, nil
}

// Summarize aggregates orders dated inside the filter window. Realized profit only counts
// orders whose status is in domain.RealizedStatuses.
func (s *statisticsService) Summarize(ctx context.Context, filter StatisticsFilter) (Statistics, error) {
	from, to, err := s.window(filter)
	if err != nil {
		return Statistics{}, err
	}
	orders, err := s.orders.LoadAll(ctx)
	if err != nil {
		return Statistics{}, mapRepositoryError(err, nil)
	}

	stats := Statistics{
		From:     from,
		To:       to,
		ByStatus: make(map[OrderStatus]int, len(domain.AllStatuses())),
	}
	spend := make(map[string]*CustomerSpend)
	for _, o := range orders {
		if from != nil && o.Date.Before(*from) {
			continue
		}
		if to != nil && o.Date.After(*to) {
			continue
		}
		stats.OrderCount++
		stats.Revenue += o.TotalAmount
		stats.ByStatus[o.Status]++
		if o.Status.IsRealized() {
			stats.RealizedProfit += o.TotalProfit
		}
		if o.Status == domain.OrderStatusDebt {
			stats.Debt += o.TotalAmount
		}

		entry, ok := spend[o.CustomerID]
		if !ok {
			entry = &CustomerSpend{CustomerID: o.CustomerID}
			spend[o.CustomerID] = entry
		}
		entry.Name = o.CustomerSnapshot.Name
		entry.Total += o.TotalAmount
		entry.Orders++
	}

	top := make([]CustomerSpend, 0, len(spend))
	for _, entry := range spend {
		top = append(top, *entry)
	}
	slices.SortFunc(top, func(a, b CustomerSpend) int {
		switch {
		case a.Total > b.Total:
			return -1
		case a.Total < b.Total:
			return 1
		}
		if a.CustomerID < b.CustomerID {
			return -1
		}
		if a.CustomerID > b.CustomerID {
			return 1
		}
		return 0
	})
	if len(top) > s.topCustomers {
		top = top[:s.topCustomers]
	}
	stats.TopCustomers = top
	return stats, nil
}

// window resolves a period preset into inclusive bounds. From starts at 00:00 and To
// ends at 23:59:59.999 of its day.
func (s *statisticsService) window(filter StatisticsFilter) (*time.Time, *time.Time, error) {
	switch filter.Period {
	case "", PeriodAll:
		return nil, nil, nil
	case PeriodToday:
		now := s.clock()
		start, end := startOfDay(now), endOfDay(now)
		return &start, &end, nil
	case PeriodWeek:
		now := s.clock()
		sinceMonday := (int(now.Weekday()) + 6) % 7
		start := startOfDay(now.AddDate(0, 0, -sinceMonday))
		end := endOfDay(start.AddDate(0, 0, 6))
		return &start, &end, nil
	case PeriodMonth:
		now := s.clock()
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := endOfDay(start.AddDate(0, 1, -1))
		return &start, &end, nil
	case PeriodCustom:
		var from, to *time.Time
		if filter.From != nil {
			f := startOfDay(*filter.From)
			from = &f
		}
		if filter.To != nil {
			t := endOfDay(*filter.To)
			to = &t
		}
		if from != nil && to != nil && to.Before(*from) {
			return nil, nil, fmt.Errorf("%w: from must not be after to", ErrStatisticsInvalidInput)
		}
		return from, to, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown period %q", ErrStatisticsInvalidInput, filter.Period)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
