package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/forsage-shop/pos/internal/domain"
)

func TestSummarize(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC) }
	orders := &stubCollection[domain.Order]{items: []domain.Order{
		{ID: "1", CustomerID: "c1", CustomerSnapshot: domain.Customer{Name: "Ann"}, Status: domain.OrderStatusPaid, Date: day(1), TotalAmount: 1000, TotalProfit: 300},
		{ID: "2", CustomerID: "c1", CustomerSnapshot: domain.Customer{Name: "Ann"}, Status: domain.OrderStatusDebt, Date: day(10), TotalAmount: 2000, TotalProfit: 500},
		{ID: "3", CustomerID: "c2", CustomerSnapshot: domain.Customer{Name: "Bob"}, Status: domain.OrderStatusNew, Date: day(10), TotalAmount: 4000, TotalProfit: 900},
		{ID: "4", CustomerID: "c3", CustomerSnapshot: domain.Customer{Name: "Cid"}, Status: domain.OrderStatusPickedUp, Date: day(20), TotalAmount: 500, TotalProfit: -50},
		{ID: "5", CustomerID: "c3", Status: domain.OrderStatusPickedUp, Date: time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC), TotalAmount: 100, TotalProfit: 10},
	}}
	svc, err := NewStatisticsService(StatisticsServiceDeps{
		Orders:       orders,
		Clock:        fixedClock(day(15)),
		TopCustomers: 2,
	})
	if err != nil {
		t.Fatalf("NewStatisticsService: %v", err)
	}

	all, err := svc.Summarize(context.Background(), StatisticsFilter{Period: PeriodAll})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if all.OrderCount != 5 || all.Revenue != 7600 {
		t.Fatalf("unexpected totals %+v", all)
	}
	if all.RealizedProfit != 760 {
		t.Fatalf("expected realized profit 760, got %v", all.RealizedProfit)
	}
	if all.Debt != 2000 {
		t.Fatalf("expected debt 2000, got %v", all.Debt)
	}
	if all.ByStatus[domain.OrderStatusPickedUp] != 2 || all.ByStatus[domain.OrderStatusNew] != 1 {
		t.Fatalf("unexpected by-status %+v", all.ByStatus)
	}
	if len(all.TopCustomers) != 2 || all.TopCustomers[0].CustomerID != "c2" || all.TopCustomers[1].CustomerID != "c1" {
		t.Fatalf("unexpected top customers %+v", all.TopCustomers)
	}
	if all.TopCustomers[1].Total != 3000 || all.TopCustomers[1].Orders != 2 {
		t.Fatalf("unexpected spend %+v", all.TopCustomers[1])
	}

	month, err := svc.Summarize(context.Background(), StatisticsFilter{Period: PeriodMonth})
	if err != nil {
		t.Fatalf("Summarize month: %v", err)
	}
	if month.OrderCount != 4 {
		t.Fatalf("expected February order excluded, got %d", month.OrderCount)
	}

	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	custom, err := svc.Summarize(context.Background(), StatisticsFilter{Period: PeriodCustom, From: &from, To: &from})
	if err != nil {
		t.Fatalf("Summarize custom: %v", err)
	}
	if custom.OrderCount != 2 || custom.Revenue != 6000 {
		t.Fatalf("inclusive single day window failed: %+v", custom)
	}
}

func TestSummarizeTodayAndWeek(t *testing.T) {
	at := func(d, h, m int) time.Time { return time.Date(2025, 3, d, h, m, 0, 0, time.UTC) }
	orders := &stubCollection[domain.Order]{items: []domain.Order{
		{ID: "sun-before", CustomerID: "c1", Status: domain.OrderStatusPaid, Date: at(9, 23, 59), TotalAmount: 1},
		{ID: "monday", CustomerID: "c1", Status: domain.OrderStatusPaid, Date: at(10, 0, 0), TotalAmount: 10},
		{ID: "wednesday", CustomerID: "c1", Status: domain.OrderStatusPaid, Date: at(12, 8, 30), TotalAmount: 100},
		{ID: "sunday", CustomerID: "c1", Status: domain.OrderStatusPaid, Date: at(16, 23, 0), TotalAmount: 1000},
		{ID: "next-monday", CustomerID: "c1", Status: domain.OrderStatusPaid, Date: at(17, 0, 0), TotalAmount: 10000},
	}}

	tests := []struct {
		name    string
		now     time.Time
		period  StatisticsPeriod
		from    time.Time
		to      time.Time
		revenue float64
	}{
		{name: "today", now: at(12, 18, 0), period: PeriodToday, from: at(12, 0, 0), to: at(12, 23, 59), revenue: 100},
		{name: "week from wednesday", now: at(12, 18, 0), period: PeriodWeek, from: at(10, 0, 0), to: at(16, 23, 59), revenue: 1110},
		{name: "week from sunday", now: at(16, 9, 0), period: PeriodWeek, from: at(10, 0, 0), to: at(16, 23, 59), revenue: 1110},
		{name: "week from monday", now: at(17, 0, 0), period: PeriodWeek, from: at(17, 0, 0), to: at(23, 23, 59), revenue: 10000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := NewStatisticsService(StatisticsServiceDeps{Orders: orders, Clock: fixedClock(tc.now)})
			if err != nil {
				t.Fatalf("NewStatisticsService: %v", err)
			}
			stats, err := svc.Summarize(context.Background(), StatisticsFilter{Period: tc.period})
			if err != nil {
				t.Fatalf("Summarize: %v", err)
			}
			if stats.From == nil || !stats.From.Equal(tc.from) {
				t.Fatalf("expected from %v, got %v", tc.from, stats.From)
			}
			if stats.To == nil || stats.To.Truncate(time.Minute) != tc.to || stats.To.Nanosecond() != int(999*time.Millisecond) {
				t.Fatalf("expected to %v end of day, got %v", tc.to, stats.To)
			}
			if stats.Revenue != tc.revenue {
				t.Fatalf("expected revenue %v, got %v", tc.revenue, stats.Revenue)
			}
		})
	}
}

func TestSummarizeRejectsInvertedWindow(t *testing.T) {
	svc, _ := NewStatisticsService(StatisticsServiceDeps{Orders: &stubCollection[domain.Order]{}})
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	if _, err := svc.Summarize(context.Background(), StatisticsFilter{Period: PeriodCustom, From: &from, To: &to}); !errors.Is(err, ErrStatisticsInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := svc.Summarize(context.Background(), StatisticsFilter{Period: "week"}); !errors.Is(err, ErrStatisticsInvalidInput) {
		t.Fatalf("expected invalid period, got %v", err)
	}
}

func TestSummarizeStorageOutage(t *testing.T) {
	svc, _ := NewStatisticsService(StatisticsServiceDeps{Orders: &stubCollection[domain.Order]{loadErr: unavailableErr()}})
	if _, err := svc.Summarize(context.Background(), StatisticsFilter{}); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
}
