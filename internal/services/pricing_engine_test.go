package services

import (
	"math"
	"testing"
)

func item(name string, buy, sell float64, qty int) OrderItem {
	return OrderItem{Product: Product{Name: name, BuyPrice: buy, SellPrice: sell}, Quantity: qty}
}

func TestComputeOrderFinancials(t *testing.T) {
	tests := []struct {
		name     string
		items    []OrderItem
		discount float64
		expenses float64
		want     OrderFinancials
	}{
		{
			name:     "discounted",
			items:    []OrderItem{item("Tire", 3000, 4000, 4), item("Valve", 50, 100, 4)},
			discount: 10,
			expenses: 200,
			want: OrderFinancials{
				Subtotal:       16400,
				DiscountAmount: 1640,
				TotalAmount:    14760,
				TotalCost:      12200,
				Expenses:       200,
				TotalProfit:    2360,
			},
		},
		{
			name:  "no discount",
			items: []OrderItem{item("Oil", 700, 1000, 1)},
			want: OrderFinancials{
				Subtotal:    1000,
				TotalAmount: 1000,
				TotalCost:   700,
				TotalProfit: 300,
			},
		},
		{
			name:     "loss is kept negative",
			items:    []OrderItem{item("Filter", 500, 400, 2)},
			expenses: 100,
			want: OrderFinancials{
				Subtotal:    800,
				TotalAmount: 800,
				TotalCost:   1000,
				Expenses:    100,
				TotalProfit: -300,
			},
		},
		{
			name:     "negative discount is ignored",
			items:    []OrderItem{item("Oil", 700, 1000, 1)},
			discount: -5,
			want: OrderFinancials{
				Subtotal:    1000,
				TotalAmount: 1000,
				TotalCost:   700,
				TotalProfit: 300,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeOrderFinancials(tc.items, tc.discount, tc.expenses)
			if !closeEnough(got.Subtotal, tc.want.Subtotal) ||
				!closeEnough(got.DiscountAmount, tc.want.DiscountAmount) ||
				!closeEnough(got.TotalAmount, tc.want.TotalAmount) ||
				!closeEnough(got.TotalCost, tc.want.TotalCost) ||
				!closeEnough(got.Expenses, tc.want.Expenses) ||
				!closeEnough(got.TotalProfit, tc.want.TotalProfit) {
				t.Fatalf("unexpected financials: got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestComputeOrderFinancialsZeroDiscountIsExact(t *testing.T) {
	items := []OrderItem{item("A", 0, 0.1, 3), item("B", 0, 0.2, 1)}
	got := ComputeOrderFinancials(items, 0, 0)
	if got.TotalAmount != got.Subtotal {
		t.Fatalf("expected total to equal subtotal bit for bit, got %v vs %v", got.TotalAmount, got.Subtotal)
	}
}

func TestRemainingBalance(t *testing.T) {
	if got := RemainingBalance(1000, 300); got != 700 {
		t.Fatalf("expected 700, got %v", got)
	}
	if got := RemainingBalance(1000, 1500); got != 0 {
		t.Fatalf("overpayment must not produce negative balance, got %v", got)
	}
}

func TestSuggestSellPrice(t *testing.T) {
	cases := map[float64]float64{
		10: 1100,
		15: 1150,
		25: 1250,
	}
	for percent, want := range cases {
		if got := SuggestSellPrice(1000, percent); got != want {
			t.Fatalf("percent %v: expected %v, got %v", percent, want, got)
		}
	}
	if got := SuggestSellPrice(333, 15); got != 383 {
		t.Fatalf("expected half-up rounding to 383, got %v", got)
	}
}

func TestRecomputeProfit(t *testing.T) {
	items := []OrderItem{item("Pads", 1200, 2000, 1)}
	if got := RecomputeProfit(1800, items, 300); got != 300 {
		t.Fatalf("expected 300, got %v", got)
	}
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
