package domain

import "testing"

func TestIsStepCompleted(t *testing.T) {
	tests := []struct {
		name    string
		current OrderStatus
		step    OrderStatus
		want    bool
	}{
		{"paid covers new", OrderStatusPaid, OrderStatusNew, true},
		{"paid covers received", OrderStatusPaid, OrderStatusReceived, true},
		{"paid covers notified", OrderStatusPaid, OrderStatusNotified, true},
		{"paid covers itself", OrderStatusPaid, OrderStatusPaid, true},
		{"paid does not cover picked up", OrderStatusPaid, OrderStatusPickedUp, false},
		{"new only covers itself", OrderStatusNew, OrderStatusReceived, false},
		{"picked up covers all flow", OrderStatusPickedUp, OrderStatusNew, true},
		{"debt step outside flow", OrderStatusPaid, OrderStatusDebt, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsStepCompleted(tc.current, tc.step); got != tc.want {
				t.Fatalf("IsStepCompleted(%s, %s) = %v, want %v", tc.current, tc.step, got, tc.want)
			}
		})
	}
}

func TestIsStepCompletedDebtResetsProgress(t *testing.T) {
	for _, step := range AllStatuses() {
		if IsStepCompleted(OrderStatusDebt, step) {
			t.Fatalf("expected step %s to be incomplete while in debt", step)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if s, ok := ParseOrderStatus(" picked_up "); !ok || s != OrderStatusPickedUp {
		t.Fatalf("expected PICKED_UP, got %q ok=%v", s, ok)
	}
	if _, ok := ParseOrderStatus("SHIPPED"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestRealizedStatuses(t *testing.T) {
	realized := map[OrderStatus]bool{
		OrderStatusNew:      false,
		OrderStatusReceived: false,
		OrderStatusNotified: false,
		OrderStatusPaid:     true,
		OrderStatusPickedUp: true,
		OrderStatusDebt:     true,
	}
	for status, want := range realized {
		if status.IsRealized() != want {
			t.Fatalf("status %s realized=%v, want %v", status, status.IsRealized(), want)
		}
	}
}

func TestCustomerCloneIsDeep(t *testing.T) {
	original := Customer{ID: "c1", Vehicles: []Vehicle{{ID: "v1", Make: "Toyota"}}}
	clone := original.Clone()
	clone.Vehicles[0].Make = "Honda"
	if original.Vehicles[0].Make != "Toyota" {
		t.Fatalf("clone shares vehicle storage with original")
	}
}
