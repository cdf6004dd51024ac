package domain

import "testing"

func TestOrderStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusQueued, true},
		{OrderStatusQueued, OrderStatusProcessed, true},
		{OrderStatusPending, OrderStatusProcessed, false}, // no skipping
		{OrderStatusQueued, OrderStatusPending, false},    // no reversing
		{OrderStatusProcessed, OrderStatusQueued, false},  // terminal
		{OrderStatusProcessed, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusPending, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%s -> %s: expected %v, got %v", c.from, c.to, c.want, got)
		}
	}
}

func TestUtilization_Thresholds(t *testing.T) {
	cases := []struct {
		used, max int
		want      UtilizationStatus
	}{
		{0, 1000, UtilizationLow},
		{499, 1000, UtilizationLow},
		{500, 1000, UtilizationEfficient},
		{899, 1000, UtilizationEfficient},
		{900, 1000, UtilizationNearCapacity},
		{1000, 1000, UtilizationNearCapacity},
	}

	for _, c := range cases {
		r := Utilization(StorageLocation{Name: "Main", MaxCapacity: c.max, UsedCapacity: c.used})
		if r.Status != c.want {
			t.Errorf("used=%d max=%d: expected %s, got %s", c.used, c.max, c.want, r.Status)
		}
	}

	r := Utilization(StorageLocation{Name: "Main", MaxCapacity: 1000, UsedCapacity: 600})
	if r.UtilizationPct != 60 {
		t.Errorf("expected 60%%, got %v", r.UtilizationPct)
	}
}
