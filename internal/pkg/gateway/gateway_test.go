package gateway

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestTimeoutSeconds(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int16
	}{
		{d: 15 * time.Second, want: 15},
		{d: 90 * time.Second, want: 90},
		// Sub-second durations round up to the smallest usable timeout.
		{d: 500 * time.Millisecond, want: 1},
		// Oversized values clamp instead of overflowing the SDK's int16.
		{d: 100000 * time.Hour, want: math.MaxInt16},
	}

	for _, tt := range tests {
		if got := timeoutSeconds(tt.d); got != tt.want {
			t.Fatalf("timeoutSeconds(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestIsAlreadyCancelled(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: errors.New("BAD_REQUEST_ERROR: Subscription is not cancellable in cancelled status."), want: true},
		{err: errors.New("subscription already cancelled"), want: true},
		{err: errors.New("network timeout"), want: false},
		{err: errors.New("BAD_REQUEST_ERROR: invalid plan id"), want: false},
	}

	for _, tt := range tests {
		if got := IsAlreadyCancelled(tt.err); got != tt.want {
			t.Fatalf("IsAlreadyCancelled(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestSubscriptionFromMap(t *testing.T) {
	sub := subscriptionFromMap(map[string]interface{}{
		"id":          "sub_1",
		"plan_id":     "plan_a",
		"customer_id": "cust_1",
		"status":      "active",
		"start_at":    float64(1750000000),
	})

	if sub.ID != "sub_1" || sub.PlanID != "plan_a" || sub.CustomerID != "cust_1" || sub.Status != "active" {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if sub.StartAt == nil || sub.StartAt.Unix() != 1750000000 {
		t.Fatalf("unexpected start_at: %v", sub.StartAt)
	}

	// Entities without start_at stay nil, and non-string fields decode to
	// empty rather than panicking.
	sub = subscriptionFromMap(map[string]interface{}{"id": "sub_2", "customer_id": nil})
	if sub.StartAt != nil || sub.CustomerID != "" {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
}
