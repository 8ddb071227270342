package gateway

import (
	"context"
	"strings"
	"time"
)

// Schedule values accepted by the gateway for plan changes on a live
// subscription.
const (
	ScheduleChangeNow      = "now"
	ScheduleChangeCycleEnd = "cycle_end"
)

// Subscription is the gateway's subscription entity, reduced to the fields
// this service reads.
type Subscription struct {
	ID         string
	PlanID     string
	CustomerID string
	Status     string
	StartAt    *time.Time
}

// Invoice carries the linkage used to resolve a captured payment back to a
// customer and subscription. The invoice is the authoritative source for
// the customer id; payment entities may lack it for some payment methods.
type Invoice struct {
	ID             string
	CustomerID     string
	SubscriptionID string
}

// Customer is a gateway-side customer identity.
type Customer struct {
	ID      string
	Name    string
	Email   string
	Contact string
}

// Order is a one-off payment order.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// CreateSubscriptionInput describes a new subscription on a plan. StartAt
// nil means the subscription starts immediately.
type CreateSubscriptionInput struct {
	PlanID         string
	CustomerID     string
	TotalCount     int
	Quantity       int
	StartAt        *time.Time
	NotifyCustomer bool
}

// UpdateSubscriptionInput moves a live subscription to another plan at the
// given schedule boundary.
type UpdateSubscriptionInput struct {
	PlanID           string
	ScheduleChangeAt string
}

// Client is the payment-gateway collaborator. Implementations must bound
// each call with a timeout; a timeout is a retryable failure, never a
// silent success.
type Client interface {
	CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	UpdateSubscription(ctx context.Context, subscriptionID string, in UpdateSubscriptionInput) error
	FetchSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	FetchInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
	CreateCustomer(ctx context.Context, name, email, contact string) (*Customer, error)
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
}

// IsAlreadyCancelled reports whether a cancel call failed only because the
// subscription is already in a cancelled or completed state. Redelivered
// events hit this path; it counts as success.
func IsAlreadyCancelled(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not cancellable") ||
		strings.Contains(msg, "already cancelled") ||
		strings.Contains(msg, "cancelled status")
}
