package gateway

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	rzpsdk "github.com/razorpay/razorpay-go"

	"github.com/conceptra/autopay/internal/pkg/env"
)

const defaultRequestTimeout = 15 * time.Second

// RazorpayClient implements Client over the official Razorpay SDK.
type RazorpayClient struct {
	KeyID string

	sdk *rzpsdk.Client
}

// NewRazorpayClient creates a gateway client with a bounded per-request
// timeout on the underlying SDK transport.
func NewRazorpayClient(keyID, keySecret string, timeout time.Duration) (*RazorpayClient, error) {
	if strings.TrimSpace(keyID) == "" || strings.TrimSpace(keySecret) == "" {
		return nil, errors.New("razorpay key id and secret are required")
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	sdk := rzpsdk.NewClient(keyID, keySecret)
	sdk.SetTimeout(timeoutSeconds(timeout))
	return &RazorpayClient{KeyID: keyID, sdk: sdk}, nil
}

// timeoutSeconds converts a duration to the whole-second int16 the SDK
// accepts, clamping to at least one second and at most MaxInt16.
func timeoutSeconds(d time.Duration) int16 {
	secs := int64(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	if secs > math.MaxInt16 {
		secs = math.MaxInt16
	}
	return int16(secs)
}

// NewRazorpayClientFromEnv builds the client from RAZORPAY_KEY_ID /
// RAZORPAY_KEY_SECRET.
func NewRazorpayClientFromEnv() (*RazorpayClient, error) {
	return NewRazorpayClient(
		strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_ID", "")),
		strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_SECRET", "")),
		env.GetDuration("RAZORPAY_REQUEST_TIMEOUT", defaultRequestTimeout),
	)
}

// The SDK is not context-aware; requests are bounded by the client-level
// timeout set in the constructor. Context parameters exist for interface
// symmetry with test doubles and future transports.

func (c *RazorpayClient) CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (*Subscription, error) {
	_ = ctx
	if strings.TrimSpace(in.PlanID) == "" {
		return nil, errors.New("plan id is required")
	}
	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	data := map[string]interface{}{
		"plan_id":     in.PlanID,
		"total_count": in.TotalCount,
		"quantity":    quantity,
	}
	if in.NotifyCustomer {
		data["customer_notify"] = 1
	}
	if in.CustomerID != "" {
		data["customer_id"] = in.CustomerID
	}
	if in.StartAt != nil {
		data["start_at"] = in.StartAt.Unix()
	}
	resp, err := c.sdk.Subscription.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create subscription: %w", err)
	}
	return subscriptionFromMap(resp), nil
}

func (c *RazorpayClient) CancelSubscription(ctx context.Context, subscriptionID string) error {
	_ = ctx
	// cancel_at_cycle_end=0 cancels right away; the replacement subscription
	// carries the mandate forward.
	_, err := c.sdk.Subscription.Cancel(subscriptionID, map[string]interface{}{
		"cancel_at_cycle_end": 0,
	}, nil)
	if err != nil {
		return fmt.Errorf("razorpay: cancel subscription %s: %w", subscriptionID, err)
	}
	return nil
}

func (c *RazorpayClient) UpdateSubscription(ctx context.Context, subscriptionID string, in UpdateSubscriptionInput) error {
	_ = ctx
	data := map[string]interface{}{
		"plan_id": in.PlanID,
	}
	if in.ScheduleChangeAt != "" {
		data["schedule_change_at"] = in.ScheduleChangeAt
	}
	_, err := c.sdk.Subscription.Update(subscriptionID, data, nil)
	if err != nil {
		return fmt.Errorf("razorpay: update subscription %s: %w", subscriptionID, err)
	}
	return nil
}

func (c *RazorpayClient) FetchSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	_ = ctx
	resp, err := c.sdk.Subscription.Fetch(subscriptionID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay: fetch subscription %s: %w", subscriptionID, err)
	}
	return subscriptionFromMap(resp), nil
}

func (c *RazorpayClient) FetchInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	_ = ctx
	resp, err := c.sdk.Invoice.Fetch(invoiceID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay: fetch invoice %s: %w", invoiceID, err)
	}
	return &Invoice{
		ID:             mapString(resp, "id"),
		CustomerID:     mapString(resp, "customer_id"),
		SubscriptionID: mapString(resp, "subscription_id"),
	}, nil
}

func (c *RazorpayClient) CreateCustomer(ctx context.Context, name, email, contact string) (*Customer, error) {
	_ = ctx
	data := map[string]interface{}{
		// fail_existing=0 returns the existing customer instead of erroring.
		"fail_existing": "0",
	}
	if name != "" {
		data["name"] = name
	}
	if email != "" {
		data["email"] = email
	}
	if contact != "" {
		data["contact"] = contact
	}
	resp, err := c.sdk.Customer.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create customer: %w", err)
	}
	return &Customer{
		ID:      mapString(resp, "id"),
		Name:    mapString(resp, "name"),
		Email:   mapString(resp, "email"),
		Contact: mapString(resp, "contact"),
	}, nil
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	_ = ctx
	if currency == "" {
		currency = "INR"
	}
	resp, err := c.sdk.Order.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	return &Order{
		ID:       mapString(resp, "id"),
		Amount:   mapInt64(resp, "amount"),
		Currency: mapString(resp, "currency"),
		Receipt:  mapString(resp, "receipt"),
	}, nil
}

func subscriptionFromMap(m map[string]interface{}) *Subscription {
	sub := &Subscription{
		ID:         mapString(m, "id"),
		PlanID:     mapString(m, "plan_id"),
		CustomerID: mapString(m, "customer_id"),
		Status:     mapString(m, "status"),
	}
	if ts := mapInt64(m, "start_at"); ts > 0 {
		t := time.Unix(ts, 0).UTC()
		sub.StartAt = &t
	}
	return sub
}

func mapString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func mapInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
