package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EventKind is the tagged classification of an inbound webhook event.
// Unknown event names map to EventOther and are acknowledged without
// action.
type EventKind int

const (
	EventOther EventKind = iota
	EventSubscriptionActivated
	EventPaymentCaptured
	EventSubscriptionCancelled
)

// Webhook event names emitted by the gateway.
const (
	eventNameSubscriptionActivated = "subscription.activated"
	eventNamePaymentCaptured       = "payment.captured"
	eventNameSubscriptionCancelled = "subscription.cancelled"
)

// ClassifyEvent maps a gateway event name to an EventKind.
func ClassifyEvent(name string) EventKind {
	switch strings.TrimSpace(name) {
	case eventNameSubscriptionActivated:
		return EventSubscriptionActivated
	case eventNamePaymentCaptured:
		return EventPaymentCaptured
	case eventNameSubscriptionCancelled:
		return EventSubscriptionCancelled
	default:
		return EventOther
	}
}

func (k EventKind) String() string {
	switch k {
	case EventSubscriptionActivated:
		return eventNameSubscriptionActivated
	case EventPaymentCaptured:
		return eventNamePaymentCaptured
	case EventSubscriptionCancelled:
		return eventNameSubscriptionCancelled
	default:
		return "other"
	}
}

// SubscriptionEntity is the subscription payload nested under
// payload.subscription.entity.
type SubscriptionEntity struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
}

// PaymentEntity is the payment payload nested under payload.payment.entity.
// The customer id is deliberately not read from here: it is unreliable for
// some payment methods and must be resolved through the invoice.
type PaymentEntity struct {
	ID        string `json:"id"`
	InvoiceID string `json:"invoice_id"`
	OrderID   string `json:"order_id"`
	Method    string `json:"method"`
	Amount    int64  `json:"amount"`
}

// Envelope is the decoded webhook body: the event name plus whichever
// entity the classified kind carries.
type Envelope struct {
	EventName    string
	Kind         EventKind
	Subscription *SubscriptionEntity
	Payment      *PaymentEntity
}

type rawEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Subscription struct {
			Entity *SubscriptionEntity `json:"entity"`
		} `json:"subscription"`
		Payment struct {
			Entity *PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseEnvelope decodes a verified webhook body into its typed form.
// It must only be called after signature verification.
func ParseEnvelope(rawBody []byte) (*Envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(rawBody, &raw); err != nil {
		return nil, fmt.Errorf("decode webhook body: %w", err)
	}
	if strings.TrimSpace(raw.Event) == "" {
		return nil, errors.New("webhook body has no event field")
	}

	env := &Envelope{
		EventName:    raw.Event,
		Kind:         ClassifyEvent(raw.Event),
		Subscription: raw.Payload.Subscription.Entity,
		Payment:      raw.Payload.Payment.Entity,
	}
	return env, nil
}
