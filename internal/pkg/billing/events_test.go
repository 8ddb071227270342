package billing

import "testing"

func TestClassifyEvent(t *testing.T) {
	tests := []struct {
		in   string
		want EventKind
	}{
		{in: "subscription.activated", want: EventSubscriptionActivated},
		{in: "payment.captured", want: EventPaymentCaptured},
		{in: "subscription.cancelled", want: EventSubscriptionCancelled},
		{in: "unrelated.thing", want: EventOther},
		{in: "", want: EventOther},
		{in: " subscription.activated ", want: EventSubscriptionActivated},
	}

	for _, tt := range tests {
		if got := ClassifyEvent(tt.in); got != tt.want {
			t.Fatalf("ClassifyEvent(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseEnvelope_SubscriptionActivated(t *testing.T) {
	raw := []byte(`{"event":"subscription.activated","payload":{"subscription":{"entity":{"id":"sub_1","plan_id":"PLAN_INTRO","customer_id":"cust_1"}}}}`)

	evt, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if evt.Kind != EventSubscriptionActivated {
		t.Fatalf("unexpected kind: %v", evt.Kind)
	}
	if evt.Subscription == nil {
		t.Fatalf("expected subscription entity")
	}
	if evt.Subscription.ID != "sub_1" || evt.Subscription.PlanID != "PLAN_INTRO" || evt.Subscription.CustomerID != "cust_1" {
		t.Fatalf("unexpected entity: %+v", evt.Subscription)
	}
}

func TestParseEnvelope_PaymentCaptured(t *testing.T) {
	raw := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","invoice_id":"inv_9","method":"upi","amount":500}}}}`)

	evt, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if evt.Kind != EventPaymentCaptured {
		t.Fatalf("unexpected kind: %v", evt.Kind)
	}
	if evt.Payment == nil || evt.Payment.InvoiceID != "inv_9" {
		t.Fatalf("unexpected payment entity: %+v", evt.Payment)
	}
	if evt.Payment.Amount != 500 {
		t.Fatalf("unexpected amount: %d", evt.Payment.Amount)
	}
}

func TestParseEnvelope_UnknownEventKeepsName(t *testing.T) {
	raw := []byte(`{"event":"invoice.paid","payload":{}}`)

	evt, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if evt.Kind != EventOther || evt.EventName != "invoice.paid" {
		t.Fatalf("unexpected envelope: kind=%v name=%q", evt.Kind, evt.EventName)
	}
}

func TestParseEnvelope_Invalid(t *testing.T) {
	if _, err := ParseEnvelope([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
	if _, err := ParseEnvelope([]byte(`{"payload":{}}`)); err == nil {
		t.Fatalf("expected error for missing event field")
	}
}
