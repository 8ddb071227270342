package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"event":"subscription.activated","payload":{}}`)
	secret := "top-secret"

	validSig := signBody(payload, secret)
	if !VerifyWebhookSignature(payload, validSig, secret) {
		t.Fatalf("expected signature to validate")
	}

	// Uppercase hex headers must still validate.
	if !VerifyWebhookSignature(payload, strings.ToUpper(validSig), secret) {
		t.Fatalf("expected uppercase signature to validate")
	}

	if VerifyWebhookSignature(payload, "deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
	if VerifyWebhookSignature(payload, "not-hex!", secret) {
		t.Fatalf("expected non-hex signature to fail")
	}
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"event":"payment.captured"}`)
	sig := signBody(payload, "secret-a")
	if VerifyWebhookSignature(payload, sig, "secret-b") {
		t.Fatalf("expected signature from another secret to fail")
	}
}

func TestVerifyWebhookSignature_BodyByteExact(t *testing.T) {
	payload := []byte(`{"event":"payment.captured","payload":{"a":1,"b":2}}`)
	sig := signBody(payload, "s3cr3t")

	// Semantically equal JSON with different byte layout must not verify.
	reordered := []byte(`{"payload":{"b":2,"a":1},"event":"payment.captured"}`)
	if VerifyWebhookSignature(reordered, sig, "s3cr3t") {
		t.Fatalf("expected reordered body to fail verification")
	}

	whitespace := []byte(`{"event":"payment.captured","payload":{"a":1, "b":2}}`)
	if VerifyWebhookSignature(whitespace, sig, "s3cr3t") {
		t.Fatalf("expected whitespace-shifted body to fail verification")
	}
}

func TestVerifyWebhookSignature_MissingInputs(t *testing.T) {
	payload := []byte(`{}`)
	sig := signBody(payload, "secret")

	if VerifyWebhookSignature(payload, "", "secret") {
		t.Fatalf("expected missing header to fail")
	}
	if VerifyWebhookSignature(payload, sig, "") {
		t.Fatalf("expected missing secret to fail")
	}
	if VerifyWebhookSignature(payload, "  ", "  ") {
		t.Fatalf("expected blank header and secret to fail")
	}
}
