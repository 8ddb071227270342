package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyWebhookSignature checks the X-Razorpay-Signature header against an
// HMAC-SHA256 digest of the exact inbound body bytes. The body must never
// be re-serialized before verification: key reordering or whitespace
// changes silently break the digest. Returns false on a missing header or
// secret; callers must reject without parsing the payload.
func VerifyWebhookSignature(rawBody []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}
