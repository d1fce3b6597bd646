package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)
	secret := "whsec_test"

	sig := signPayload(payload, secret)

	if !VerifyWebhookSignature(payload, sig, secret) {
		t.Fatal("valid signature rejected")
	}
	if !VerifyWebhookSignature(payload, strings.ToUpper(sig), secret) {
		t.Fatal("hex case must not matter")
	}
	if VerifyWebhookSignature(payload, sig, "other_secret") {
		t.Fatal("signature from another secret accepted")
	}
	if VerifyWebhookSignature([]byte(`{"tampered":true}`), sig, secret) {
		t.Fatal("signature over a different payload accepted")
	}
	if VerifyWebhookSignature(payload, "", secret) {
		t.Fatal("empty signature accepted")
	}
	if VerifyWebhookSignature(payload, sig, "") {
		t.Fatal("empty secret accepted")
	}
	if VerifyWebhookSignature(payload, "not-hex!", secret) {
		t.Fatal("malformed signature accepted")
	}
}
