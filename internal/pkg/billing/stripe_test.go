package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"
)

const testWebhookSecret = "whsec_test_secret"

func stripeSignatureHeader(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyAndParse_ValidSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","customer":"cus_1","status":"active"}}}`)
	r := NewReceiver(testWebhookSecret)

	event, err := r.VerifyAndParse(payload, stripeSignatureHeader(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(event.Type) != "customer.subscription.updated" {
		t.Fatalf("event type = %q", event.Type)
	}
	if event.ID != "evt_1" {
		t.Fatalf("event id = %q", event.ID)
	}
}

func TestVerifyAndParse_BadSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"customer.subscription.updated","data":{"object":{}}}`)
	r := NewReceiver(testWebhookSecret)

	_, err := r.VerifyAndParse(payload, stripeSignatureHeader(payload, "whsec_other_secret", time.Now()))
	if !errors.Is(err, ErrSignatureVerificationFailed) {
		t.Fatalf("expected ErrSignatureVerificationFailed, got %v", err)
	}
}

func TestVerifyAndParse_StaleTimestampRejected(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"customer.subscription.updated","data":{"object":{}}}`)
	r := NewReceiver(testWebhookSecret)

	_, err := r.VerifyAndParse(payload, stripeSignatureHeader(payload, testWebhookSecret, time.Now().Add(-time.Hour)))
	if !errors.Is(err, ErrSignatureVerificationFailed) {
		t.Fatalf("expected ErrSignatureVerificationFailed for stale timestamp, got %v", err)
	}
}

func TestVerifyAndParse_EmptyPayload(t *testing.T) {
	r := NewReceiver(testWebhookSecret)

	_, err := r.VerifyAndParse(nil, "t=1,v1=deadbeef")
	if !errors.Is(err, ErrInvalidPayloadType) {
		t.Fatalf("expected ErrInvalidPayloadType, got %v", err)
	}
}
