package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	secret := "my-secret-key"
	payload := []byte(`{"type":"authenticated","identity":"alice"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("1700000000." + string(payload)))
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, Sign(secret, 1700000000, payload))
	assert.NotEqual(t, expected, Sign(secret, 1700000001, payload), "timestamp is part of the signature")
}

func TestVerify(t *testing.T) {
	secret := "test-secret"
	payload := []byte(`{"test":"data"}`)
	now := time.Unix(1700000000, 0)
	ts := now.Unix()
	validSignature := Sign(secret, ts, payload)

	tests := []struct {
		name      string
		secret    string
		timestamp int64
		payload   []byte
		signature string
		tolerance time.Duration
		expected  bool
	}{
		{"valid signature", secret, ts, payload, validSignature, 5 * time.Minute, true},
		{"invalid signature", secret, ts, payload, "sha256=invalid", 5 * time.Minute, false},
		{"wrong secret", "other", ts, payload, validSignature, 5 * time.Minute, false},
		{"tampered payload", secret, ts, []byte(`{"test":"evil"}`), validSignature, 5 * time.Minute, false},
		{"stale timestamp", secret, ts - 600, payload, Sign(secret, ts-600, payload), 5 * time.Minute, false},
		{"future timestamp", secret, ts + 600, payload, Sign(secret, ts+600, payload), 5 * time.Minute, false},
		{"no tolerance skips freshness", secret, ts - 600, payload, Sign(secret, ts-600, payload), 0, true},
		{"empty signature", secret, ts, payload, "", 5 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Verify(tt.secret, tt.timestamp, tt.payload, tt.signature, tt.tolerance, now)
			assert.Equal(t, tt.expected, got)
		})
	}
}
