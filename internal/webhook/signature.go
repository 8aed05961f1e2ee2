package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

const (
	SignatureHeader = "X-Facegate-Signature"
	TimestampHeader = "X-Facegate-Timestamp"
	EventHeader     = "X-Facegate-Event"
)

// Sign computes the HMAC-SHA256 of "<timestamp>.<payload>". Binding the
// timestamp lets receivers reject replayed deliveries.
func Sign(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature and that timestamp is within tolerance of now.
// A zero tolerance skips the freshness check.
func Verify(secret string, timestamp int64, payload []byte, signature string, tolerance time.Duration, now time.Time) bool {
	if tolerance > 0 {
		age := now.Sub(time.Unix(timestamp, 0))
		if age < 0 {
			age = -age
		}
		if age > tolerance {
			return false
		}
	}

	expectedSignature := Sign(secret, timestamp, payload)
	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}
