package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Idempotency key prefixes. The gateway deduplicates on the full id, so a new
// id is a new business attempt.
const (
	PaymentIDPrefix          = "PAY"
	AgreementPaymentIDPrefix = "AGREEMENT-PAY"
	RefundIDPrefix           = "REFUND"
	NotificationIDPrefix     = "NOTIF"
)

// NewRequestID returns "<prefix>-<uuid>-<unix seconds>".
func NewRequestID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%d", prefix, uuid.New().String(), now.Unix())
}

// ExtractTraceID returns the trace id of a W3C traceparent header
// ("00-<32 hex>-<16 hex>-<flags>"), or "" when the header is unusable.
func ExtractTraceID(traceparent string) string {
	if !strings.HasPrefix(traceparent, "00-") {
		return ""
	}

	parts := strings.Split(traceparent, "-")
	if len(parts) != 4 || len(parts[1]) != 32 || !isHex(parts[1]) {
		return ""
	}
	return parts[1]
}

// CorrelationID prefers the caller's trace id and otherwise mints one.
func CorrelationID(traceparent string) string {
	if id := ExtractTraceID(traceparent); id != "" {
		return id
	}
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func isHex(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}
