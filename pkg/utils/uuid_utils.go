package utils

import (
	"strings"

	"github.com/google/uuid"
)

// VoucherPrefix starts every voucher code handed out on redemption.
const VoucherPrefix = "CFC"

var newUUIDv7 = uuid.NewV7

// GenerateUUIDv7 generates a new UUID v7
func GenerateUUIDv7() uuid.UUID {
	id, err := newUUIDv7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// GenerateVoucherCode returns a code such as "CFC-3F9A1C2B-7D4E" cut
// from a random v4 UUID.
func GenerateVoucherCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return VoucherPrefix + "-" + raw[:8] + "-" + raw[len(raw)-4:]
}
