package app

import "fmt"

// PaymentPolicy decides whether payment is checked before or after the
// supply unit is committed.
type PaymentPolicy string

const (
	// PolicyValidateFirst peeks the price under the event lock and rejects a
	// wrong payment before touching supply.
	PolicyValidateFirst PaymentPolicy = "validate_first"
	// PolicyDecrementFirst commits the decrement and then checks payment. A
	// wrong payment still consumes one unit of supply.
	PolicyDecrementFirst PaymentPolicy = "decrement_first"
)

// ParsePaymentPolicy maps a config value to a policy. Empty means the default.
func ParsePaymentPolicy(s string) (PaymentPolicy, error) {
	switch PaymentPolicy(s) {
	case "", PolicyValidateFirst:
		return PolicyValidateFirst, nil
	case PolicyDecrementFirst:
		return PolicyDecrementFirst, nil
	default:
		return "", fmt.Errorf("unknown payment policy %q", s)
	}
}
