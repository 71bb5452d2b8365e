package enums

import "fmt"

// BlacklistReason explains why a phone number is blocked.
type BlacklistReason string

const (
	BlacklistReasonFraud           BlacklistReason = "fraud"
	BlacklistReasonRepeatedReturns BlacklistReason = "repeated_returns"
	BlacklistReasonFakeOrder       BlacklistReason = "fake_order"
	BlacklistReasonAbusive         BlacklistReason = "abusive"
	BlacklistReasonDuplicate       BlacklistReason = "duplicate"
	BlacklistReasonOther           BlacklistReason = "other"
)

var validBlacklistReasons = []BlacklistReason{
	BlacklistReasonFraud,
	BlacklistReasonRepeatedReturns,
	BlacklistReasonFakeOrder,
	BlacklistReasonAbusive,
	BlacklistReasonDuplicate,
	BlacklistReasonOther,
}

// String implements fmt.Stringer.
func (b BlacklistReason) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BlacklistReason.
func (b BlacklistReason) IsValid() bool {
	for _, candidate := range validBlacklistReasons {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBlacklistReason converts raw input into a BlacklistReason.
func ParseBlacklistReason(value string) (BlacklistReason, error) {
	for _, candidate := range validBlacklistReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid blacklist reason %q", value)
}
