package enums

import "fmt"

// BordereauStatus tracks a courier pickup manifest.
type BordereauStatus string

const (
	BordereauStatusDraft    BordereauStatus = "DRAFT"
	BordereauStatusReady    BordereauStatus = "READY"
	BordereauStatusPickedUp BordereauStatus = "PICKED_UP"
	BordereauStatusClosed   BordereauStatus = "CLOSED"
)

var validBordereauStatuses = []BordereauStatus{
	BordereauStatusDraft,
	BordereauStatusReady,
	BordereauStatusPickedUp,
	BordereauStatusClosed,
}

// String implements fmt.Stringer.
func (b BordereauStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BordereauStatus.
func (b BordereauStatus) IsValid() bool {
	for _, candidate := range validBordereauStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBordereauStatus converts raw input into a BordereauStatus.
func ParseBordereauStatus(value string) (BordereauStatus, error) {
	for _, candidate := range validBordereauStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bordereau status %q", value)
}
