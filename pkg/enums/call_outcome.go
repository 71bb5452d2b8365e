package enums

import "fmt"

// CallOutcome is the result of one call attempt against a lead.
type CallOutcome string

const (
	CallOutcomeConfirmed     CallOutcome = "confirmed"
	CallOutcomeNoAnswer      CallOutcome = "no_answer"
	CallOutcomeCallback      CallOutcome = "callback"
	CallOutcomeBusy          CallOutcome = "busy"
	CallOutcomeWrongNumber   CallOutcome = "wrong_number"
	CallOutcomeNotInterested CallOutcome = "not_interested"
	CallOutcomeCancelled     CallOutcome = "cancelled"
)

var validCallOutcomes = []CallOutcome{
	CallOutcomeConfirmed,
	CallOutcomeNoAnswer,
	CallOutcomeCallback,
	CallOutcomeBusy,
	CallOutcomeWrongNumber,
	CallOutcomeNotInterested,
	CallOutcomeCancelled,
}

// String implements fmt.Stringer.
func (c CallOutcome) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CallOutcome.
func (c CallOutcome) IsValid() bool {
	for _, candidate := range validCallOutcomes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCallOutcome converts raw input into a CallOutcome.
func ParseCallOutcome(value string) (CallOutcome, error) {
	for _, candidate := range validCallOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid call outcome %q", value)
}
