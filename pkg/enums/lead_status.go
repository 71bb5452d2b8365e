package enums

import "fmt"

// LeadStatus is a step of the lead funnel. The declaration order is the funnel order.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConfirmed LeadStatus = "confirmed"
	LeadStatusWon       LeadStatus = "won"
	LeadStatusLost      LeadStatus = "lost"
)

var validLeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusConfirmed,
	LeadStatusWon,
	LeadStatusLost,
}

// LeadStatuses returns the funnel in order.
func LeadStatuses() []LeadStatus {
	out := make([]LeadStatus, len(validLeadStatuses))
	copy(out, validLeadStatuses)
	return out
}

// String implements fmt.Stringer.
func (s LeadStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LeadStatus.
func (s LeadStatus) IsValid() bool {
	return s.Rank() >= 0
}

// Rank returns the funnel position, -1 for unknown values. won and lost share the last rank.
func (s LeadStatus) Rank() int {
	switch s {
	case LeadStatusNew:
		return 0
	case LeadStatusContacted:
		return 1
	case LeadStatusQualified:
		return 2
	case LeadStatusConfirmed:
		return 3
	case LeadStatusWon, LeadStatusLost:
		return 4
	default:
		return -1
	}
}

// IsTerminal reports whether the lead left the funnel.
func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusWon || s == LeadStatusLost
}

// ParseLeadStatus converts raw input into a LeadStatus.
func ParseLeadStatus(value string) (LeadStatus, error) {
	for _, candidate := range validLeadStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lead status %q", value)
}
