package enums

import "fmt"

// LeadNoteKind distinguishes free-form notes from funnel audit notes.
type LeadNoteKind string

const (
	LeadNoteKindNote         LeadNoteKind = "note"
	LeadNoteKindStatusChange LeadNoteKind = "status_change"
	LeadNoteKindReopen       LeadNoteKind = "reopen"
)

var validLeadNoteKinds = []LeadNoteKind{
	LeadNoteKindNote,
	LeadNoteKindStatusChange,
	LeadNoteKindReopen,
}

// String implements fmt.Stringer.
func (l LeadNoteKind) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LeadNoteKind.
func (l LeadNoteKind) IsValid() bool {
	for _, candidate := range validLeadNoteKinds {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLeadNoteKind converts raw input into a LeadNoteKind.
func ParseLeadNoteKind(value string) (LeadNoteKind, error) {
	for _, candidate := range validLeadNoteKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lead note kind %q", value)
}
