package enums

import "fmt"

// LeadSource identifies the acquisition channel of a lead.
type LeadSource string

const (
	LeadSourceFacebook  LeadSource = "facebook"
	LeadSourceInstagram LeadSource = "instagram"
	LeadSourceTikTok    LeadSource = "tiktok"
	LeadSourceGoogle    LeadSource = "google"
	LeadSourceWhatsApp  LeadSource = "whatsapp"
	LeadSourceWebsite   LeadSource = "website"
	LeadSourceReferral  LeadSource = "referral"
	LeadSourceManual    LeadSource = "manual"
)

var validLeadSources = []LeadSource{
	LeadSourceFacebook,
	LeadSourceInstagram,
	LeadSourceTikTok,
	LeadSourceGoogle,
	LeadSourceWhatsApp,
	LeadSourceWebsite,
	LeadSourceReferral,
	LeadSourceManual,
}

// String implements fmt.Stringer.
func (l LeadSource) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LeadSource.
func (l LeadSource) IsValid() bool {
	for _, candidate := range validLeadSources {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLeadSource converts raw input into a LeadSource.
func ParseLeadSource(value string) (LeadSource, error) {
	for _, candidate := range validLeadSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lead source %q", value)
}
