package enums

import "fmt"

// LeadStatus tracks the claim lifecycle of an ingested Gmail lead.
type LeadStatus string

const (
	LeadStatusActive  LeadStatus = "active"
	LeadStatusClaimed LeadStatus = "claimed"
	LeadStatusClosed  LeadStatus = "closed"
)

var validLeadStatuses = []LeadStatus{
	LeadStatusActive,
	LeadStatusClaimed,
	LeadStatusClosed,
}

// String implements fmt.Stringer.
func (l LeadStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LeadStatus.
func (l LeadStatus) IsValid() bool {
	for _, candidate := range validLeadStatuses {
		if candidate == l {
			return true
		}
	}
	return false
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
