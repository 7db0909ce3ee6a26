package enums

import "fmt"

// YardStatus tracks one supplier's progress fulfilling a part on an order.
type YardStatus string

const (
	YardStatusLocated     YardStatus = "Yard located"
	YardStatusPOSent      YardStatus = "Yard PO Sent"
	YardStatusLabelMade   YardStatus = "Label created"
	YardStatusPOCancelled YardStatus = "PO cancelled"
	YardStatusShipped     YardStatus = "Part shipped"
	YardStatusDelivered   YardStatus = "Part delivered"
	YardStatusEscalation  YardStatus = "Escalation"
)

var validYardStatuses = []YardStatus{
	YardStatusLocated,
	YardStatusPOSent,
	YardStatusLabelMade,
	YardStatusPOCancelled,
	YardStatusShipped,
	YardStatusDelivered,
	YardStatusEscalation,
}

// String implements fmt.Stringer.
func (y YardStatus) String() string {
	return string(y)
}

// IsValid reports whether the value is a known YardStatus.
func (y YardStatus) IsValid() bool {
	for _, candidate := range validYardStatuses {
		if candidate == y {
			return true
		}
	}
	return false
}

// ParseYardStatus converts raw input into a YardStatus.
func ParseYardStatus(value string) (YardStatus, error) {
	for _, candidate := range validYardStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid yard status %q", value)
}
