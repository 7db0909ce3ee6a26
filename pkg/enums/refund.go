package enums

import "fmt"

// YardRefundStatus tracks whether money owed back by a yard was collected.
type YardRefundStatus string

const (
	YardRefundCollected    YardRefundStatus = "Refund collected"
	YardRefundNotCollected YardRefundStatus = "Refund not collected"
)

var validYardRefundStatuses = []YardRefundStatus{
	YardRefundCollected,
	YardRefundNotCollected,
}

// String implements fmt.Stringer.
func (y YardRefundStatus) String() string {
	return string(y)
}

// IsValid reports whether the value is a known YardRefundStatus.
func (y YardRefundStatus) IsValid() bool {
	for _, candidate := range validYardRefundStatuses {
		if candidate == y {
			return true
		}
	}
	return false
}

// ParseYardRefundStatus converts raw input into a YardRefundStatus.
func ParseYardRefundStatus(value string) (YardRefundStatus, error) {
	for _, candidate := range validYardRefundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund status %q", value)
}

// RefundAction names the three mutually exclusive recovery checkboxes on a
// yard. At most one may be Ticked at a time.
type RefundAction string

const (
	RefundActionCollect     RefundAction = "collectRefund"
	RefundActionUPSClaim    RefundAction = "upsClaim"
	RefundActionStoreCredit RefundAction = "storeCredit"
)

var validRefundActions = []RefundAction{
	RefundActionCollect,
	RefundActionUPSClaim,
	RefundActionStoreCredit,
}

// IsValid reports whether the value is a known RefundAction.
func (r RefundAction) IsValid() bool {
	for _, candidate := range validRefundActions {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRefundAction converts raw input into a RefundAction.
func ParseRefundAction(value string) (RefundAction, error) {
	for _, candidate := range validRefundActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund action %q", value)
}
