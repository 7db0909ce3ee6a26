package enums

import "fmt"

// OrderStatus tracks the order-level lifecycle. Values are the business
// strings the dashboard has always displayed and stored.
type OrderStatus string

const (
	OrderStatusPlaced           OrderStatus = "Placed"
	OrderStatusCustomerApproved OrderStatus = "Customer Approved"
	OrderStatusYardProcessing   OrderStatus = "Yard Processing"
	OrderStatusInTransit        OrderStatus = "In Transit"
	OrderStatusEscalation       OrderStatus = "Escalation"
	OrderStatusFulfilled        OrderStatus = "Order Fulfilled"
	OrderStatusCancelled        OrderStatus = "Order Cancelled"
	OrderStatusRefunded         OrderStatus = "Refunded"
	OrderStatusDispute          OrderStatus = "Dispute"
	OrderStatusVoided           OrderStatus = "Voided"
	OrderStatusPartiallyCharged OrderStatus = "Partially charged order"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusCustomerApproved,
	OrderStatusYardProcessing,
	OrderStatusInTransit,
	OrderStatusEscalation,
	OrderStatusFulfilled,
	OrderStatusCancelled,
	OrderStatusRefunded,
	OrderStatusDispute,
	OrderStatusVoided,
	OrderStatusPartiallyCharged,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
