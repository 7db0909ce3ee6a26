package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
	AggregateYard  OutboxAggregateType = "yard"
	AggregateLead  OutboxAggregateType = "lead"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateYard,
	AggregateLead,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated             OutboxEventType = "order_created"
	EventOrderStatusChanged       OutboxEventType = "order_status_changed"
	EventOrderRefunded            OutboxEventType = "order_refunded"
	EventOrderDisputed            OutboxEventType = "order_disputed"
	EventYardStatusChanged        OutboxEventType = "yard_status_changed"
	EventYardEscalated            OutboxEventType = "yard_escalated"
	EventTrackingEmailRequested   OutboxEventType = "tracking_email_requested"
	EventDeliveryEmailRequested   OutboxEventType = "delivery_email_requested"
	EventPOEmailRequested         OutboxEventType = "po_email_requested"
	EventReplacementCustEmail     OutboxEventType = "replacement_customer_email_requested"
	EventReplacementYardEmail     OutboxEventType = "replacement_yard_email_requested"
	EventReturnEmailRequested     OutboxEventType = "return_email_requested"
	EventRefundEmailRequested     OutboxEventType = "refund_email_requested"
	EventRefundConfirmationNeeded OutboxEventType = "refund_confirmation_requested"
	EventLeadClaimed              OutboxEventType = "lead_claimed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderRefunded,
	EventOrderDisputed,
	EventYardStatusChanged,
	EventYardEscalated,
	EventTrackingEmailRequested,
	EventDeliveryEmailRequested,
	EventPOEmailRequested,
	EventReplacementCustEmail,
	EventReplacementYardEmail,
	EventReturnEmailRequested,
	EventRefundEmailRequested,
	EventRefundConfirmationNeeded,
	EventLeadClaimed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
