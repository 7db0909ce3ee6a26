package yards

import (
	"strings"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
)

// transitions is the yard fulfillment state machine. Void/cancel resets are
// separate operations and are not encoded here.
var transitions = map[enums.YardStatus][]enums.YardStatus{
	enums.YardStatusLocated:     {enums.YardStatusPOSent, enums.YardStatusEscalation},
	enums.YardStatusPOSent:      {enums.YardStatusLabelMade, enums.YardStatusPOCancelled, enums.YardStatusEscalation},
	enums.YardStatusLabelMade:   {enums.YardStatusShipped, enums.YardStatusEscalation},
	enums.YardStatusPOCancelled: {enums.YardStatusLocated, enums.YardStatusPOSent},
	enums.YardStatusShipped:     {enums.YardStatusDelivered, enums.YardStatusEscalation},
	enums.YardStatusDelivered:   {enums.YardStatusEscalation},
	enums.YardStatusEscalation: {
		enums.YardStatusLocated,
		enums.YardStatusPOSent,
		enums.YardStatusLabelMade,
		enums.YardStatusShipped,
		enums.YardStatusDelivered,
	},
}

// CanTransition reports whether a yard may move from one status to another.
func CanTransition(from, to enums.YardStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StatusFields carries the conditionally required data for a status change.
type StatusFields struct {
	TrackingNo      string
	Eta             string
	ShipperName     string
	TrackingLink    string
	EscalationCause enums.EscalationCause
}

// MissingForStatus returns the field names the target status requires but the
// input leaves empty. An empty result means the input satisfies the status.
func MissingForStatus(target enums.YardStatus, fields StatusFields) []string {
	var missing []string
	switch target {
	case enums.YardStatusLabelMade, enums.YardStatusShipped:
		if strings.TrimSpace(fields.TrackingNo) == "" {
			missing = append(missing, "trackingNo")
		}
		if strings.TrimSpace(fields.Eta) == "" {
			missing = append(missing, "eta")
		}
		if strings.TrimSpace(fields.ShipperName) == "" {
			missing = append(missing, "shipper")
		}
		if strings.TrimSpace(fields.TrackingLink) == "" {
			missing = append(missing, "trackingLink")
		}
	case enums.YardStatusEscalation:
		if strings.TrimSpace(fields.EscalationCause.String()) == "" {
			missing = append(missing, "escalationCause")
		}
	}
	return missing
}

// DeriveOrderStatus maps a yard status to the order-level status it promotes.
func DeriveOrderStatus(status enums.YardStatus) (enums.OrderStatus, bool) {
	switch status {
	case enums.YardStatusLocated, enums.YardStatusPOSent, enums.YardStatusLabelMade, enums.YardStatusPOCancelled:
		return enums.OrderStatusYardProcessing, true
	case enums.YardStatusShipped:
		return enums.OrderStatusInTransit, true
	case enums.YardStatusDelivered:
		return enums.OrderStatusFulfilled, true
	case enums.YardStatusEscalation:
		return enums.OrderStatusEscalation, true
	default:
		return "", false
	}
}

// holdOrderStatuses are order states a yard transition never overrides.
var holdOrderStatuses = map[enums.OrderStatus]struct{}{
	enums.OrderStatusRefunded:         {},
	enums.OrderStatusDispute:          {},
	enums.OrderStatusVoided:           {},
	enums.OrderStatusCancelled:        {},
	enums.OrderStatusPartiallyCharged: {},
}

// ShouldPromoteOrder reports whether the order's current status may be
// replaced by a derived one.
func ShouldPromoteOrder(current enums.OrderStatus) bool {
	_, held := holdOrderStatuses[current]
	return !held
}
