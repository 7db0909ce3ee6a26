package yards

import (
	"testing"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
)

func TestCanTransitionForwardPath(t *testing.T) {
	allowed := []struct {
		from, to enums.YardStatus
	}{
		{enums.YardStatusLocated, enums.YardStatusPOSent},
		{enums.YardStatusLocated, enums.YardStatusEscalation},
		{enums.YardStatusPOSent, enums.YardStatusLabelMade},
		{enums.YardStatusPOSent, enums.YardStatusPOCancelled},
		{enums.YardStatusPOSent, enums.YardStatusEscalation},
		{enums.YardStatusLabelMade, enums.YardStatusShipped},
		{enums.YardStatusLabelMade, enums.YardStatusEscalation},
		{enums.YardStatusPOCancelled, enums.YardStatusLocated},
		{enums.YardStatusPOCancelled, enums.YardStatusPOSent},
		{enums.YardStatusShipped, enums.YardStatusDelivered},
		{enums.YardStatusShipped, enums.YardStatusEscalation},
		{enums.YardStatusDelivered, enums.YardStatusEscalation},
		{enums.YardStatusEscalation, enums.YardStatusPOSent},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %q -> %q to be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct {
		from, to enums.YardStatus
	}{
		{enums.YardStatusLocated, enums.YardStatusLabelMade},
		{enums.YardStatusLocated, enums.YardStatusShipped},
		{enums.YardStatusLocated, enums.YardStatusDelivered},
		{enums.YardStatusPOSent, enums.YardStatusDelivered},
		{enums.YardStatusLabelMade, enums.YardStatusLocated},
		{enums.YardStatusShipped, enums.YardStatusLabelMade},
		{enums.YardStatusDelivered, enums.YardStatusShipped},
	}
	for _, tc := range forbidden {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %q -> %q to be rejected", tc.from, tc.to)
		}
	}
}

func TestMissingForStatusTrackingFields(t *testing.T) {
	for _, target := range []enums.YardStatus{enums.YardStatusLabelMade, enums.YardStatusShipped} {
		missing := MissingForStatus(target, StatusFields{})
		if len(missing) != 4 {
			t.Fatalf("%s: expected 4 missing fields, got %v", target, missing)
		}

		missing = MissingForStatus(target, StatusFields{
			TrackingNo:  "1Z999",
			Eta:         "2025-10-10",
			ShipperName: "UPS",
		})
		if len(missing) != 1 || missing[0] != "trackingLink" {
			t.Fatalf("%s: expected only trackingLink missing, got %v", target, missing)
		}

		missing = MissingForStatus(target, StatusFields{
			TrackingNo:   "1Z999",
			Eta:          "2025-10-10",
			ShipperName:  "UPS",
			TrackingLink: "https://ups.com/track/1Z999",
		})
		if len(missing) != 0 {
			t.Fatalf("%s: expected no missing fields, got %v", target, missing)
		}
	}
}

func TestMissingForStatusEscalationCause(t *testing.T) {
	missing := MissingForStatus(enums.YardStatusEscalation, StatusFields{})
	if len(missing) != 1 || missing[0] != "escalationCause" {
		t.Fatalf("expected escalationCause missing, got %v", missing)
	}
	missing = MissingForStatus(enums.YardStatusEscalation, StatusFields{
		EscalationCause: enums.EscalationCauseDamaged,
	})
	if len(missing) != 0 {
		t.Fatalf("expected no missing fields, got %v", missing)
	}
}

func TestMissingForStatusNoRequirements(t *testing.T) {
	for _, target := range []enums.YardStatus{
		enums.YardStatusLocated,
		enums.YardStatusPOSent,
		enums.YardStatusPOCancelled,
		enums.YardStatusDelivered,
	} {
		if missing := MissingForStatus(target, StatusFields{}); len(missing) != 0 {
			t.Errorf("%s: expected no required fields, got %v", target, missing)
		}
	}
}

func TestDeriveOrderStatus(t *testing.T) {
	cases := map[enums.YardStatus]enums.OrderStatus{
		enums.YardStatusLocated:     enums.OrderStatusYardProcessing,
		enums.YardStatusPOSent:      enums.OrderStatusYardProcessing,
		enums.YardStatusLabelMade:   enums.OrderStatusYardProcessing,
		enums.YardStatusPOCancelled: enums.OrderStatusYardProcessing,
		enums.YardStatusShipped:     enums.OrderStatusInTransit,
		enums.YardStatusDelivered:   enums.OrderStatusFulfilled,
		enums.YardStatusEscalation:  enums.OrderStatusEscalation,
	}
	for from, want := range cases {
		got, ok := DeriveOrderStatus(from)
		if !ok || got != want {
			t.Errorf("derive(%q) = %q/%v, want %q", from, got, ok, want)
		}
	}
}

func TestShouldPromoteOrderHoldsTerminalStatuses(t *testing.T) {
	held := []enums.OrderStatus{
		enums.OrderStatusRefunded,
		enums.OrderStatusDispute,
		enums.OrderStatusVoided,
		enums.OrderStatusCancelled,
		enums.OrderStatusPartiallyCharged,
	}
	for _, status := range held {
		if ShouldPromoteOrder(status) {
			t.Errorf("expected %q to hold against promotion", status)
		}
	}
	if !ShouldPromoteOrder(enums.OrderStatusPlaced) {
		t.Error("expected Placed to allow promotion")
	}
	if !ShouldPromoteOrder(enums.OrderStatusYardProcessing) {
		t.Error("expected Yard Processing to allow promotion")
	}
}
