package escalations

import (
	"strings"
	"testing"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
)

var customerLegColumns = []string{
	"ship_to_rep_cust",
	"customer_shipping_method_replacement",
	"cust_shipper_replacement",
	"cust_tracking_replacement",
	"cust_eta_replacement",
	"cust_delivery_status_replacement",
	"cust_own_ship_replacement",
}

var returnLegColumns = []string{
	"ship_to_return",
	"shipping_method_return",
	"shipper_return",
	"tracking_return",
	"eta_return",
	"delivery_status_return",
	"own_ship_return",
}

func assertBlank(t *testing.T, updates map[string]any, columns []string) {
	t.Helper()
	for _, column := range columns {
		value, ok := updates[column]
		if !ok {
			t.Errorf("column %s missing from shaped payload", column)
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" {
				t.Errorf("column %s = %q, want blank", column, v)
			}
		case enums.ShippingMethod:
			if v != "" {
				t.Errorf("column %s = %q, want blank", column, v)
			}
		default:
			t.Errorf("column %s has unexpected type %T", column, value)
		}
	}
}

func TestShapeJunkedReasonBlanksCustomerLeg(t *testing.T) {
	// The dashboard may still hold customer-leg values when the customer
	// reason flips to "Junked"; none of them may survive the save.
	plan := Plan{
		Process:    enums.EscalationProcessReplacement,
		Cause:      enums.EscalationCauseDamaged,
		CustReason: CustReasonJunked,
		Replacement: &ReplacementPlan{
			Customer: &CustomerLeg{
				ShipTo:        "12 Elm St, Dallas TX",
				Method:        enums.ShippingMethodOwn,
				Shipper:       "UPS",
				Tracking:      "1Z999",
				Eta:           "2025-10-15",
				OwnShipAmount: "45.00",
			},
			Yard: &YardLeg{
				ShippingStatus: "Label created",
				Method:         enums.ShippingMethodYard,
				Shipper:        "FedEx",
				Tracking:       "771234",
				Eta:            "2025-10-18",
				TrackingLink:   "https://fedex.com/track",
			},
		},
	}

	updates := Shape(plan)
	assertBlank(t, updates, customerLegColumns)

	if updates["yard_shipper_replacement"] != "FedEx" {
		t.Errorf("yard leg should survive, got shipper %v", updates["yard_shipper_replacement"])
	}
	if updates["cust_reason"] != CustReasonJunked {
		t.Errorf("cust_reason = %v", updates["cust_reason"])
	}
}

func TestShapeReturnBlanksReplacementColumns(t *testing.T) {
	plan := Plan{
		Process: enums.EscalationProcessReturn,
		Cause:   enums.EscalationCauseIncorrect,
		Return: &CustomerLeg{
			ShipTo:   "Apex Auto Salvage, 400 Yard Rd",
			Method:   enums.ShippingMethodCustomer,
			Shipper:  "USPS",
			Tracking: "9400100000",
		},
	}

	updates := Shape(plan)
	assertBlank(t, updates, customerLegColumns)
	assertBlank(t, updates, []string{
		"yard_shipping_status_replacement",
		"yard_shipping_method_replacement",
		"yard_shipper_replacement",
		"yard_tracking_replacement",
		"yard_eta_replacement",
		"yard_tracking_link_replacement",
	})

	if updates["ship_to_return"] != "Apex Auto Salvage, 400 Yard Rd" {
		t.Errorf("ship_to_return = %v", updates["ship_to_return"])
	}
	if updates["shipping_method_return"] != enums.ShippingMethodCustomer {
		t.Errorf("shipping_method_return = %v", updates["shipping_method_return"])
	}
	// Own-ship amount only applies under "Own shipping".
	if updates["own_ship_return"] != "" {
		t.Errorf("own_ship_return = %v, want blank", updates["own_ship_return"])
	}
}

func TestShapeJunkBlanksEverything(t *testing.T) {
	plan := Plan{
		Process: enums.EscalationProcessJunk,
		Cause:   enums.EscalationCauseDefective,
	}

	updates := Shape(plan)
	assertBlank(t, updates, customerLegColumns)
	assertBlank(t, updates, returnLegColumns)
	if updates["escalation_process"] != enums.EscalationProcessJunk {
		t.Errorf("escalation_process = %v", updates["escalation_process"])
	}
}

func TestShapeOwnShippingKeepsAmount(t *testing.T) {
	plan := Plan{
		Process: enums.EscalationProcessReturn,
		Cause:   enums.EscalationCauseDamaged,
		Return: &CustomerLeg{
			ShipTo:        "400 Yard Rd",
			Method:        enums.ShippingMethodOwn,
			Shipper:       "UPS",
			Tracking:      "1Z888",
			OwnShipAmount: "62.50",
		},
	}

	updates := Shape(plan)
	if updates["own_ship_return"] != "62.50" {
		t.Errorf("own_ship_return = %v, want 62.50", updates["own_ship_return"])
	}
}

func TestValidateCauseRequired(t *testing.T) {
	plan := Plan{Process: enums.EscalationProcessJunk}
	err := plan.Validate()
	if err == nil {
		t.Fatal("expected error for missing cause")
	}
	if !strings.Contains(err.Error(), "cause") {
		t.Fatalf("error should mention the cause: %v", err)
	}
}

func TestValidateOwnShippingRequirements(t *testing.T) {
	plan := Plan{
		Process: enums.EscalationProcessReplacement,
		Cause:   enums.EscalationCauseDamaged,
		Replacement: &ReplacementPlan{
			Customer: &CustomerLeg{
				ShipTo: "12 Elm St",
				Method: enums.ShippingMethodOwn,
				// amount, shipper, tracking all missing
			},
		},
	}

	err := plan.Validate()
	if err == nil {
		t.Fatal("expected aggregated own-shipping errors")
	}
	for _, want := range []string{"own shipping amount", "shipper", "tracking number"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestValidateJunkedCustomerLegSkipsOwnShippingChecks(t *testing.T) {
	plan := Plan{
		Process:    enums.EscalationProcessReplacement,
		Cause:      enums.EscalationCauseOther,
		CustReason: CustReasonJunked,
		Replacement: &ReplacementPlan{
			Customer: &CustomerLeg{Method: enums.ShippingMethodOwn},
		},
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("junked customer leg must not be validated: %v", err)
	}
}

func TestValidateYardLegOwnShipping(t *testing.T) {
	plan := Plan{
		Process: enums.EscalationProcessReplacement,
		Cause:   enums.EscalationCauseDefective,
		Replacement: &ReplacementPlan{
			Yard: &YardLeg{Method: enums.ShippingMethodOwn},
		},
	}
	err := plan.Validate()
	if err == nil {
		t.Fatal("expected yard-leg own-shipping errors")
	}
	for _, want := range []string{"shipper", "tracking number"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}
