package escalations

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
)

// CustReasonJunked disables the part-from-customer leg of a replacement.
const CustReasonJunked = "Junked"

// CustomerLeg is the part-from-customer shipment of a replacement or the
// single leg of a return. OwnShipAmount only applies under "Own shipping".
type CustomerLeg struct {
	ShipTo         string
	Method         enums.ShippingMethod
	Shipper        string
	Tracking       string
	Eta            string
	DeliveryStatus string
	OwnShipAmount  string
}

// YardLeg is the part-from-yard shipment of a replacement.
type YardLeg struct {
	ShippingStatus string
	Method         enums.ShippingMethod
	Shipper        string
	Tracking       string
	Eta            string
	TrackingLink   string
}

// ReplacementPlan carries the two independent replacement legs. Customer is
// ignored when the plan's CustReason is "Junked".
type ReplacementPlan struct {
	Customer *CustomerLeg
	Yard     *YardLeg
}

// Plan is the escalation state submitted by the dashboard. Exactly the
// branch matching Process is consulted; the rest is blanked on save.
type Plan struct {
	Process    enums.EscalationProcess
	Cause      enums.EscalationCause
	CustReason string

	Replacement *ReplacementPlan
	Return      *CustomerLeg
}

// customerLegActive reports whether the part-from-customer replacement leg
// participates in the plan.
func (p Plan) customerLegActive() bool {
	return p.Process == enums.EscalationProcessReplacement &&
		p.Replacement != nil &&
		p.Replacement.Customer != nil &&
		p.CustReason != CustReasonJunked
}

func (p Plan) yardLegActive() bool {
	return p.Process == enums.EscalationProcessReplacement &&
		p.Replacement != nil &&
		p.Replacement.Yard != nil
}

func (p Plan) returnLegActive() bool {
	return p.Process == enums.EscalationProcessReturn && p.Return != nil
}

// Validate checks the plan before any write. Field problems are aggregated
// so the caller sees every violation at once.
func (p Plan) Validate() error {
	var err error
	if !p.Process.IsValid() {
		err = multierr.Append(err, fmt.Errorf("escalation process %q is not one of Replacement, Return, Junk", p.Process))
	}
	if !p.Cause.IsValid() {
		err = multierr.Append(err, fmt.Errorf("escalation cause is required"))
	}

	if p.customerLegActive() && p.Replacement.Customer.Method == enums.ShippingMethodOwn {
		err = multierr.Append(err, requireOwnShipping("customer replacement", *p.Replacement.Customer))
	}
	if p.yardLegActive() && p.Replacement.Yard.Method == enums.ShippingMethodOwn {
		leg := p.Replacement.Yard
		if strings.TrimSpace(leg.Shipper) == "" {
			err = multierr.Append(err, fmt.Errorf("yard replacement: shipper is required for own shipping"))
		}
		if strings.TrimSpace(leg.Tracking) == "" {
			err = multierr.Append(err, fmt.Errorf("yard replacement: tracking number is required for own shipping"))
		}
	}
	if p.returnLegActive() && p.Return.Method == enums.ShippingMethodOwn {
		err = multierr.Append(err, requireOwnShipping("return", *p.Return))
	}
	return err
}

func requireOwnShipping(leg string, fields CustomerLeg) error {
	var err error
	if strings.TrimSpace(fields.OwnShipAmount) == "" {
		err = multierr.Append(err, fmt.Errorf("%s: own shipping amount is required for own shipping", leg))
	}
	if strings.TrimSpace(fields.Shipper) == "" {
		err = multierr.Append(err, fmt.Errorf("%s: shipper is required for own shipping", leg))
	}
	if strings.TrimSpace(fields.Tracking) == "" {
		err = multierr.Append(err, fmt.Errorf("%s: tracking number is required for own shipping", leg))
	}
	return err
}

// Shape builds the full escalation column set for the yard row. Every
// escalation field appears in the result; fields outside the selected
// process and active legs are reset to empty rather than left stale.
func Shape(p Plan) map[string]any {
	updates := map[string]any{
		"escalation_process": p.Process,
		"escalation_cause":   p.Cause,
		"cust_reason":        strings.TrimSpace(p.CustReason),

		"ship_to_rep_cust":                     "",
		"customer_shipping_method_replacement": enums.ShippingMethod(""),
		"cust_shipper_replacement":             "",
		"cust_tracking_replacement":            "",
		"cust_eta_replacement":                 "",
		"cust_delivery_status_replacement":     "",
		"cust_own_ship_replacement":            "",

		"yard_shipping_status_replacement": "",
		"yard_shipping_method_replacement": enums.ShippingMethod(""),
		"yard_shipper_replacement":         "",
		"yard_tracking_replacement":        "",
		"yard_eta_replacement":             "",
		"yard_tracking_link_replacement":   "",

		"ship_to_return":         "",
		"shipping_method_return": enums.ShippingMethod(""),
		"shipper_return":         "",
		"tracking_return":        "",
		"eta_return":             "",
		"delivery_status_return": "",
		"own_ship_return":        "",
	}

	if p.customerLegActive() {
		leg := p.Replacement.Customer
		updates["ship_to_rep_cust"] = strings.TrimSpace(leg.ShipTo)
		updates["customer_shipping_method_replacement"] = leg.Method
		updates["cust_shipper_replacement"] = strings.TrimSpace(leg.Shipper)
		updates["cust_tracking_replacement"] = strings.TrimSpace(leg.Tracking)
		updates["cust_eta_replacement"] = strings.TrimSpace(leg.Eta)
		updates["cust_delivery_status_replacement"] = strings.TrimSpace(leg.DeliveryStatus)
		if leg.Method == enums.ShippingMethodOwn {
			updates["cust_own_ship_replacement"] = strings.TrimSpace(leg.OwnShipAmount)
		}
	}
	if p.yardLegActive() {
		leg := p.Replacement.Yard
		updates["yard_shipping_status_replacement"] = strings.TrimSpace(leg.ShippingStatus)
		updates["yard_shipping_method_replacement"] = leg.Method
		updates["yard_shipper_replacement"] = strings.TrimSpace(leg.Shipper)
		updates["yard_tracking_replacement"] = strings.TrimSpace(leg.Tracking)
		updates["yard_eta_replacement"] = strings.TrimSpace(leg.Eta)
		updates["yard_tracking_link_replacement"] = strings.TrimSpace(leg.TrackingLink)
	}
	if p.returnLegActive() {
		leg := p.Return
		updates["ship_to_return"] = strings.TrimSpace(leg.ShipTo)
		updates["shipping_method_return"] = leg.Method
		updates["shipper_return"] = strings.TrimSpace(leg.Shipper)
		updates["tracking_return"] = strings.TrimSpace(leg.Tracking)
		updates["eta_return"] = strings.TrimSpace(leg.Eta)
		updates["delivery_status_return"] = strings.TrimSpace(leg.DeliveryStatus)
		if leg.Method == enums.ShippingMethodOwn {
			updates["own_ship_return"] = strings.TrimSpace(leg.OwnShipAmount)
		}
	}
	return updates
}
