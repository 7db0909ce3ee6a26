package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
)

// Yard is one supplier's fulfillment attempt on an order. Yards are owned
// exclusively by their order and addressed by 1-based position.
type Yard struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_yards_order_position,priority:1"`
	// Position is the 1-based index the dashboard and the API address yards by.
	Position int `gorm:"column:position;not null;uniqueIndex:ux_yards_order_position,priority:2"`

	YardName  string `gorm:"column:yard_name;not null"`
	YardPhone string `gorm:"column:yard_phone"`
	YardEmail string `gorm:"column:yard_email"`
	Contact   string `gorm:"column:contact"`

	Status        enums.YardStatus    `gorm:"column:status;not null;default:'Yard located'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;default:'Card not charged'"`

	PartPrice    decimal.Decimal `gorm:"column:part_price;type:numeric(12,2);not null;default:0"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0"`
	OtherFees    decimal.Decimal `gorm:"column:other_fees;type:numeric(12,2);not null;default:0"`

	// Forward shipment tracking (set when the label is created).
	TrackingNo   string `gorm:"column:tracking_no"`
	Eta          string `gorm:"column:eta"`
	ShipperName  string `gorm:"column:shipper_name"`
	TrackingLink string `gorm:"column:tracking_link"`

	// Escalation header. EscTicked is sticky once the yard has escalated.
	EscalationProcess enums.EscalationProcess `gorm:"column:escalation_process"`
	EscalationCause   enums.EscalationCause   `gorm:"column:escalation_cause"`
	EscTicked         enums.Flag              `gorm:"column:esc_ticked"`
	EscalationDate    *time.Time              `gorm:"column:escalation_date"`
	CustReason        string                  `gorm:"column:cust_reason"`

	// Replacement, part-from-customer leg.
	ShipToRepCust                 string               `gorm:"column:ship_to_rep_cust"`
	CustomerShippingMethodRep     enums.ShippingMethod `gorm:"column:customer_shipping_method_replacement"`
	CustShipperReplacement        string               `gorm:"column:cust_shipper_replacement"`
	CustTrackingReplacement       string               `gorm:"column:cust_tracking_replacement"`
	CustEtaReplacement            string               `gorm:"column:cust_eta_replacement"`
	CustDeliveryStatusReplacement string               `gorm:"column:cust_delivery_status_replacement"`
	CustOwnShipReplacement        string               `gorm:"column:cust_own_ship_replacement"`

	// Replacement, part-from-yard leg.
	YardShippingStatusReplacement string               `gorm:"column:yard_shipping_status_replacement"`
	YardShippingMethodReplacement enums.ShippingMethod `gorm:"column:yard_shipping_method_replacement"`
	YardShipperReplacement        string               `gorm:"column:yard_shipper_replacement"`
	YardTrackingReplacement       string               `gorm:"column:yard_tracking_replacement"`
	YardEtaReplacement            string               `gorm:"column:yard_eta_replacement"`
	YardTrackingLinkReplacement   string               `gorm:"column:yard_tracking_link_replacement"`

	// Return leg.
	ShipToReturn         string               `gorm:"column:ship_to_return"`
	ShippingMethodReturn enums.ShippingMethod `gorm:"column:shipping_method_return"`
	ShipperReturn        string               `gorm:"column:shipper_return"`
	TrackingReturn       string               `gorm:"column:tracking_return"`
	EtaReturn            string               `gorm:"column:eta_return"`
	DeliveryStatusReturn string               `gorm:"column:delivery_status_return"`
	OwnShipReturn        string               `gorm:"column:own_ship_return"`

	// Yard refund workflow. At most one checkbox is Ticked at a time.
	RefundStatus          enums.YardRefundStatus `gorm:"column:refund_status"`
	RefundedAmount        decimal.Decimal        `gorm:"column:refunded_amount;type:numeric(12,2);not null;default:0"`
	RefundDate            *time.Time             `gorm:"column:refund_date"`
	RefundReason          string                 `gorm:"column:refund_reason"`
	RefundToCollect       string                 `gorm:"column:refund_to_collect"`
	CollectRefundCheckbox enums.Checkbox         `gorm:"column:collect_refund_checkbox"`
	UPSClaimCheckbox      enums.Checkbox         `gorm:"column:ups_claim_checkbox"`
	StoreCreditCheckbox   enums.Checkbox         `gorm:"column:store_credit_checkbox"`

	// Version supports conditional writes for concurrent yard edits.
	Version int `gorm:"column:version;not null;default:1"`

	UpdatedBy string `gorm:"column:updated_by"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
