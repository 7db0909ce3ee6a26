package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
)

// Order is the top-level brokerage order. Orders are never physically
// deleted; cancellation and voiding are status transitions.
type Order struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNo string    `gorm:"column:order_no;uniqueIndex;not null"`

	CustomerName  string `gorm:"column:customer_name;not null"`
	CustomerEmail string `gorm:"column:customer_email"`
	CustomerPhone string `gorm:"column:customer_phone"`

	PartName        string `gorm:"column:part_name;not null"`
	BillingAddress  string `gorm:"column:billing_address"`
	ShippingAddress string `gorm:"column:shipping_address"`

	SalePrice   decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2);not null"`
	PartCost    decimal.Decimal `gorm:"column:part_cost;type:numeric(12,2);not null"`
	ShippingFee decimal.Decimal `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	// GrossProfit is derived (sale - cost - shipping) and recomputed on every
	// pricing write; stored so reports can aggregate without re-deriving.
	GrossProfit decimal.Decimal `gorm:"column:gross_profit;type:numeric(12,2);not null"`

	Status    enums.OrderStatus `gorm:"column:status;not null;default:'Placed'"`
	OrderDate time.Time         `gorm:"column:order_date;not null"`

	// Customer refund (order level).
	CustRefundAmount *decimal.Decimal `gorm:"column:cust_refund_amount;type:numeric(12,2)"`
	CustRefundDate   *time.Time       `gorm:"column:cust_refund_date"`

	// Dispute fields coexist with any order status.
	DisputeDate           *time.Time       `gorm:"column:dispute_date"`
	DisputeReason         string           `gorm:"column:dispute_reason"`
	DisputeRefundedAmount *decimal.Decimal `gorm:"column:dispute_refunded_amount;type:numeric(12,2)"`

	// SquarePaymentID links the card charge for refund issuance, when known.
	SquarePaymentID string `gorm:"column:square_payment_id"`

	UpdatedBy string `gorm:"column:updated_by"`

	Yards []Yard `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// RecomputeGP refreshes the stored gross profit from the pricing fields.
func (o *Order) RecomputeGP() {
	o.GrossProfit = o.SalePrice.Sub(o.PartCost).Sub(o.ShippingFee)
}
