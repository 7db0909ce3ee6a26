package analytics

import "github.com/shopspring/decimal"

// Decoded views of the order lifecycle payloads. Only the fields the facts
// table cares about are declared; unknown fields are ignored.

type orderCreatedPayload struct {
	OrderNo      string          `json:"orderNo"`
	CustomerName string          `json:"customerName"`
	PartName     string          `json:"partName"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	GrossProfit  decimal.Decimal `json:"grossProfit"`
}

type orderStatusPayload struct {
	OrderNo string `json:"orderNo"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type orderRefundedPayload struct {
	OrderNo string          `json:"orderNo"`
	Amount  decimal.Decimal `json:"amount"`
}

type orderDisputedPayload struct {
	OrderNo string          `json:"orderNo"`
	Reason  string          `json:"reason"`
	Amount  decimal.Decimal `json:"amount"`
}

type yardEscalatedPayload struct {
	OrderNo  string `json:"orderNo"`
	Position int    `json:"position"`
	Cause    string `json:"cause"`
}
