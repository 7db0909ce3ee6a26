package notifier

import "github.com/partsdeskhq/partsdesk-backend/pkg/outbox"

// Decoded views of the email-request payloads. Each carries the recipient
// and just enough context to render the message.

type trackingEmailPayload struct {
	OrderNo       string `json:"orderNo"`
	Position      int    `json:"position"`
	CustomerEmail string `json:"customerEmail"`
	TrackingNo    string `json:"trackingNo"`
	Eta           string `json:"eta"`
	ShipperName   string `json:"shipperName"`
	TrackingLink  string `json:"trackingLink"`
}

type deliveryEmailPayload struct {
	OrderNo       string `json:"orderNo"`
	Position      int    `json:"position"`
	CustomerEmail string `json:"customerEmail"`
}

type poEmailPayload struct {
	OrderNo     string              `json:"orderNo"`
	Position    int                 `json:"position"`
	YardEmail   string              `json:"yardEmail"`
	YardName    string              `json:"yardName"`
	Attachments []outbox.Attachment `json:"attachments"`
}

type replacementCustomerPayload struct {
	OrderNo       string              `json:"orderNo"`
	Position      int                 `json:"position"`
	CustomerEmail string              `json:"customerEmail"`
	ShipTo        string              `json:"shipTo"`
	Method        string              `json:"method"`
	Attachments   []outbox.Attachment `json:"attachments"`
}

type replacementYardPayload struct {
	OrderNo     string              `json:"orderNo"`
	Position    int                 `json:"position"`
	YardEmail   string              `json:"yardEmail"`
	YardName    string              `json:"yardName"`
	Method      string              `json:"method"`
	Shipper     string              `json:"shipper"`
	Tracking    string              `json:"tracking"`
	Eta         string              `json:"eta"`
	Attachments []outbox.Attachment `json:"attachments"`
}

type returnEmailPayload struct {
	OrderNo       string              `json:"orderNo"`
	Position      int                 `json:"position"`
	CustomerEmail string              `json:"customerEmail"`
	ShipTo        string              `json:"shipTo"`
	Method        string              `json:"method"`
	Attachments   []outbox.Attachment `json:"attachments"`
}

type refundEmailPayload struct {
	OrderNo     string              `json:"orderNo"`
	Position    int                 `json:"position"`
	YardEmail   string              `json:"yardEmail"`
	YardName    string              `json:"yardName"`
	ToCollect   string              `json:"toCollect"`
	Reason      string              `json:"reason"`
	Attachments []outbox.Attachment `json:"attachments"`
}

type refundConfirmationPayload struct {
	OrderNo       string             `json:"orderNo"`
	CustomerEmail string             `json:"customerEmail"`
	Amount        string             `json:"amount"`
	Receipt       *outbox.Attachment `json:"receipt"`
}
