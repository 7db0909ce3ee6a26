package notifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	"github.com/partsdeskhq/partsdesk-backend/pkg/mail"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
)

type renderFunc func(payload json.RawMessage) (mail.Message, error)

var renderers = map[enums.OutboxEventType]renderFunc{
	enums.EventTrackingEmailRequested:   renderTrackingEmail,
	enums.EventDeliveryEmailRequested:   renderDeliveryEmail,
	enums.EventPOEmailRequested:         renderPOEmail,
	enums.EventReplacementCustEmail:     renderReplacementCustomerEmail,
	enums.EventReplacementYardEmail:     renderReplacementYardEmail,
	enums.EventReturnEmailRequested:     renderReturnEmail,
	enums.EventRefundEmailRequested:     renderRefundEmail,
	enums.EventRefundConfirmationNeeded: renderRefundConfirmation,
}

// RendersEmail reports whether the event type produces an outgoing message.
func RendersEmail(eventType enums.OutboxEventType) bool {
	_, ok := renderers[eventType]
	return ok
}

// Render produces the outgoing message for the event payload.
func Render(eventType enums.OutboxEventType, payload json.RawMessage) (mail.Message, error) {
	render, ok := renderers[eventType]
	if !ok {
		return mail.Message{}, fmt.Errorf("no email template for %s", eventType)
	}
	if len(payload) == 0 {
		return mail.Message{}, fmt.Errorf("empty payload for %s", eventType)
	}
	return render(payload)
}

func requireRecipient(kind, address string) ([]string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%s email missing", kind)
	}
	return []string{address}, nil
}

func mailAttachments(in []outbox.Attachment) []mail.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]mail.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, mail.Attachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Data:        a.Data,
		})
	}
	return out
}

func renderTrackingEmail(payload json.RawMessage) (mail.Message, error) {
	var p trackingEmailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return mail.Message{}, err
	}
	to, err := requireRecipient("customer", p.CustomerEmail)
	if err != nil {
		return mail.Message{}, err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Good news! Your part for order %s has shipped.\n\n", p.OrderNo)
	fmt.Fprintf(&body, "Carrier: %s\n", p.ShipperName)
	fmt.Fprintf(&body, "Tracking number: %s\n", p.TrackingNo)
	if p.TrackingLink != "" {
		fmt.Fprintf(&body, "Track your shipment: %s\n", p.TrackingLink)
	}
	if p.Eta != "" {
		fmt.Fprintf(&body, "Estimated delivery: %s\n", p.Eta)
	}
	body.WriteString("\nReply to this email if anything looks off.\n")

	return mail.Message{
		To:       to,
		Subject:  fmt.Sprintf("Your order %s has shipped", p.OrderNo),
		TextBody: body.String(),
	}, nil
}

func renderDeliveryEmail(payload json.RawMessage) (mail.Message, error) {
	var p deliveryEmailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return mail.Message{}, err
	}
	to, err := requireRecipient("customer", p.CustomerEmail)
	if err != nil {
		return mail.Message{}, err
	}
	body := fmt.Sprintf(
		"Our records show your part for order %s was delivered.\n\nIf anything arrived damaged or incorrect, reply to this email and we will make it right.\n",
		p.OrderNo,
	)
	return mail.Message{
		To:       to,
		Subject:  fmt.Sprintf("Order %s delivered", p.OrderNo),
		TextBody: body,
	}, nil
}

func renderPOEmail(payload json.RawMessage) (mail.Message, error) {
	var p poEmailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return mail.Message{}, err
	}
	to, err := requireRecipient("yard", p.YardEmail)
	if err != nil {
		return mail.Message{}, err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", p.YardName)
	fmt.Fprintf(&body, "Please find the purchase order for our order %s attached.\n", p.OrderNo)
	body.WriteString("Confirm receipt and let us know the expected ship date.\n")

	return mail.Message{
		To:          to,
		Subject:     fmt.Sprintf("Purchase order for %s", p.OrderNo),
		TextBody:    body.String(),
		Attachments: mailAttachments(p.Attachments),
	}, nil
}

func renderReplacementCustomerEmail(payload json.RawMessage) (mail.Message, error) {
	var p replacementCustomerPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return mail.Message{}, err
	}
	to, err := requireRecipient("customer", p.CustomerEmail)
	if err != nil {
		return mail.Message{}, err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "We are arranging a replacement part for your order %s.\n\n", p.OrderNo)
	fmt.Fprintf(&body, "Please ship the original part back to:\n%s\n\n", p.ShipTo)
	switch p.Method {
	case string(enums.ShippingMethodOwn):
		body.WriteString("A prepaid shipping label is attached. Print it and drop the package at the carrier.\n")
	case string(enums.ShippingMethodYard):
		body.WriteString("The supplier's return label is attached. Print it and drop the package at the carrier.\n")
	default:
		body.WriteString("Ship the part at your convenience and reply with the tracking number.\n")
	}

	return mail.Message{
		To:          to,
		Subject:     fmt.Sprintf("Replacement part for order %s", p.OrderNo),
		TextBody:    body.String(),
		Attachments: mailAttachments(p.Attachments),
	}, nil
}

func renderReplacementYardEmail(payload json.RawMessage) (mail.Message, error) {
	var p replacementYardPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return mail.Message{}, err
	}
	to, err := requireRecipient("yard", p.YardEmail)
	if err != nil {
		return mail.Message{}, err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", p.YardName)
	fmt.Fprintf(&body, "Confirming the replacement shipment for our order %s:\n\n", p.OrderNo)
	fmt.Fprintf(&body, "Carrier: %s\n", p.Shipper)
	fmt.Fprintf(&body, "Tracking number: %s\n", p.Tracking)
	if p.Eta != "" {
		fmt.Fprintf(&body, "Estimated arrival: %s\n", p.Eta)
	}
	body.WriteString("\nLet us know if any of this changes.\n")

	return mail.Message{
		To:          to,
		Subject:     fmt.Sprintf("Replacement shipment for %s", p.OrderNo),
		TextBody:    body.String(),
		Attachments: mailAttachments(p.Attachments),
	}, nil
}

func renderReturnEmail(payload json.RawMessage) (mail.Message, error) {
	var p returnEmailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return mail.Message{}, err
	}
	to, err := requireRecipient("customer", p.CustomerEmail)
	if err != nil {
		return mail.Message{}, err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Here is how to return the part from order %s.\n\n", p.OrderNo)
	fmt.Fprintf(&body, "Ship it to:\n%s\n\n", p.ShipTo)
	if p.Method == string(enums.ShippingMethodOwn) {
		body.WriteString("A prepaid shipping label is attached.\n")
	} else {
		body.WriteString("Reply with the tracking number once the package is on its way.\n")
	}

	return mail.Message{
		To:          to,
		Subject:     fmt.Sprintf("Return instructions for order %s", p.OrderNo),
		TextBody:    body.String(),
		Attachments: mailAttachments(p.Attachments),
	}, nil
}

func renderRefundEmail(payload json.RawMessage) (mail.Message, error) {
	var p refundEmailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return mail.Message{}, err
	}
	to, err := requireRecipient("yard", p.YardEmail)
	if err != nil {
		return mail.Message{}, err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", p.YardName)
	fmt.Fprintf(&body, "We are requesting a refund of %s on our order %s.\n", p.ToCollect, p.OrderNo)
	fmt.Fprintf(&body, "Reason: %s\n\n", p.Reason)
	body.WriteString("The supporting document is attached. Please confirm the refund timeline.\n")

	return mail.Message{
		To:          to,
		Subject:     fmt.Sprintf("Refund request for %s", p.OrderNo),
		TextBody:    body.String(),
		Attachments: mailAttachments(p.Attachments),
	}, nil
}

func renderRefundConfirmation(payload json.RawMessage) (mail.Message, error) {
	var p refundConfirmationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return mail.Message{}, err
	}
	to, err := requireRecipient("customer", p.CustomerEmail)
	if err != nil {
		return mail.Message{}, err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Your refund of %s for order %s has been processed.\n\n", p.Amount, p.OrderNo)
	body.WriteString("Depending on your bank it can take 5 to 10 business days to appear on your statement.\n")

	msg := mail.Message{
		To:       to,
		Subject:  fmt.Sprintf("Refund processed for order %s", p.OrderNo),
		TextBody: body.String(),
	}
	if p.Receipt != nil {
		msg.Attachments = mailAttachments([]outbox.Attachment{*p.Receipt})
	}
	return msg, nil
}
