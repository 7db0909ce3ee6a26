package notifier

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
)

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestRenderTrackingEmail(t *testing.T) {
	payload := mustMarshal(t, map[string]any{
		"orderNo":       "PD-1001",
		"customerEmail": "buyer@example.com",
		"trackingNo":    "1Z999",
		"shipperName":   "UPS",
		"trackingLink":  "https://track.example/1Z999",
		"eta":           "2025-10-08",
	})

	msg, err := Render(enums.EventTrackingEmailRequested, payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.To[0] != "buyer@example.com" {
		t.Fatalf("unexpected recipient %v", msg.To)
	}
	if !strings.Contains(msg.Subject, "PD-1001") {
		t.Fatalf("subject missing order no: %q", msg.Subject)
	}
	for _, want := range []string{"1Z999", "UPS", "https://track.example/1Z999", "2025-10-08"} {
		if !strings.Contains(msg.TextBody, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.TextBody)
		}
	}
}

func TestRenderTrackingEmailMissingRecipient(t *testing.T) {
	payload := mustMarshal(t, map[string]any{"orderNo": "PD-1001"})
	if _, err := Render(enums.EventTrackingEmailRequested, payload); err == nil {
		t.Fatalf("expected error for missing recipient")
	}
}

func TestRenderPOEmailCarriesAttachments(t *testing.T) {
	payload := mustMarshal(t, poEmailPayload{
		OrderNo:   "PD-1002",
		YardEmail: "parts@yard.example",
		YardName:  "Smitty's Auto",
		Attachments: []outbox.Attachment{
			{Filename: "po.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
		},
	})

	msg, err := Render(enums.EventPOEmailRequested, payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.To[0] != "parts@yard.example" {
		t.Fatalf("unexpected recipient %v", msg.To)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "po.pdf" {
		t.Fatalf("expected po.pdf attachment, got %+v", msg.Attachments)
	}
	if !strings.Contains(msg.TextBody, "Smitty's Auto") {
		t.Fatalf("body missing yard name:\n%s", msg.TextBody)
	}
}

func TestRenderReplacementCustomerOwnShippingMentionsLabel(t *testing.T) {
	payload := mustMarshal(t, replacementCustomerPayload{
		OrderNo:       "PD-1003",
		CustomerEmail: "buyer@example.com",
		ShipTo:        "400 Salvage Rd, Tulsa OK",
		Method:        "Own shipping",
	})

	msg, err := Render(enums.EventReplacementCustEmail, payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(msg.TextBody, "prepaid shipping label") {
		t.Fatalf("own shipping body should mention the label:\n%s", msg.TextBody)
	}
	if !strings.Contains(msg.TextBody, "400 Salvage Rd") {
		t.Fatalf("body missing ship-to address:\n%s", msg.TextBody)
	}
}

func TestRenderReplacementCustomerCustomerShipping(t *testing.T) {
	payload := mustMarshal(t, replacementCustomerPayload{
		OrderNo:       "PD-1003",
		CustomerEmail: "buyer@example.com",
		ShipTo:        "400 Salvage Rd, Tulsa OK",
		Method:        "Customer shipping",
	})

	msg, err := Render(enums.EventReplacementCustEmail, payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(msg.TextBody, "prepaid shipping label") {
		t.Fatalf("customer shipping should not promise a label:\n%s", msg.TextBody)
	}
}

func TestRenderRefundConfirmationAttachesReceipt(t *testing.T) {
	payload := mustMarshal(t, refundConfirmationPayload{
		OrderNo:       "PD-1004",
		CustomerEmail: "buyer@example.com",
		Amount:        "120.00",
		Receipt:       &outbox.Attachment{Filename: "receipt.pdf", ContentType: "application/pdf"},
	})

	msg, err := Render(enums.EventRefundConfirmationNeeded, payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "receipt.pdf" {
		t.Fatalf("expected receipt attachment, got %+v", msg.Attachments)
	}
	if !strings.Contains(msg.TextBody, "120.00") {
		t.Fatalf("body missing amount:\n%s", msg.TextBody)
	}
}

func TestRenderUnknownEventType(t *testing.T) {
	if _, err := Render(enums.EventOrderCreated, mustMarshal(t, map[string]any{})); err == nil {
		t.Fatalf("order_created should not render an email")
	}
	if RendersEmail(enums.EventOrderCreated) {
		t.Fatalf("order_created is not an email request")
	}
	if !RendersEmail(enums.EventReturnEmailRequested) {
		t.Fatalf("return_email_requested must render")
	}
}
