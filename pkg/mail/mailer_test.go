package mail

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/partsdeskhq/partsdesk-backend/pkg/config"
)

func testConfig() config.NotifierConfig {
	return config.NotifierConfig{
		SMTPHost:    "smtp.example.com",
		SMTPPort:    587,
		FromAddress: "ops@partsdesk.example",
		FromName:    "PartsDesk Operations",
		ReplyTo:     "support@partsdesk.example",
	}
}

func TestBuildMessagePlainText(t *testing.T) {
	msg := Message{
		To:       []string{"yard@example.com"},
		Subject:  "PO for order ORD-100",
		TextBody: "Please confirm the purchase order.",
	}

	raw, err := buildMessage(testConfig(), msg, time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	content := string(raw)

	for _, want := range []string{
		"To: yard@example.com",
		"Reply-To: support@partsdesk.example",
		"Content-Type: text/plain; charset=utf-8",
		"Please confirm the purchase order.",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if strings.Contains(content, "multipart/mixed") {
		t.Error("plain message should not be multipart")
	}
}

func TestBuildMessageWithAttachment(t *testing.T) {
	msg := Message{
		To:       []string{"yard@example.com"},
		Subject:  "PO with invoice",
		HTMLBody: "<p>See attached.</p>",
		Attachments: []Attachment{
			{Filename: "invoice.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 fake")},
		},
	}

	raw, err := buildMessage(testConfig(), msg, time.Now())
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	content := string(raw)

	for _, want := range []string{
		"multipart/mixed",
		"Content-Type: application/pdf",
		`filename="invoice.pdf"`,
		"Content-Transfer-Encoding: base64",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendValidatesMessage(t *testing.T) {
	mailer := &Mailer{
		cfg: testConfig(),
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			t.Fatal("send should not be called for invalid messages")
			return nil
		},
	}

	cases := []Message{
		{},
		{To: []string{"x@example.com"}},
		{To: []string{"x@example.com"}, Subject: "s"},
	}
	for _, msg := range cases {
		if err := mailer.Send(context.Background(), msg); err == nil {
			t.Errorf("expected validation error for %+v", msg)
		}
	}
}

func TestSendUsesConfiguredRelay(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	mailer := &Mailer{
		cfg: testConfig(),
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr = addr
			gotFrom = from
			gotTo = to
			return nil
		},
	}

	err := mailer.Send(context.Background(), Message{
		To:       []string{"agent@example.com"},
		Subject:  "Tracking update",
		TextBody: "Your part shipped.",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("unexpected addr %q", gotAddr)
	}
	if gotFrom != "ops@partsdesk.example" {
		t.Errorf("unexpected from %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "agent@example.com" {
		t.Errorf("unexpected recipients %v", gotTo)
	}
}
