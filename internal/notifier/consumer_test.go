package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
	"github.com/partsdeskhq/partsdesk-backend/pkg/mail"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
)

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeManager struct {
	already bool
	err     error
	deleted []string
}

func (f *fakeManager) CheckAndMarkProcessed(_ context.Context, _, _ string) (bool, error) {
	return f.already, f.err
}

func (f *fakeManager) Delete(_ context.Context, _, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	return nil
}

func testConsumer(sender mail.Sender, manager idempotencyChecker) *Consumer {
	return &Consumer{
		subscription: &gcppubsub.Subscriber{},
		sender:       sender,
		idempotency:  manager,
		logg:         logger.New(logger.Options{ServiceName: "test"}),
	}
}

func emailMessage(t *testing.T, eventType enums.OutboxEventType, payload any) *gcppubsub.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    "evt-7",
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &gcppubsub.Message{
		ID:         "msg-1",
		Data:       data,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func TestProcessSendsTrackingEmail(t *testing.T) {
	sender := &fakeSender{}
	consumer := testConsumer(sender, &fakeManager{})

	msg := emailMessage(t, enums.EventTrackingEmailRequested, map[string]any{
		"orderNo":       "PD-1001",
		"customerEmail": "buyer@example.com",
		"trackingNo":    "1Z999",
		"shipperName":   "UPS",
	})
	if consumer.process(context.Background(), msg).nack {
		t.Fatalf("expected ack")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	if sender.sent[0].To[0] != "buyer@example.com" {
		t.Fatalf("unexpected recipient %v", sender.sent[0].To)
	}
}

func TestProcessSkipsNonEmailEvents(t *testing.T) {
	sender := &fakeSender{}
	consumer := testConsumer(sender, &fakeManager{})

	msg := emailMessage(t, enums.EventOrderCreated, map[string]any{"orderNo": "PD-1"})
	if consumer.process(context.Background(), msg).nack {
		t.Fatalf("non-email events should ack")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("non-email events should not send")
	}
}

func TestProcessAcksDuplicateEvents(t *testing.T) {
	sender := &fakeSender{}
	consumer := testConsumer(sender, &fakeManager{already: true})

	msg := emailMessage(t, enums.EventDeliveryEmailRequested, map[string]any{
		"orderNo":       "PD-1001",
		"customerEmail": "buyer@example.com",
	})
	if consumer.process(context.Background(), msg).nack {
		t.Fatalf("duplicates should ack")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("duplicates should not resend")
	}
}

func TestProcessNacksOnSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	manager := &fakeManager{}
	consumer := testConsumer(sender, manager)

	msg := emailMessage(t, enums.EventDeliveryEmailRequested, map[string]any{
		"orderNo":       "PD-1001",
		"customerEmail": "buyer@example.com",
	})
	if !consumer.process(context.Background(), msg).nack {
		t.Fatalf("send failure should nack for retry")
	}
	if len(manager.deleted) != 1 || manager.deleted[0] != "evt-7" {
		t.Fatalf("expected processed marker released, got %v", manager.deleted)
	}
}

func TestProcessDropsUnrenderablePayloads(t *testing.T) {
	sender := &fakeSender{}
	consumer := testConsumer(sender, &fakeManager{})

	// Recipient missing: rendering can never succeed, so the message acks.
	msg := emailMessage(t, enums.EventTrackingEmailRequested, map[string]any{"orderNo": "PD-1"})
	if consumer.process(context.Background(), msg).nack {
		t.Fatalf("unrenderable payloads should ack")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should send")
	}
}
