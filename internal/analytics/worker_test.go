package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
)

type fakeHandler struct {
	handled []Envelope
	err     error
}

func (f *fakeHandler) Supports(eventType enums.OutboxEventType) bool {
	return eventType == enums.EventOrderCreated
}

func (f *fakeHandler) Handle(_ context.Context, envelope Envelope) error {
	if f.err != nil {
		return f.err
	}
	f.handled = append(f.handled, envelope)
	return nil
}

type fakeManager struct {
	already bool
	err     error
	deleted []string
	marked  []string
}

func (f *fakeManager) CheckAndMarkProcessed(_ context.Context, _, eventID string) (bool, error) {
	f.marked = append(f.marked, eventID)
	return f.already, f.err
}

func (f *fakeManager) Delete(_ context.Context, _, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	return nil
}

func analyticsMessage(t *testing.T, eventType enums.OutboxEventType, payload any) *gcppubsub.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    "evt-42",
		OccurredAt: time.Date(2025, 10, 3, 15, 0, 0, 0, time.UTC),
		Data:       raw,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &gcppubsub.Message{
		ID:   "msg-1",
		Data: data,
		Attributes: map[string]string{
			"event_type":     string(eventType),
			"aggregate_type": string(enums.AggregateOrder),
			"aggregate_id":   "661b9f2e-95a3-4a62-9882-1cf10a120bc8",
		},
	}
}

func testWorker(t *testing.T, handler Handler, manager idempotencyChecker) *Worker {
	t.Helper()
	worker := &Worker{
		subscription: &gcppubsub.Subscriber{},
		handler:      handler,
		manager:      manager,
		logg:         logger.New(logger.Options{ServiceName: "test"}),
	}
	return worker
}

func TestProcessHandlesSupportedEvent(t *testing.T) {
	handler := &fakeHandler{}
	manager := &fakeManager{}
	worker := testWorker(t, handler, manager)

	msg := analyticsMessage(t, enums.EventOrderCreated, map[string]any{"orderNo": "PD-1"})
	result := worker.process(context.Background(), msg)
	if result.nack {
		t.Fatalf("expected ack")
	}
	if len(handler.handled) != 1 {
		t.Fatalf("expected 1 handled envelope, got %d", len(handler.handled))
	}
	if handler.handled[0].EventID != "evt-42" {
		t.Fatalf("unexpected event id %q", handler.handled[0].EventID)
	}
}

func TestProcessSkipsUnsupportedEvents(t *testing.T) {
	handler := &fakeHandler{}
	manager := &fakeManager{}
	worker := testWorker(t, handler, manager)

	msg := analyticsMessage(t, enums.EventTrackingEmailRequested, map[string]any{"orderNo": "PD-1"})
	result := worker.process(context.Background(), msg)
	if result.nack {
		t.Fatalf("unsupported events should ack")
	}
	if len(manager.marked) != 0 {
		t.Fatalf("unsupported events should not consume idempotency markers")
	}
}

func TestProcessAcksDuplicates(t *testing.T) {
	handler := &fakeHandler{}
	manager := &fakeManager{already: true}
	worker := testWorker(t, handler, manager)

	msg := analyticsMessage(t, enums.EventOrderCreated, map[string]any{"orderNo": "PD-1"})
	result := worker.process(context.Background(), msg)
	if result.nack {
		t.Fatalf("duplicates should ack")
	}
	if len(handler.handled) != 0 {
		t.Fatalf("duplicate should not reach handler")
	}
}

func TestProcessNacksOnHandlerFailure(t *testing.T) {
	handler := &fakeHandler{err: errors.New("bigquery down")}
	manager := &fakeManager{}
	worker := testWorker(t, handler, manager)

	msg := analyticsMessage(t, enums.EventOrderCreated, map[string]any{"orderNo": "PD-1"})
	result := worker.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("handler failure should nack")
	}
	if len(manager.deleted) != 1 || manager.deleted[0] != "evt-42" {
		t.Fatalf("expected processed marker released, got %v", manager.deleted)
	}
}

func TestProcessAcksMalformedEnvelope(t *testing.T) {
	handler := &fakeHandler{}
	manager := &fakeManager{}
	worker := testWorker(t, handler, manager)

	msg := &gcppubsub.Message{ID: "msg-2", Data: []byte("not json"), Attributes: map[string]string{}}
	result := worker.process(context.Background(), msg)
	if result.nack {
		t.Fatalf("malformed envelopes should ack, not redeliver forever")
	}
}
