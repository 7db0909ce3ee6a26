package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
)

type fakeWriter struct {
	rows []OrderFactRow
	err  error
}

func (f *fakeWriter) InsertFact(_ context.Context, row OrderFactRow) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

func testRouter(t *testing.T, writer Writer) *Router {
	t.Helper()
	router, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router
}

func envelopeFor(t *testing.T, eventType enums.OutboxEventType, payload any) Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return Envelope{
		EventID:       "evt-1",
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   "661b9f2e-95a3-4a62-9882-1cf10a120bc8",
		OccurredAt:    time.Date(2025, 10, 3, 15, 0, 0, 0, time.UTC),
		Payload:       raw,
	}
}

func TestHandleOrderCreatedBuildsFactRow(t *testing.T) {
	writer := &fakeWriter{}
	router := testRouter(t, writer)

	envelope := envelopeFor(t, enums.EventOrderCreated, map[string]any{
		"orderNo":      "PD-1001",
		"customerName": "Dale Markham",
		"partName":     "Transfer Case",
		"salePrice":    "850.00",
		"grossProfit":  "215.50",
	})
	if err := router.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(writer.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(writer.rows))
	}
	row := writer.rows[0]
	if row.OrderNo != "PD-1001" {
		t.Fatalf("unexpected order no %q", row.OrderNo)
	}
	if row.EventType != "order_created" {
		t.Fatalf("unexpected event type %q", row.EventType)
	}
	if row.SalePrice == nil || *row.SalePrice != 850.0 {
		t.Fatalf("unexpected sale price %v", row.SalePrice)
	}
	if row.GrossProfit == nil || *row.GrossProfit != 215.5 {
		t.Fatalf("unexpected gross profit %v", row.GrossProfit)
	}
	if row.CustomerName == nil || *row.CustomerName != "Dale Markham" {
		t.Fatalf("unexpected customer name %v", row.CustomerName)
	}
}

func TestHandleOrderStatusChangedRecordsTransition(t *testing.T) {
	writer := &fakeWriter{}
	router := testRouter(t, writer)

	envelope := envelopeFor(t, enums.EventOrderStatusChanged, map[string]any{
		"orderNo": "PD-1001",
		"from":    "In progress",
		"to":      "Shipped",
	})
	if err := router.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	row := writer.rows[0]
	if row.StatusFrom == nil || *row.StatusFrom != "In progress" {
		t.Fatalf("unexpected status_from %v", row.StatusFrom)
	}
	if row.StatusTo == nil || *row.StatusTo != "Shipped" {
		t.Fatalf("unexpected status_to %v", row.StatusTo)
	}
}

func TestHandleYardEscalatedRecordsPositionAndCause(t *testing.T) {
	writer := &fakeWriter{}
	router := testRouter(t, writer)

	envelope := envelopeFor(t, enums.EventYardEscalated, map[string]any{
		"orderNo":  "PD-1002",
		"position": 2,
		"cause":    "Damaged",
	})
	if err := router.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	row := writer.rows[0]
	if row.YardPosition == nil || *row.YardPosition != 2 {
		t.Fatalf("unexpected yard position %v", row.YardPosition)
	}
	if row.EscalationCause == nil || *row.EscalationCause != "Damaged" {
		t.Fatalf("unexpected cause %v", row.EscalationCause)
	}
}

func TestHandleUnsupportedEventType(t *testing.T) {
	router := testRouter(t, &fakeWriter{})

	envelope := envelopeFor(t, enums.EventTrackingEmailRequested, map[string]any{"orderNo": "PD-1"})
	err := router.Handle(context.Background(), envelope)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected ErrUnsupportedEventType, got %v", err)
	}
	if router.Supports(enums.EventTrackingEmailRequested) {
		t.Fatalf("tracking emails should not be mirrored")
	}
}

func TestHandleWriterFailurePropagates(t *testing.T) {
	writer := &fakeWriter{err: errors.New("insert failed")}
	router := testRouter(t, writer)

	envelope := envelopeFor(t, enums.EventOrderRefunded, map[string]any{
		"orderNo": "PD-1003",
		"amount":  "120.00",
	})
	if err := router.Handle(context.Background(), envelope); err == nil {
		t.Fatalf("expected writer error")
	}
}
