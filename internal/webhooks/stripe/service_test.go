package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/partsdeskhq/partsdesk-backend/internal/orders"
	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
)

type stubOrders struct {
	inputs []orders.DisputeInput
	err    error
}

func (s *stubOrders) Dispute(_ context.Context, input orders.DisputeInput) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.inputs = append(s.inputs, input)
	return &models.Order{OrderNo: input.OrderNo}, nil
}

func testService(t *testing.T, orderSvc orderDisputer) *Service {
	t.Helper()
	svc, err := NewService(orderSvc, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func disputeEvent(t *testing.T, dispute stripe.Dispute, created time.Time) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(dispute)
	if err != nil {
		t.Fatalf("marshal dispute: %v", err)
	}
	return &stripe.Event{
		ID:      "evt_1",
		Type:    stripe.EventTypeChargeDisputeCreated,
		Created: created.Unix(),
		Data:    &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventRecordsDispute(t *testing.T) {
	orderSvc := &stubOrders{}
	svc := testService(t, orderSvc)

	created := time.Date(2025, 10, 5, 14, 0, 0, 0, time.UTC)
	event := disputeEvent(t, stripe.Dispute{
		ID:       "dp_1",
		Amount:   12500,
		Reason:   stripe.DisputeReasonFraudulent,
		Metadata: map[string]string{"order_no": "PD-1001"},
	}, created)

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(orderSvc.inputs) != 1 {
		t.Fatalf("expected 1 dispute recorded, got %d", len(orderSvc.inputs))
	}
	input := orderSvc.inputs[0]
	if input.OrderNo != "PD-1001" {
		t.Fatalf("unexpected order no %q", input.OrderNo)
	}
	if input.Amount.String() != "125" {
		t.Fatalf("expected cents converted to dollars, got %s", input.Amount.String())
	}
	if input.Reason != "fraudulent" {
		t.Fatalf("unexpected reason %q", input.Reason)
	}
	if input.Date == nil || !input.Date.Equal(created) {
		t.Fatalf("unexpected dispute date %v", input.Date)
	}
}

func TestHandleEventFallsBackToChargeMetadata(t *testing.T) {
	orderSvc := &stubOrders{}
	svc := testService(t, orderSvc)

	event := disputeEvent(t, stripe.Dispute{
		ID:     "dp_2",
		Amount: 5000,
		Charge: &stripe.Charge{Metadata: map[string]string{"order_no": "PD-1002"}},
	}, time.Now())

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if orderSvc.inputs[0].OrderNo != "PD-1002" {
		t.Fatalf("unexpected order no %q", orderSvc.inputs[0].OrderNo)
	}
	if orderSvc.inputs[0].Reason != "Chargeback" {
		t.Fatalf("blank reason should default to Chargeback, got %q", orderSvc.inputs[0].Reason)
	}
}

func TestHandleEventMissingOrderNo(t *testing.T) {
	svc := testService(t, &stubOrders{})

	event := disputeEvent(t, stripe.Dispute{ID: "dp_3", Amount: 100}, time.Now())
	err := svc.HandleEvent(context.Background(), event)
	if err == nil {
		t.Fatalf("expected error for missing order_no")
	}
	if domain := pkgerrors.As(err); domain == nil || domain.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleEventIgnoresUnrelatedTypes(t *testing.T) {
	orderSvc := &stubOrders{}
	svc := testService(t, orderSvc)

	event := &stripe.Event{
		ID:   "evt_2",
		Type: stripe.EventTypeInvoicePaid,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(orderSvc.inputs) != 0 {
		t.Fatalf("unrelated events should not record disputes")
	}
}

type fakeWebhookStore struct {
	setNXResult bool
	lastKey     string
	deleted     string
}

func (f *fakeWebhookStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	f.lastKey = key
	return f.setNXResult, nil
}

func (f *fakeWebhookStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.deleted = keys[0]
	}
	return nil
}

func (f *fakeWebhookStore) WebhookEventKey(provider, eventID string) string {
	return "pd:webhook:" + provider + ":" + eventID
}

func TestIdempotencyGuardMarksFirstDelivery(t *testing.T) {
	store := &fakeWebhookStore{setNXResult: true}
	guard, err := NewIdempotencyGuard(store, time.Hour)
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}

	already, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if already {
		t.Fatalf("first delivery should not be marked already handled")
	}
	if store.lastKey != "pd:webhook:stripe:evt_1" {
		t.Fatalf("unexpected key %q", store.lastKey)
	}

	if err := guard.Delete(context.Background(), "evt_1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.deleted != "pd:webhook:stripe:evt_1" {
		t.Fatalf("unexpected deleted key %q", store.deleted)
	}
}

func TestIdempotencyGuardDetectsDuplicates(t *testing.T) {
	guard, err := NewIdempotencyGuard(&fakeWebhookStore{setNXResult: false}, time.Hour)
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}
	already, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if !already {
		t.Fatalf("duplicate delivery should be detected")
	}
}
