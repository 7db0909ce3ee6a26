package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by the router.
type Writer interface {
	InsertFact(ctx context.Context, row OrderFactRow) error
}

type rowBuilder func(envelope Envelope, payload json.RawMessage) (OrderFactRow, error)

// Router turns order lifecycle envelopes into facts-table rows.
type Router struct {
	builders map[enums.OutboxEventType]rowBuilder
	writer   Writer
	logg     *logger.Logger
}

// NewRouter wires the fact builders for the mirrored event types.
func NewRouter(writer Writer, logg *logger.Logger) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Router{
		builders: map[enums.OutboxEventType]rowBuilder{
			enums.EventOrderCreated:       buildOrderCreatedRow,
			enums.EventOrderStatusChanged: buildOrderStatusRow,
			enums.EventOrderRefunded:      buildOrderRefundedRow,
			enums.EventOrderDisputed:      buildOrderDisputedRow,
			enums.EventYardEscalated:      buildYardEscalatedRow,
		},
		writer: writer,
		logg:   logg,
	}, nil
}

// Supports reports whether the event type is mirrored to BigQuery.
func (r *Router) Supports(eventType enums.OutboxEventType) bool {
	_, ok := r.builders[eventType]
	return ok
}

// Handle builds and writes the fact row for the envelope.
func (r *Router) Handle(ctx context.Context, envelope Envelope) error {
	builder, ok := r.builders[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}

	row, err := builder(envelope, envelope.Payload)
	if err != nil {
		return fmt.Errorf("build %s row: %w", envelope.EventType, err)
	}

	logCtx := r.logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"order_no":   row.OrderNo,
	})
	if err := r.writer.InsertFact(logCtx, row); err != nil {
		r.logg.Error(logCtx, "failed to insert fact row", err)
		return err
	}
	r.logg.Info(logCtx, "fact row inserted")
	return nil
}

func baseRow(envelope Envelope, orderNo string) OrderFactRow {
	return OrderFactRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt,
		OrderNo:    orderNo,
	}
}

func buildOrderCreatedRow(envelope Envelope, payload json.RawMessage) (OrderFactRow, error) {
	var event orderCreatedPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return OrderFactRow{}, err
	}
	row := baseRow(envelope, event.OrderNo)
	row.CustomerName = stringPtr(event.CustomerName)
	row.PartName = stringPtr(event.PartName)
	row.SalePrice = decimalPtr(event.SalePrice)
	row.GrossProfit = decimalPtr(event.GrossProfit)
	return row, nil
}

func buildOrderStatusRow(envelope Envelope, payload json.RawMessage) (OrderFactRow, error) {
	var event orderStatusPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return OrderFactRow{}, err
	}
	row := baseRow(envelope, event.OrderNo)
	row.StatusFrom = stringPtr(event.From)
	row.StatusTo = stringPtr(event.To)
	return row, nil
}

func buildOrderRefundedRow(envelope Envelope, payload json.RawMessage) (OrderFactRow, error) {
	var event orderRefundedPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return OrderFactRow{}, err
	}
	row := baseRow(envelope, event.OrderNo)
	row.Amount = decimalPtr(event.Amount)
	return row, nil
}

func buildOrderDisputedRow(envelope Envelope, payload json.RawMessage) (OrderFactRow, error) {
	var event orderDisputedPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return OrderFactRow{}, err
	}
	row := baseRow(envelope, event.OrderNo)
	row.Amount = decimalPtr(event.Amount)
	row.Reason = stringPtr(event.Reason)
	return row, nil
}

func buildYardEscalatedRow(envelope Envelope, payload json.RawMessage) (OrderFactRow, error) {
	var event yardEscalatedPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return OrderFactRow{}, err
	}
	row := baseRow(envelope, event.OrderNo)
	if event.Position > 0 {
		pos := int64(event.Position)
		row.YardPosition = &pos
	}
	row.EscalationCause = stringPtr(event.Cause)
	return row, nil
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func decimalPtr(value decimal.Decimal) *float64 {
	f := value.InexactFloat64()
	return &f
}
