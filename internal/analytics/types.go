package analytics

import (
	"encoding/json"
	"time"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
)

// Envelope is the decoded analytics message handed to the router.
type Envelope struct {
	EventID       string
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	OccurredAt    time.Time
	Payload       json.RawMessage
}

// OrderFactRow is the BigQuery facts schema. One row per order lifecycle
// event; columns irrelevant to the event type stay NULL.
type OrderFactRow struct {
	EventID         string    `bigquery:"event_id"`
	EventType       string    `bigquery:"event_type"`
	OccurredAt      time.Time `bigquery:"occurred_at"`
	OrderNo         string    `bigquery:"order_no"`
	CustomerName    *string   `bigquery:"customer_name"`
	PartName        *string   `bigquery:"part_name"`
	SalePrice       *float64  `bigquery:"sale_price"`
	GrossProfit     *float64  `bigquery:"gross_profit"`
	StatusFrom      *string   `bigquery:"status_from"`
	StatusTo        *string   `bigquery:"status_to"`
	Amount          *float64  `bigquery:"amount"`
	Reason          *string   `bigquery:"reason"`
	YardPosition    *int64    `bigquery:"yard_position"`
	EscalationCause *string   `bigquery:"escalation_cause"`
	IngestedAt      time.Time `bigquery:"ingested_at"`
}
