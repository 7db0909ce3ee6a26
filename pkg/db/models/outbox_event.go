package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
)

// OutboxEvent is an append-only domain event emitted transactionally with
// the write that produced it.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
}

// OutboxDLQ holds events that exhausted their publish attempts.
type OutboxDLQ struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID     uuid.UUID       `gorm:"column:event_id;type:uuid;not null;uniqueIndex"`
	EventType   string          `gorm:"column:event_type;not null"`
	Payload     json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	Reason      string          `gorm:"column:reason;not null"`
	Attempts    int             `gorm:"column:attempts;not null"`
	DeadAt      time.Time       `gorm:"column:dead_at;autoCreateTime"`
	LastError   string          `gorm:"column:last_error"`
	SourceTable string          `gorm:"column:source_table;not null;default:'outbox_events'"`
}
