package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
)

// GmailLead is an ingested sales inquiry email. Leads are never deleted;
// the claim lifecycle moves active -> claimed -> closed.
type GmailLead struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MessageID string    `gorm:"column:message_id;uniqueIndex;not null"`
	ThreadID  string    `gorm:"column:thread_id"`

	FromAddress string    `gorm:"column:from_address"`
	Subject     string    `gorm:"column:subject"`
	Snippet     string    `gorm:"column:snippet"`
	ReceivedAt  time.Time `gorm:"column:received_at"`

	Status    enums.LeadStatus `gorm:"column:status;not null;default:'active'"`
	ClaimedBy *uuid.UUID       `gorm:"column:claimed_by;type:uuid"`
	ClaimedAt *time.Time       `gorm:"column:claimed_at"`
	ClosedAt  *time.Time       `gorm:"column:closed_at"`

	Labels []string `gorm:"column:labels;type:jsonb;serializer:json"`

	Comments []LeadComment `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// LeadComment is an append-only note on a lead.
type LeadComment struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LeadID   uuid.UUID `gorm:"column:lead_id;type:uuid;not null;index"`
	Author   string    `gorm:"column:author;not null"`
	Body     string    `gorm:"column:body;not null"`
	PostedAt time.Time `gorm:"column:posted_at;autoCreateTime"`
}
