package model

import (
	"time"

	"gorm.io/datatypes"
)

// Outbox event types.
const (
	EventOrderPurchased    = "order.purchased"
	EventOrderRefunded     = "order.refunded"
	EventEnrollmentChanged = "enrollment.changed"
)

// Outbox row statuses.
const (
	OutboxPending    = "pending"
	OutboxProcessing = "processing"
	OutboxSent       = "sent"
)

// OutboxEvent is written in the same transaction as the state change it
// describes and relayed to the message broker afterwards.
type OutboxEvent struct {
	ID        int64          `gorm:"primaryKey" json:"id"`
	EventType string         `gorm:"type:varchar(64);not null" json:"event_type"`
	Payload   datatypes.JSON `gorm:"not null" json:"payload"`
	Status    string         `gorm:"type:varchar(16);not null;default:'pending';index:idx_outbox_status_retry" json:"status"`
	Attempts  int            `gorm:"not null;default:0" json:"attempts"`
	NextRetry time.Time      `gorm:"not null;default:now();index:idx_outbox_status_retry" json:"next_retry"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName specifies the table name for OutboxEvent
func (OutboxEvent) TableName() string {
	return "outbox_events"
}
