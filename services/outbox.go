package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wiproedx/synergeticsopenedx/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventEnvelope is the message body relayed to the broker.
type EventEnvelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// OrderEvent is the payload of order.purchased and order.refunded.
type OrderEvent struct {
	OrderID   uint            `json:"order_id"`
	UserID    uint            `json:"user_id"`
	ProgramID uint            `json:"program_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
}

// EnrollmentEvent is the payload of enrollment.changed.
type EnrollmentEvent struct {
	UserID    uint `json:"user_id"`
	ProgramID uint `json:"program_id"`
	Active    bool `json:"active"`
}

// enqueueEvent writes an outbox row on tx so the event commits or rolls back
// with the change it describes.
func enqueueEvent(tx *gorm.DB, eventType string, data interface{}) error {
	now := time.Now().UTC()
	body, err := json.Marshal(EventEnvelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: now,
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	row := model.OutboxEvent{
		EventType: eventType,
		Payload:   datatypes.JSON(body),
		Status:    model.OutboxPending,
		NextRetry: now,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("enqueue %s event: %w", eventType, err)
	}
	return nil
}
