package model

import (
	"time"

	"github.com/lib/pq"
)

// PaymentCallbackLog keeps every processor callback for audit, including the
// ones that could not be tied to an order.
type PaymentCallbackLog struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	OrderID         *uint          `gorm:"index" json:"order_id"`
	ReferenceNumber string         `gorm:"type:varchar(64);index" json:"reference_number"`
	Decision        string         `gorm:"type:varchar(32)" json:"decision"`
	Outcome         string         `gorm:"type:varchar(32);not null;index" json:"outcome"` // accepted, declined, cancelled, data_error, signature_error, amount_mismatch, unexpected_error
	Detail          string         `gorm:"type:text" json:"detail"`
	SignedFields    pq.StringArray `gorm:"type:text[]" json:"signed_fields"`
	Payload         []byte         `gorm:"type:bytea" json:"-"`
	PayloadNonce    []byte         `gorm:"type:bytea" json:"-"` // empty when the payload is stored unsealed
	RemoteIP        string         `gorm:"type:varchar(45)" json:"remote_ip"`
}

// TableName specifies the table name for PaymentCallbackLog
func (PaymentCallbackLog) TableName() string {
	return "payment_callback_logs"
}

// IsSealed reports whether Payload is encrypted at rest.
func (l *PaymentCallbackLog) IsSealed() bool {
	return len(l.PayloadNonce) > 0
}
