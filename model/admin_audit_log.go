package model

import "time"

// AdminAuditLog records one back-office action (coupon edits, refunds,
// certificate issuance) together with the request body that caused it.
type AdminAuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AdminID     uint      `gorm:"not null;index" json:"admin_id"`
	Action      string    `gorm:"type:varchar(100);not null;index" json:"action"` // e.g. "coupon_update", "order_refund"
	Resource    string    `gorm:"type:varchar(100);index" json:"resource"`        // e.g. "coupons", "orders"
	ResourceID  uint      `json:"resource_id"`
	OldValue    string    `gorm:"type:jsonb" json:"old_value"`
	NewValue    string    `gorm:"type:jsonb" json:"new_value"`
	StatusCode  int       `json:"status_code"`
	IPAddress   string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent   string    `gorm:"type:text" json:"user_agent"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	Admin User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
