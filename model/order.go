package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderStatus is the lifecycle state of a ProgramOrder.
type OrderStatus string

const (
	// OrderStatusInitiate means the user is still selecting what to buy.
	OrderStatusInitiate OrderStatus = "initiate"
	// OrderStatusPurchased means the processor confirmed the charge.
	OrderStatusPurchased OrderStatus = "purchased"
	// OrderStatusRefunded means a purchased order was paid back.
	OrderStatusRefunded OrderStatus = "refunded"
)

// CanTransitionTo reports whether moving from s to next keeps the ledger
// forward-only: initiate -> purchased -> refunded.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusInitiate:
		return next == OrderStatusPurchased
	case OrderStatusPurchased:
		return next == OrderStatusRefunded
	}
	return false
}

// BillingAddress is the billing snapshot copied from the processor callback.
type BillingAddress struct {
	First      string `gorm:"type:varchar(64)" json:"first"`
	Last       string `gorm:"type:varchar(64)" json:"last"`
	Street1    string `gorm:"type:varchar(128)" json:"street1"`
	Street2    string `gorm:"type:varchar(128)" json:"street2"`
	City       string `gorm:"type:varchar(64)" json:"city"`
	State      string `gorm:"type:varchar(8)" json:"state"`
	PostalCode string `gorm:"column:postalcode;type:varchar(16)" json:"postal_code"`
	Country    string `gorm:"type:varchar(64)" json:"country"`
}

// ProgramOrder is one user's attempt to purchase one program. A user holds at
// most one order in the initiate state per program.
type ProgramOrder struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	UserID            uint                `gorm:"not null;index;uniqueIndex:idx_program_orders_pending,where:status = 'initiate'" json:"user_id"`
	ProgramID         uint                `gorm:"not null;index;uniqueIndex:idx_program_orders_pending,where:status = 'initiate'" json:"program_id"`
	ItemName          string              `gorm:"type:varchar(200)" json:"item_name"`
	ItemPrice         decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0" json:"item_price"`
	DiscountedPrice   decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"discounted_price"`
	Status            OrderStatus         `gorm:"type:varchar(32);not null;default:'initiate';index" json:"status"`
	ProcessorResponse datatypes.JSON      `json:"-"` // raw processor reply, admin only
	PurchaseTime      *time.Time          `json:"purchase_time"`
	RefundedTime      *time.Time          `json:"refunded_time"`
	Billing           BillingAddress      `gorm:"embedded;embeddedPrefix:bill_to_" json:"billing"`
	ReceiptKey        string              `gorm:"type:text" json:"-"` // object key of the archived receipt PDF

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Program Program `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
}

// TableName specifies the table name for ProgramOrder
func (ProgramOrder) TableName() string {
	return "program_orders"
}

// ExpectedCharge is the amount the processor must authorize for this order.
func (o *ProgramOrder) ExpectedCharge() decimal.Decimal {
	if o.DiscountedPrice.Valid {
		return o.DiscountedPrice.Decimal
	}
	return o.ItemPrice
}

// Discount is the amount taken off the list price by a coupon.
func (o *ProgramOrder) Discount() decimal.Decimal {
	return o.ItemPrice.Sub(o.ExpectedCharge())
}

// IsSettled reports whether the order reached a terminal payment state.
func (o *ProgramOrder) IsSettled() bool {
	return o.Status == OrderStatusPurchased || o.Status == OrderStatusRefunded
}
