package model

import (
	"time"

	"gorm.io/gorm"
)

// ProgramCoupon is a percentage-discount code scoped to a single program.
// A code is unique per program among live coupons; other programs may reuse it.
type ProgramCoupon struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	Code               string         `gorm:"type:varchar(32);not null;index;uniqueIndex:idx_program_coupons_code_program,where:deleted_at IS NULL" json:"code"`
	Description        string         `gorm:"type:varchar(255)" json:"description"`
	ProgramID          uint           `gorm:"not null;index;uniqueIndex:idx_program_coupons_code_program" json:"program_id"`
	PercentageDiscount int            `gorm:"not null;default:0;check:percentage_discount BETWEEN 0 AND 100" json:"percentage_discount"`
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`
	ExpirationDate     *time.Time     `json:"expiration_date"`

	Program Program `gorm:"foreignKey:ProgramID;constraint:OnDelete:CASCADE" json:"program,omitempty"`
}

// TableName specifies the table name for ProgramCoupon
func (ProgramCoupon) TableName() string {
	return "program_coupons"
}

// IsExpired reports whether the coupon's expiration has passed at t.
func (c *ProgramCoupon) IsExpired(t time.Time) bool {
	return c.ExpirationDate != nil && !c.ExpirationDate.After(t)
}

// IsUsable reports whether the coupon can be redeemed at t.
func (c *ProgramCoupon) IsUsable(t time.Time) bool {
	return c.IsActive && !c.IsExpired(t)
}

// DisplayExpiryDate renders the last day the coupon is valid, e.g. "March 31, 2025".
func (c *ProgramCoupon) DisplayExpiryDate() string {
	if c.ExpirationDate == nil {
		return ""
	}
	return c.ExpirationDate.AddDate(0, 0, -1).Format("January 02, 2006")
}

// ProgramCouponRedemption binds one coupon to one order.
type ProgramCouponRedemption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	OrderID   uint      `gorm:"not null;uniqueIndex" json:"order_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CouponID  uint      `gorm:"not null;index" json:"coupon_id"`

	Order  ProgramOrder  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	User   User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Coupon ProgramCoupon `gorm:"foreignKey:CouponID;constraint:OnDelete:CASCADE" json:"coupon,omitempty"`
}

// TableName specifies the table name for ProgramCouponRedemption
func (ProgramCouponRedemption) TableName() string {
	return "program_coupon_redemptions"
}
