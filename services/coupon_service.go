package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"github.com/wiproedx/synergeticsopenedx/database"
	"github.com/wiproedx/synergeticsopenedx/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var hundred = decimal.NewFromInt(100)

// DiscountedPrice applies a percentage discount. The discount amount is
// rounded to two places half-to-even before it is subtracted.
func DiscountedPrice(price decimal.Decimal, percentage int) decimal.Decimal {
	discount := price.Mul(decimal.NewFromInt(int64(percentage))).Div(hundred).RoundBank(2)
	return price.Sub(discount)
}

// CouponService applies program coupons to pending orders.
type CouponService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCouponService creates a new coupon service
func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{db: db, now: time.Now}
}

// LookupCode returns the coupons with code that are active and not expired.
func (s *CouponService) LookupCode(ctx context.Context, code string) ([]model.ProgramCoupon, error) {
	var coupons []model.ProgramCoupon
	err := s.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		Where("expiration_date IS NULL OR expiration_date > ?", s.now().UTC()).
		Order("id").
		Find(&coupons).Error
	if err != nil {
		return nil, fmt.Errorf("lookup coupon %q: %w", code, err)
	}
	return coupons, nil
}

// Apply redeems coupon against the order. It returns false without changes
// when the coupon belongs to another program, and ErrMultipleCoupons when the
// order already carries a redemption of a different code or of this coupon.
// The redemption and the new discounted price commit together.
func (s *CouponService) Apply(ctx context.Context, coupon *model.ProgramCoupon, orderID uint) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.ProgramOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !order.Status.CanTransitionTo(model.OrderStatusPurchased) {
			return ErrOrderNotPending
		}

		var existing []model.ProgramCouponRedemption
		err := tx.Preload("Coupon", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
			Where("order_id = ? AND user_id = ?", order.ID, order.UserID).
			Find(&existing).Error
		if err != nil {
			return err
		}
		for _, r := range existing {
			if r.Coupon.Code != coupon.Code || r.CouponID == coupon.ID {
				log.Warnf("Coupon redemption already exist for user %d against order id %d", order.UserID, order.ID)
				return ErrMultipleCoupons
			}
		}

		if order.ProgramID != coupon.ProgramID {
			return nil
		}

		redemption := model.ProgramCouponRedemption{
			OrderID:  order.ID,
			UserID:   order.UserID,
			CouponID: coupon.ID,
		}
		if err := tx.Create(&redemption).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrMultipleCoupons
			}
			return err
		}

		discounted := DiscountedPrice(order.ItemPrice, coupon.PercentageDiscount)
		if err := tx.Model(&order).Update("discounted_price", decimal.NewNullDecimal(discounted)).Error; err != nil {
			return err
		}

		log.Infof("Discount generated for user %d against order id %d", order.UserID, order.ID)
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// Remove deletes any redemption on the order and clears its discount.
func (s *CouponService) Remove(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return removeRedemption(tx, orderID)
	})
}

func removeRedemption(tx *gorm.DB, orderID uint) error {
	var order model.ProgramOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if order.Status != model.OrderStatusInitiate {
		return ErrOrderNotPending
	}

	res := tx.Where("order_id = ?", orderID).Delete(&model.ProgramCouponRedemption{})
	if res.Error != nil {
		return res.Error
	}
	if err := tx.Model(&order).Update("discounted_price", nil).Error; err != nil {
		return err
	}
	if res.RowsAffected > 0 {
		log.Infof("Coupon redemption removed for user %d against order id %d", order.UserID, order.ID)
	}
	return nil
}

// UseCode applies code to the user's order. Usable coupons with that code
// are tried in id order until the one scoped to the order's program applies.
func (s *CouponService) UseCode(ctx context.Context, userID, orderID uint, code string) error {
	var order model.ProgramOrder
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if order.UserID != userID {
		return ErrOrderNotFound
	}

	coupons, err := s.LookupCode(ctx, code)
	if err != nil {
		return err
	}

	applied := false
	for i := range coupons {
		ok, err := s.Apply(ctx, &coupons[i], order.ID)
		if err != nil {
			return err
		}
		if ok {
			applied = true
			break
		}
	}
	if !applied {
		return fmt.Errorf("%w '%s'", ErrCouponNotFound, code)
	}
	return nil
}

// ResetCode removes the user's redemption from their order.
func (s *CouponService) ResetCode(ctx context.Context, userID, orderID uint) error {
	var order model.ProgramOrder
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if order.UserID != userID {
		return ErrOrderNotFound
	}
	return s.Remove(ctx, order.ID)
}

// DropStaleRedemption clears the order's discount when its coupon can no
// longer be used, or when the discount has no redemption behind it. It
// reports whether anything was removed.
func (s *CouponService) DropStaleRedemption(ctx context.Context, order *model.ProgramOrder) (bool, error) {
	if !order.DiscountedPrice.Valid || order.Status != model.OrderStatusInitiate {
		return false, nil
	}

	var redemption model.ProgramCouponRedemption
	err := s.db.WithContext(ctx).
		Preload("Coupon", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("order_id = ?", order.ID).
		First(&redemption).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	stale := errors.Is(err, gorm.ErrRecordNotFound) ||
		redemption.Coupon.DeletedAt.Valid ||
		!redemption.Coupon.IsUsable(s.now())
	if !stale {
		return false, nil
	}

	if err := s.Remove(ctx, order.ID); err != nil {
		return false, err
	}
	order.DiscountedPrice = decimal.NullDecimal{}
	return true, nil
}

// SweepExpired clears redemptions of inactive, expired or deleted coupons
// from orders that are still pending. It returns the number of orders reset.
func (s *CouponService) SweepExpired(ctx context.Context) (int64, error) {
	var orderIDs []uint
	err := s.db.WithContext(ctx).
		Table("program_coupon_redemptions AS r").
		Joins("JOIN program_coupons c ON c.id = r.coupon_id").
		Joins("JOIN program_orders o ON o.id = r.order_id").
		Where("o.status = ?", model.OrderStatusInitiate).
		Where("c.is_active = ? OR c.deleted_at IS NOT NULL OR (c.expiration_date IS NOT NULL AND c.expiration_date <= ?)",
			false, s.now().UTC()).
		Pluck("r.order_id", &orderIDs).Error
	if err != nil {
		return 0, fmt.Errorf("find stale redemptions: %w", err)
	}

	var swept int64
	for _, id := range orderIDs {
		if err := s.Remove(ctx, id); err != nil {
			if errors.Is(err, ErrOrderNotPending) || errors.Is(err, ErrOrderNotFound) {
				continue
			}
			return swept, err
		}
		swept++
	}
	return swept, nil
}

// CouponInput is the editable part of a coupon.
type CouponInput struct {
	Code               string     `json:"code" validate:"required,coupon_code"`
	Description        string     `json:"description" validate:"max=255"`
	ProgramID          uint       `json:"program_id" validate:"required,min=1"`
	PercentageDiscount int        `json:"percentage_discount" validate:"min=0,max=100"`
	IsActive           *bool      `json:"is_active"`
	ExpirationDate     *time.Time `json:"expiration_date"`
}

func (in CouponInput) apply(c *model.ProgramCoupon) {
	c.Code = in.Code
	c.Description = in.Description
	c.ProgramID = in.ProgramID
	c.PercentageDiscount = in.PercentageDiscount
	c.ExpirationDate = in.ExpirationDate
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

// CreateCoupon adds a coupon for an existing program.
func (s *CouponService) CreateCoupon(ctx context.Context, in CouponInput) (*model.ProgramCoupon, error) {
	if err := s.requireProgram(ctx, in.ProgramID); err != nil {
		return nil, err
	}
	coupon := model.ProgramCoupon{IsActive: true}
	in.apply(&coupon)
	if err := s.db.WithContext(ctx).Create(&coupon).Error; err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	return &coupon, nil
}

// UpdateCoupon changes a coupon. Pending orders keep their discount until
// the next buy page visit or sweep finds the coupon unusable.
func (s *CouponService) UpdateCoupon(ctx context.Context, id uint, in CouponInput) (*model.ProgramCoupon, error) {
	var coupon model.ProgramCoupon
	if err := s.db.WithContext(ctx).First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	if err := s.requireProgram(ctx, in.ProgramID); err != nil {
		return nil, err
	}
	in.apply(&coupon)
	if err := s.db.WithContext(ctx).Save(&coupon).Error; err != nil {
		return nil, fmt.Errorf("update coupon %d: %w", id, err)
	}
	return &coupon, nil
}

// DeleteCoupon soft-deletes a coupon. Existing redemptions keep pointing at it.
func (s *CouponService) DeleteCoupon(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.ProgramCoupon{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCouponNotFound
	}
	return nil
}

// ListCoupons returns coupons, optionally for one program, newest first.
func (s *CouponService) ListCoupons(ctx context.Context, programID uint, page, limit int) ([]model.ProgramCoupon, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.ProgramCoupon{})
	if programID != 0 {
		q = q.Where("program_id = ?", programID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var coupons []model.ProgramCoupon
	err := q.Preload("Program").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&coupons).Error
	return coupons, total, err
}

func (s *CouponService) requireProgram(ctx context.Context, programID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Program{}).Where("id = ?", programID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrProgramNotFound
	}
	return nil
}
