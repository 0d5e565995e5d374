package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wiproedx/synergeticsopenedx/model"
	"gorm.io/gorm"
)

// chargedAmount is the SQL expression for what an order was charged.
const chargedAmount = "COALESCE(program_orders.discounted_price, program_orders.item_price)"

// AnalyticsService handles sales reporting for the back-office
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{
		db: db,
	}
}

// SalesSummary represents overall sales statistics
type SalesSummary struct {
	PurchasedOrders   int64           `json:"purchased_orders"`
	RefundedOrders    int64           `json:"refunded_orders"`
	PendingOrders     int64           `json:"pending_orders"`
	GrossRevenue      decimal.Decimal `json:"gross_revenue"`
	RefundedAmount    decimal.Decimal `json:"refunded_amount"`
	NetRevenue        decimal.Decimal `json:"net_revenue"`
	DiscountsGiven    decimal.Decimal `json:"discounts_given"`
	CouponRedemptions int64           `json:"coupon_redemptions"`
	ActiveEnrollments int64           `json:"active_enrollments"`
}

// GetSalesSummary retrieves overall sales statistics
func (s *AnalyticsService) GetSalesSummary(ctx context.Context) (*SalesSummary, error) {
	db := s.db.WithContext(ctx)
	summary := &SalesSummary{}

	counts := []struct {
		status model.OrderStatus
		dest   *int64
	}{
		{model.OrderStatusPurchased, &summary.PurchasedOrders},
		{model.OrderStatusRefunded, &summary.RefundedOrders},
		{model.OrderStatusInitiate, &summary.PendingOrders},
	}
	for _, c := range counts {
		if err := db.Model(&model.ProgramOrder{}).Where("status = ?", c.status).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s orders: %w", c.status, err)
		}
	}

	// Refunded orders were charged once, so they count towards gross.
	var totals struct {
		Gross     decimal.Decimal
		Refunded  decimal.Decimal
		Discounts decimal.Decimal
	}
	if err := db.Model(&model.ProgramOrder{}).
		Select(`
			COALESCE(SUM(`+chargedAmount+`), 0) as gross,
			COALESCE(SUM(CASE WHEN status = ? THEN `+chargedAmount+` ELSE 0 END), 0) as refunded,
			COALESCE(SUM(item_price - `+chargedAmount+`), 0) as discounts
		`, model.OrderStatusRefunded).
		Where("status IN ?", []model.OrderStatus{model.OrderStatusPurchased, model.OrderStatusRefunded}).
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	summary.GrossRevenue = totals.Gross
	summary.RefundedAmount = totals.Refunded
	summary.NetRevenue = totals.Gross.Sub(totals.Refunded)
	summary.DiscountsGiven = totals.Discounts

	if err := db.Model(&model.ProgramCouponRedemption{}).
		Joins("JOIN program_orders ON program_orders.id = program_coupon_redemptions.order_id").
		Where("program_orders.status IN ?", []model.OrderStatus{model.OrderStatusPurchased, model.OrderStatusRefunded}).
		Count(&summary.CouponRedemptions).Error; err != nil {
		return nil, fmt.Errorf("failed to count redemptions: %w", err)
	}

	if err := db.Model(&model.ProgramEnrollment{}).Where("is_active = ?", true).
		Count(&summary.ActiveEnrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}

	return summary, nil
}

// SalesPoint is revenue for one day.
type SalesPoint struct {
	Date    time.Time       `json:"date"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// GetSalesTimeSeries retrieves purchased revenue per day over the last days
func (s *AnalyticsService) GetSalesTimeSeries(ctx context.Context, days int) ([]SalesPoint, error) {
	startDate := time.Now().UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	var results []SalesPoint
	if err := s.db.WithContext(ctx).Model(&model.ProgramOrder{}).
		Select("DATE(purchase_time) as date, COUNT(*) as orders, COALESCE(SUM("+chargedAmount+"), 0) as revenue").
		Where("status IN ? AND purchase_time >= ?",
			[]model.OrderStatus{model.OrderStatusPurchased, model.OrderStatusRefunded}, startDate).
		Group("DATE(purchase_time)").
		Order("date ASC").
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch sales series: %w", err)
	}

	return results, nil
}

// ProgramSales represents sales for one program
type ProgramSales struct {
	ProgramID   uint            `json:"program_id"`
	ProgramName string          `json:"program_name"`
	Orders      int64           `json:"orders"`
	Revenue     decimal.Decimal `json:"revenue"`
	Enrollments int64           `json:"enrollments"`
}

// GetTopPrograms retrieves the best selling programs
func (s *AnalyticsService) GetTopPrograms(ctx context.Context, limit int) ([]ProgramSales, error) {
	if limit <= 0 {
		limit = 10
	}

	var results []ProgramSales
	if err := s.db.WithContext(ctx).Model(&model.Program{}).
		Select(`
			programs.id as program_id,
			programs.name as program_name,
			COUNT(DISTINCT program_orders.id) as orders,
			COALESCE(SUM(`+chargedAmount+`), 0) as revenue,
			(SELECT COUNT(*) FROM program_enrollments pe WHERE pe.program_id = programs.id AND pe.is_active) as enrollments
		`).
		Joins("LEFT JOIN program_orders ON program_orders.program_id = programs.id AND program_orders.status = ?", model.OrderStatusPurchased).
		Group("programs.id, programs.name").
		Order("revenue DESC").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch top programs: %w", err)
	}

	return results, nil
}

// CouponUsage represents how often a coupon was redeemed
type CouponUsage struct {
	CouponID       uint            `json:"coupon_id"`
	Code           string          `json:"code"`
	ProgramID      uint            `json:"program_id"`
	Redemptions    int64           `json:"redemptions"`
	DiscountsGiven decimal.Decimal `json:"discounts_given"`
}

// GetCouponUsage retrieves redemption counts per coupon for settled orders
func (s *AnalyticsService) GetCouponUsage(ctx context.Context) ([]CouponUsage, error) {
	var results []CouponUsage
	if err := s.db.WithContext(ctx).Model(&model.ProgramCouponRedemption{}).
		Select(`
			program_coupons.id as coupon_id,
			program_coupons.code as code,
			program_coupons.program_id as program_id,
			COUNT(*) as redemptions,
			COALESCE(SUM(program_orders.item_price - `+chargedAmount+`), 0) as discounts_given
		`).
		Joins("JOIN program_coupons ON program_coupons.id = program_coupon_redemptions.coupon_id").
		Joins("JOIN program_orders ON program_orders.id = program_coupon_redemptions.order_id").
		Where("program_orders.status IN ?", []model.OrderStatus{model.OrderStatusPurchased, model.OrderStatusRefunded}).
		Group("program_coupons.id, program_coupons.code, program_coupons.program_id").
		Order("redemptions DESC").
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch coupon usage: %w", err)
	}

	return results, nil
}
