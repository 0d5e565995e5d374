package admin

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
)

// SalesReports computes the sales dashboard figures.
type SalesReports interface {
	GetSalesSummary(ctx context.Context) (*services.SalesSummary, error)
	GetSalesTimeSeries(ctx context.Context, days int) ([]services.SalesPoint, error)
	GetTopPrograms(ctx context.Context, limit int) ([]services.ProgramSales, error)
	GetCouponUsage(ctx context.Context) ([]services.CouponUsage, error)
}

// GetSalesAnalytics retrieves revenue, refunds and coupon usage
// GET /admin/analytics/sales?days=30
func GetSalesAnalytics(c *fiber.Ctx, reports SalesReports) error {
	days, _ := strconv.Atoi(c.Query("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}
	ctx := c.UserContext()

	summary, err := reports.GetSalesSummary(ctx)
	if err != nil {
		log.Errorf("Failed to compute sales summary: %v", err)
		return response.InternalServerError(c, "Failed to fetch sales analytics")
	}
	series, err := reports.GetSalesTimeSeries(ctx, days)
	if err != nil {
		log.Errorf("Failed to compute sales series: %v", err)
		return response.InternalServerError(c, "Failed to fetch sales analytics")
	}
	top, err := reports.GetTopPrograms(ctx, 10)
	if err != nil {
		log.Errorf("Failed to compute top programs: %v", err)
		return response.InternalServerError(c, "Failed to fetch sales analytics")
	}
	coupons, err := reports.GetCouponUsage(ctx)
	if err != nil {
		log.Errorf("Failed to compute coupon usage: %v", err)
		return response.InternalServerError(c, "Failed to fetch sales analytics")
	}

	return response.SuccessWithMessage(c, "Sales analytics retrieved successfully", fiber.Map{
		"summary":      summary,
		"daily":        series,
		"top_programs": top,
		"coupons":      coupons,
		"days":         days,
	})
}
