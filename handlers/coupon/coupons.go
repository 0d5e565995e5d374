package coupon

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/utils/middleware"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
	"github.com/wiproedx/synergeticsopenedx/utils/validation"
)

// CouponRedeemer applies and removes coupon codes on a user's order.
type CouponRedeemer interface {
	UseCode(ctx context.Context, userID, orderID uint, code string) error
	ResetCode(ctx context.Context, userID, orderID uint) error
}

// CouponHandler handles coupon code requests
type CouponHandler struct {
	coupons   CouponRedeemer
	guard     *middleware.CouponAttemptGuard
	validator *validation.Validator
}

// NewCouponHandler creates a new coupon handler. guard may be nil.
func NewCouponHandler(coupons CouponRedeemer, guard *middleware.CouponAttemptGuard) *CouponHandler {
	return &CouponHandler{
		coupons:   coupons,
		guard:     guard,
		validator: validation.NewValidator(),
	}
}

// UseCodeRequest represents the request body for applying a coupon code
type UseCodeRequest struct {
	Code    string `json:"code" validate:"required,coupon_code"`
	OrderID uint   `json:"order_id" validate:"required,min=1"`
}

// ResetCodeRequest represents the request body for removing a coupon code
type ResetCodeRequest struct {
	OrderID uint `json:"order_id" validate:"required,min=1"`
}

// UseCode handles POST /api/v1/programs/use_code
func (h *CouponHandler) UseCode(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UseCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Code = validation.SanitizeString(req.Code)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	ctx := c.UserContext()
	err := h.coupons.UseCode(ctx, userID, req.OrderID, req.Code)
	switch {
	case err == nil:
		h.guard.RecordSuccess(ctx, userID)
		return c.JSON(fiber.Map{
			"response":            "success",
			"coupon_code_applied": true,
		})
	case errors.Is(err, services.ErrCouponNotFound):
		h.guard.RecordFailure(ctx, userID)
		return response.NotFound(c, "Discount does not exist against code '"+req.Code+"'.")
	case errors.Is(err, services.ErrMultipleCoupons):
		return response.BadRequest(c, "Only one coupon redemption is allowed against an order")
	case errors.Is(err, services.ErrOrderNotFound):
		return response.NotFound(c, "Order not found")
	case errors.Is(err, services.ErrOrderNotPending):
		return response.BadRequest(c, "Coupons can only be applied to orders that have not been paid")
	}
	log.Errorf("Failed to apply code for user %d on order %d: %v", userID, req.OrderID, err)
	return response.InternalServerError(c, "Failed to apply coupon")
}

// ResetCodeRedemption handles POST /api/v1/programs/reset_code_redemption
func (h *CouponHandler) ResetCodeRedemption(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req ResetCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	err := h.coupons.ResetCode(c.UserContext(), userID, req.OrderID)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"response": "success"})
	case errors.Is(err, services.ErrOrderNotFound):
		return response.NotFound(c, "Order not found")
	case errors.Is(err, services.ErrOrderNotPending):
		return response.BadRequest(c, "Coupons can only be removed from orders that have not been paid")
	}
	log.Errorf("Failed to reset code for user %d on order %d: %v", userID, req.OrderID, err)
	return response.InternalServerError(c, "Failed to remove coupon")
}
