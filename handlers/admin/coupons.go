package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/database"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
	"github.com/wiproedx/synergeticsopenedx/utils/validation"
)

// couponView adds the human-facing last valid day to a coupon.
type couponView struct {
	*model.ProgramCoupon
	ExpiresOn string `json:"expires_on,omitempty"`
}

func newCouponView(c *model.ProgramCoupon) couponView {
	return couponView{ProgramCoupon: c, ExpiresOn: c.DisplayExpiryDate()}
}

func couponError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, services.ErrCouponNotFound):
		return response.NotFound(c, "Coupon not found")
	case errors.Is(err, services.ErrProgramNotFound):
		return response.BadRequest(c, "Program does not exist")
	case database.IsUniqueViolation(err):
		return response.Conflict(c, "A coupon with this code already exists for the program")
	}
	log.Errorf("Failed to %s coupon: %v", action, err)
	return response.InternalServerError(c, "Failed to "+action+" coupon")
}

func (h *AdminHandler) parseCouponInput(c *fiber.Ctx) (*services.CouponInput, error) {
	var in services.CouponInput
	if err := c.BodyParser(&in); err != nil {
		return nil, response.BadRequest(c, "Invalid request body")
	}
	in.Code = validation.SanitizeString(in.Code)
	if err := h.validator.ValidateStruct(in); err != nil {
		return nil, response.ValidationError(c, err)
	}
	return &in, nil
}

// ListCoupons handles GET /admin/coupons?program_id=
func (h *AdminHandler) ListCoupons(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	coupons, total, err := h.Coupons.ListCoupons(c.UserContext(), queryID(c, "program_id"), page, limit)
	if err != nil {
		return couponError(c, err, "list")
	}
	views := make([]couponView, len(coupons))
	for i := range coupons {
		views[i] = newCouponView(&coupons[i])
	}
	return response.Paginated(c, views, response.CalculatePagination(page, limit, total))
}

// CreateCoupon handles POST /admin/coupons
func (h *AdminHandler) CreateCoupon(c *fiber.Ctx) error {
	in, err := h.parseCouponInput(c)
	if in == nil {
		return err
	}
	coupon, err := h.Coupons.CreateCoupon(c.UserContext(), *in)
	if err != nil {
		return couponError(c, err, "create")
	}
	return c.Status(fiber.StatusCreated).JSON(response.Response{
		Success: true,
		Message: "Coupon created successfully",
		Data:    newCouponView(coupon),
	})
}

// UpdateCoupon handles PUT /admin/coupons/:id
func (h *AdminHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid coupon ID")
	}
	in, err := h.parseCouponInput(c)
	if in == nil {
		return err
	}
	coupon, err := h.Coupons.UpdateCoupon(c.UserContext(), id, *in)
	if err != nil {
		return couponError(c, err, "update")
	}
	return response.SuccessWithMessage(c, "Coupon updated successfully", newCouponView(coupon))
}

// DeleteCoupon handles DELETE /admin/coupons/:id
func (h *AdminHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid coupon ID")
	}
	if err := h.Coupons.DeleteCoupon(c.UserContext(), id); err != nil {
		return couponError(c, err, "delete")
	}
	return response.SuccessWithMessage(c, "Coupon deleted successfully", nil)
}
