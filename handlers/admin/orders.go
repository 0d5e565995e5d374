package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
	"gorm.io/datatypes"
)

// adminOrderView adds the raw processor reply, which learners never see.
type adminOrderView struct {
	*model.ProgramOrder
	ProcessorResponse datatypes.JSON `json:"processor_response,omitempty"`
}

// ListOrders handles GET /admin/orders?status=&user_id=&program_id=
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	filter := services.OrderFilter{
		Status:    model.OrderStatus(c.Query("status")),
		UserID:    queryID(c, "user_id"),
		ProgramID: queryID(c, "program_id"),
		Page:      page,
		Limit:     limit,
	}
	switch filter.Status {
	case "", model.OrderStatusInitiate, model.OrderStatusPurchased, model.OrderStatusRefunded:
	default:
		return response.BadRequest(c, "Unknown order status")
	}

	orders, total, err := h.Orders.List(c.UserContext(), filter)
	if err != nil {
		log.Errorf("Failed to list orders: %v", err)
		return response.InternalServerError(c, "Failed to fetch orders")
	}
	return response.Paginated(c, orders, response.CalculatePagination(page, limit, total))
}

// GetOrder handles GET /admin/orders/:id
func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid order ID")
	}
	order, err := h.Orders.GetOrder(c.UserContext(), id)
	if errors.Is(err, services.ErrOrderNotFound) {
		return response.NotFound(c, "Order not found")
	}
	if err != nil {
		log.Errorf("Failed to fetch order %d: %v", id, err)
		return response.InternalServerError(c, "Failed to fetch order")
	}
	return response.Success(c, adminOrderView{ProgramOrder: order, ProcessorResponse: order.ProcessorResponse})
}

// RefundOrder handles POST /admin/orders/:id/refund. Only the ledger state
// changes; the money goes back through the processor's own console. The
// buyer loses program access once the refund is recorded.
func (h *AdminHandler) RefundOrder(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid order ID")
	}
	order, err := h.Orders.Refund(c.UserContext(), id)
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return response.NotFound(c, "Order not found")
	case errors.Is(err, services.ErrOrderNotRefundable):
		return response.Conflict(c, "Only purchased orders can be refunded")
	case err != nil:
		log.Errorf("Failed to refund order %d: %v", id, err)
		return response.InternalServerError(c, "Failed to refund order")
	}
	if _, err := h.Enrollments.Unenroll(c.UserContext(), order.UserID, order.ProgramID); err != nil && !errors.Is(err, services.ErrNotEnrolled) {
		log.Errorf("Order %d refunded but user %d is still enrolled in program %d: %v", order.ID, order.UserID, order.ProgramID, err)
		return response.SuccessWithMessage(c, "Order refunded, but program access could not be revoked", order)
	}
	return response.SuccessWithMessage(c, "Order refunded", order)
}
