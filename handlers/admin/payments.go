package admin

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
)

// ListPaymentCallbacks handles GET /admin/payments/callbacks?order_id=&outcome=&limit=
func (h *AdminHandler) ListPaymentCallbacks(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.Callbacks.List(c.UserContext(), queryID(c, "order_id"), c.Query("outcome"), limit)
	if err != nil {
		log.Errorf("Failed to list payment callbacks: %v", err)
		return response.InternalServerError(c, "Failed to fetch payment callbacks")
	}
	return response.Success(c, rows)
}

// GetPaymentCallback handles GET /admin/payments/callbacks/:id and returns
// the decrypted form fields along with the log row.
func (h *AdminHandler) GetPaymentCallback(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid callback ID")
	}
	view, err := h.Callbacks.Get(c.UserContext(), id)
	if errors.Is(err, services.ErrCallbackNotFound) {
		return response.NotFound(c, "Payment callback not found")
	}
	if err != nil {
		log.Errorf("Failed to fetch payment callback %d: %v", id, err)
		return response.InternalServerError(c, "Failed to fetch payment callback")
	}
	return response.Success(c, view)
}
