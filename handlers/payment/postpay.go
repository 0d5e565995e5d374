package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/services/cybersource"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
)

// CallbackHandler finalizes orders from processor callbacks.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, params map[string]string, remoteIP string) cybersource.Result
}

// PaymentHandler receives the processor's postpay callback
type PaymentHandler struct {
	payments     CallbackHandler
	supportEmail string
	logParams    bool
}

// NewPaymentHandler creates a new payment handler. When logParams is set
// every callback is written to the log verbatim.
func NewPaymentHandler(payments CallbackHandler, supportEmail string, logParams bool) *PaymentHandler {
	return &PaymentHandler{
		payments:     payments,
		supportEmail: supportEmail,
		logParams:    logParams,
	}
}

// formParams flattens the form body. Repeated keys keep the last value.
func formParams(c *fiber.Ctx) map[string]string {
	params := map[string]string{}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		params[string(key)] = string(value)
	})
	return params
}

// statusFor maps an outcome to the HTTP status of the callback response.
func statusFor(o cybersource.Outcome) int {
	switch o.(type) {
	case cybersource.Accepted:
		return fiber.StatusOK
	case cybersource.Cancelled, cybersource.Declined:
		return fiber.StatusPaymentRequired
	case cybersource.UnexpectedError:
		return fiber.StatusInternalServerError
	}
	return fiber.StatusBadRequest
}

// PostpayCallback handles POST /api/v1/programs/postpay_callback
func (h *PaymentHandler) PostpayCallback(c *fiber.Ctx) error {
	params := formParams(c)
	if h.logParams {
		log.Infof("Postpay callback from %s: %v", c.IP(), params)
	}

	result := h.payments.HandleCallback(c.UserContext(), params, c.IP())

	if _, ok := result.Outcome.(cybersource.Accepted); ok {
		return response.SuccessWithMessage(c, "Payment accepted", fiber.Map{
			"order_id":    result.Order.ID,
			"program_id":  result.Order.ProgramID,
			"receipt_url": fmt.Sprintf("/api/v1/programs/receipt/%d", result.Order.ID),
		})
	}

	log.Warnf("Postpay callback rejected: %s %s", result.Outcome.Kind(), cybersource.Detail(result.Outcome))
	return response.Error(c, statusFor(result.Outcome),
		cybersource.SupportMessage(result.Outcome, h.supportEmail),
		strings.ToUpper(result.Outcome.Kind()))
}
