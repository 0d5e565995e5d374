package program

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/services/cybersource"
	"github.com/wiproedx/synergeticsopenedx/utils/middleware"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
)

const receiptLinkTTL = 15 * time.Minute

// Catalog loads programs.
type Catalog interface {
	Get(ctx context.Context, id uint) (*model.Program, error)
}

// Enroller reads and grants program membership.
type Enroller interface {
	IsEnrolled(ctx context.Context, userID, programID uint) (bool, error)
	Enroll(ctx context.Context, userID, programID uint) (bool, error)
}

// OrderBook is the user-facing side of the order ledger.
type OrderBook interface {
	GetOrCreate(ctx context.Context, userID uint, program *model.Program) (*model.ProgramOrder, error)
	Purchase(ctx context.Context, orderID uint, billing model.BillingAddress, payload map[string]string) (bool, error)
	History(ctx context.Context, userID uint) ([]services.OrderHistoryEntry, error)
	Receipt(ctx context.Context, userID, orderID uint) (*model.ProgramOrder, error)
}

// freeCheckout is the processor payload recorded for orders a coupon fully paid.
var freeCheckout = map[string]string{"decision": "ACCEPT", "auth_amount": "0.00"}

// CouponChecker drops discounts whose coupon is no longer usable.
type CouponChecker interface {
	DropStaleRedemption(ctx context.Context, order *model.ProgramOrder) (bool, error)
}

// PurchaseSigner builds the signed hosted-checkout form.
type PurchaseSigner interface {
	PurchaseParams(order *model.ProgramOrder, pages cybersource.Pages) cybersource.Params
	Endpoint() string
}

// ReceiptLinker issues download links for archived receipts.
type ReceiptLinker interface {
	PresignGet(key string, ttl time.Duration) (string, error)
}

// Settings are display values for the buy and receipt pages.
type Settings struct {
	Currency       string
	CurrencySymbol string
	ReceiptPageURL string
	SiteName       string
}

// Deps are the collaborators of ProgramHandler. Links may be nil.
type Deps struct {
	Catalog  Catalog
	Enroller Enroller
	Orders   OrderBook
	Coupons  CouponChecker
	Signer   PurchaseSigner
	Receipts services.ReceiptRenderer
	Links    ReceiptLinker
	Settings Settings
}

// ProgramHandler handles program about, checkout and receipt requests
type ProgramHandler struct {
	Deps
}

// NewProgramHandler creates a new program handler
func NewProgramHandler(deps Deps) *ProgramHandler {
	return &ProgramHandler{Deps: deps}
}

func parseID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *ProgramHandler) loadProgram(c *fiber.Ctx) (*model.Program, error) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, response.BadRequest(c, "Invalid program ID")
	}
	program, err := h.Catalog.Get(c.UserContext(), id)
	if errors.Is(err, services.ErrProgramNotFound) {
		return nil, response.NotFound(c, "Program not found")
	}
	if err != nil {
		log.Errorf("Failed to load program %d: %v", id, err)
		return nil, response.InternalServerError(c, "Failed to fetch program")
	}
	return program, nil
}

// ensureEnrolled reports whether the user is enrolled, enrolling them first
// when the program is free.
func (h *ProgramHandler) ensureEnrolled(ctx context.Context, userID uint, program *model.Program) (bool, error) {
	enrolled, err := h.Enroller.IsEnrolled(ctx, userID, program.ID)
	if err != nil || enrolled {
		return enrolled, err
	}
	if !program.IsFree() {
		return false, nil
	}
	return h.Enroller.Enroll(ctx, userID, program.ID)
}

// GetProgram handles GET /api/v1/programs/:id
func (h *ProgramHandler) GetProgram(c *fiber.Ctx) error {
	program, err := h.loadProgram(c)
	if program == nil {
		return err
	}

	enrolled := false
	if userID, ok := middleware.GetUserID(c); ok {
		enrolled, err = h.ensureEnrolled(c.UserContext(), userID, program)
		if err != nil {
			log.Errorf("Failed to check enrollment of user %d in program %d: %v", userID, program.ID, err)
			return response.InternalServerError(c, "Failed to check enrollment")
		}
	}

	return response.Success(c, fiber.Map{
		"program":          program,
		"user_is_enrolled": enrolled,
		"currency":         h.Settings.Currency,
		"currency_symbol":  h.Settings.CurrencySymbol,
	})
}

// Buy handles POST /api/v1/programs/:id/buy
func (h *ProgramHandler) Buy(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	program, err := h.loadProgram(c)
	if program == nil {
		return err
	}
	ctx := c.UserContext()

	enrolled, err := h.ensureEnrolled(ctx, userID, program)
	if err != nil {
		log.Errorf("Failed to enroll user %d in program %d: %v", userID, program.ID, err)
		return response.InternalServerError(c, "Failed to check enrollment")
	}
	if enrolled {
		return response.SuccessWithMessage(c, "Already enrolled", fiber.Map{
			"user_is_enrolled": true,
			"program_id":       program.ID,
		})
	}
	if !program.HasStarted(time.Now()) {
		return response.Forbidden(c, services.ErrProgramNotStarted.Error())
	}

	order, err := h.Orders.GetOrCreate(ctx, userID, program)
	if err != nil {
		log.Errorf("Failed to open order for user %d program %d: %v", userID, program.ID, err)
		return response.InternalServerError(c, "Failed to create order")
	}
	if dropped, err := h.Coupons.DropStaleRedemption(ctx, order); err != nil {
		log.Errorf("Failed to check coupon on order %d: %v", order.ID, err)
		return response.InternalServerError(c, "Failed to check coupon")
	} else if dropped {
		log.Infof("Expired coupon removed from order %d", order.ID)
	}
	if !order.ExpectedCharge().IsPositive() {
		return h.settleWithoutPayment(c, userID, order)
	}

	pages := cybersource.Pages{
		ReceiptURL: h.Settings.ReceiptPageURL,
		CancelURL:  fmt.Sprintf("%s://%s/api/v1/programs/%d", c.Protocol(), c.Hostname(), program.ID),
	}
	return response.Success(c, fiber.Map{
		"order":           order,
		"amount":          order.ExpectedCharge().StringFixed(2),
		"currency":        h.Settings.Currency,
		"currency_symbol": h.Settings.CurrencySymbol,
		"action":          h.Signer.Endpoint(),
		"params":          h.Signer.PurchaseParams(order, pages),
	})
}

// settleWithoutPayment finalizes an order whose coupon covers the whole price
// and enrolls the buyer, skipping the processor.
func (h *ProgramHandler) settleWithoutPayment(c *fiber.Ctx, userID uint, order *model.ProgramOrder) error {
	ctx := c.UserContext()
	if _, err := h.Orders.Purchase(ctx, order.ID, model.BillingAddress{}, freeCheckout); err != nil {
		log.Errorf("Failed to settle free order %d: %v", order.ID, err)
		return response.InternalServerError(c, "Failed to complete order")
	}
	if _, err := h.Enroller.Enroll(ctx, userID, order.ProgramID); err != nil {
		log.Errorf("Order %d settled but enrolling user %d failed: %v", order.ID, userID, err)
		return response.InternalServerError(c, "Failed to enroll in program")
	}
	return response.SuccessWithMessage(c, "Enrolled", fiber.Map{
		"user_is_enrolled": true,
		"program_id":       order.ProgramID,
		"order_id":         order.ID,
	})
}

// GetProgramInfo handles GET /api/v1/programs/:id/info
func (h *ProgramHandler) GetProgramInfo(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	program, err := h.loadProgram(c)
	if program == nil {
		return err
	}

	enrolled, err := h.Enroller.IsEnrolled(c.UserContext(), userID, program.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check enrollment")
	}
	if !enrolled {
		return response.Forbidden(c, "You are not enrolled in this program")
	}
	return response.Success(c, program)
}

// ListOrders handles GET /api/v1/programs/orders
func (h *ProgramHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	history, err := h.Orders.History(c.UserContext(), userID)
	if err != nil {
		log.Errorf("Failed to load order history for user %d: %v", userID, err)
		return response.InternalServerError(c, "Failed to fetch orders")
	}
	return response.Success(c, history)
}

func (h *ProgramHandler) loadReceipt(c *fiber.Ctx) (*model.ProgramOrder, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil, response.Unauthorized(c, "User not authenticated")
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return nil, response.BadRequest(c, "Invalid order ID")
	}
	order, err := h.Orders.Receipt(c.UserContext(), userID, orderID)
	if errors.Is(err, services.ErrOrderNotFound) {
		return nil, response.NotFound(c, "Order not found!")
	}
	if err != nil {
		log.Errorf("Failed to load receipt %d: %v", orderID, err)
		return nil, response.InternalServerError(c, "Failed to fetch receipt")
	}
	return order, nil
}

// GetReceipt handles GET /api/v1/programs/receipt/:id
func (h *ProgramHandler) GetReceipt(c *fiber.Ctx) error {
	order, err := h.loadReceipt(c)
	if order == nil {
		return err
	}

	downloadURL := fmt.Sprintf("/api/v1/programs/receipt/%d/pdf", order.ID)
	if order.ReceiptKey != "" && h.Links != nil {
		if url, err := h.Links.PresignGet(order.ReceiptKey, receiptLinkTTL); err == nil {
			downloadURL = url
		} else {
			log.Warnf("Failed to presign receipt for order %d: %v", order.ID, err)
		}
	}

	var purchaseDate string
	if order.PurchaseTime != nil {
		purchaseDate = order.PurchaseTime.Format("January 02, 2006")
	}
	return response.Success(c, fiber.Map{
		"order":               order,
		"any_refunds":         order.Status == model.OrderStatusRefunded,
		"order_purchase_date": purchaseDate,
		"recipient_email":     order.User.Email,
		"currency":            h.Settings.Currency,
		"currency_symbol":     h.Settings.CurrencySymbol,
		"site_name":           h.Settings.SiteName,
		"download_url":        downloadURL,
	})
}

// DownloadReceipt handles GET /api/v1/programs/receipt/:id/pdf
func (h *ProgramHandler) DownloadReceipt(c *fiber.Ctx) error {
	order, err := h.loadReceipt(c)
	if order == nil {
		return err
	}
	pdf, err := h.Receipts.Render(order)
	if err != nil {
		log.Errorf("Failed to render receipt %d: %v", order.ID, err)
		return response.ServiceUnavailable(c, "pdf download unavailable right now, please contact support.")
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="Receipt.pdf"`)
	return c.Send(pdf)
}
