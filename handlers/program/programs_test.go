package program

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/services/cybersource"
	"gorm.io/datatypes"
)

type stubCatalog map[uint]*model.Program

func (s stubCatalog) Get(_ context.Context, id uint) (*model.Program, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, services.ErrProgramNotFound
}

type stubEnroller struct {
	enrolled map[uint]bool
}

func (s *stubEnroller) IsEnrolled(_ context.Context, _, programID uint) (bool, error) {
	return s.enrolled[programID], nil
}

func (s *stubEnroller) Enroll(_ context.Context, _, programID uint) (bool, error) {
	s.enrolled[programID] = true
	return true, nil
}

type stubOrders struct {
	order     *model.ProgramOrder
	receipt   *model.ProgramOrder
	purchased map[string]string
}

func (s *stubOrders) GetOrCreate(_ context.Context, userID uint, p *model.Program) (*model.ProgramOrder, error) {
	if s.order == nil {
		s.order = &model.ProgramOrder{ID: 40, UserID: userID, ProgramID: p.ID, ItemPrice: p.Price, Status: model.OrderStatusInitiate}
	}
	return s.order, nil
}

func (s *stubOrders) Purchase(_ context.Context, orderID uint, _ model.BillingAddress, payload map[string]string) (bool, error) {
	if s.order == nil || s.order.ID != orderID || s.order.Status != model.OrderStatusInitiate {
		return false, nil
	}
	s.order.Status = model.OrderStatusPurchased
	s.purchased = payload
	return true, nil
}

func (s *stubOrders) History(context.Context, uint) ([]services.OrderHistoryEntry, error) {
	return []services.OrderHistoryEntry{{Number: 40, Title: "Data Science"}}, nil
}

func (s *stubOrders) Receipt(_ context.Context, _, orderID uint) (*model.ProgramOrder, error) {
	if s.receipt == nil || s.receipt.ID != orderID {
		return nil, services.ErrOrderNotFound
	}
	return s.receipt, nil
}

type stubCoupons struct{ dropped, keep bool }

func (s *stubCoupons) DropStaleRedemption(_ context.Context, order *model.ProgramOrder) (bool, error) {
	if order.DiscountedPrice.Valid && !s.keep {
		order.DiscountedPrice = decimal.NullDecimal{}
		s.dropped = true
		return true, nil
	}
	return false, nil
}

type stubSigner struct{}

func (stubSigner) PurchaseParams(order *model.ProgramOrder, _ cybersource.Pages) cybersource.Params {
	return cybersource.Params{{Name: "amount", Value: order.ExpectedCharge().StringFixed(2)}}
}

func (stubSigner) Endpoint() string { return "https://testsecureacceptance.cybersource.com/pay" }

type stubRenderer struct{}

func (stubRenderer) Render(*model.ProgramOrder) ([]byte, error) { return []byte("%PDF-1.3 test"), nil }

type fixture struct {
	enroller *stubEnroller
	orders   *stubOrders
	coupons  *stubCoupons
}

func newApp(userID uint) (*fiber.App, *fixture) {
	nextYear := time.Now().AddDate(1, 0, 0)
	f := &fixture{
		enroller: &stubEnroller{enrolled: map[uint]bool{}},
		orders:   &stubOrders{},
		coupons:  &stubCoupons{},
	}
	h := NewProgramHandler(Deps{
		Catalog: stubCatalog{
			1: {ID: 1, Name: "Data Science", Price: decimal.RequireFromString("299.00")},
			2: {ID: 2, Name: "Sampler", Price: decimal.Zero},
			3: {ID: 3, Name: "Next Term", Price: decimal.RequireFromString("99.00"), Start: &nextYear},
		},
		Enroller: f.enroller,
		Orders:   f.orders,
		Coupons:  f.coupons,
		Signer:   stubSigner{},
		Receipts: stubRenderer{},
		Settings: Settings{Currency: "usd", CurrencySymbol: "$"},
	})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})
	app.Get("/programs/orders", h.ListOrders)
	app.Get("/programs/receipt/:id", h.GetReceipt)
	app.Get("/programs/receipt/:id/pdf", h.DownloadReceipt)
	app.Get("/programs/:id", h.GetProgram)
	app.Post("/programs/:id/buy", h.Buy)
	app.Get("/programs/:id/info", h.GetProgramInfo)
	return app, f
}

func call(t *testing.T, app *fiber.App, method, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestGetProgramEnrollsIntoFreeProgram(t *testing.T) {
	app, f := newApp(5)

	status, out := call(t, app, "GET", "/programs/2")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["data"].(map[string]interface{})["user_is_enrolled"])
	assert.True(t, f.enroller.enrolled[2])
}

func TestGetProgramAnonymous(t *testing.T) {
	app, f := newApp(0)

	status, out := call(t, app, "GET", "/programs/2")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, out["data"].(map[string]interface{})["user_is_enrolled"])
	assert.False(t, f.enroller.enrolled[2])
}

func TestGetProgramNotFound(t *testing.T) {
	app, _ := newApp(5)
	status, _ := call(t, app, "GET", "/programs/99")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestBuyReturnsSignedForm(t *testing.T) {
	app, f := newApp(5)
	f.orders.order = &model.ProgramOrder{
		ID:              40,
		ProgramID:       1,
		ItemPrice:       decimal.RequireFromString("299.00"),
		DiscountedPrice: decimal.NewNullDecimal(decimal.RequireFromString("239.20")),
		Status:          model.OrderStatusInitiate,
	}

	status, out := call(t, app, "POST", "/programs/1/buy")
	require.Equal(t, fiber.StatusOK, status)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "https://testsecureacceptance.cybersource.com/pay", data["action"])
	// The stale discount was dropped before signing.
	assert.True(t, f.coupons.dropped)
	assert.Equal(t, "299.00", data["amount"])
	params := data["params"].([]interface{})
	assert.Equal(t, "299.00", params[0].(map[string]interface{})["value"])
}

func TestBuyHidesProcessorResponse(t *testing.T) {
	app, f := newApp(5)
	f.orders.order = &model.ProgramOrder{
		ID:                40,
		ProgramID:         1,
		ItemPrice:         decimal.RequireFromString("299.00"),
		Status:            model.OrderStatusInitiate,
		ProcessorResponse: datatypes.JSON(`{"decision":"DECLINE"}`),
	}

	status, out := call(t, app, "POST", "/programs/1/buy")
	require.Equal(t, fiber.StatusOK, status)
	order := out["data"].(map[string]interface{})["order"].(map[string]interface{})
	assert.EqualValues(t, 40, order["id"])
	assert.NotContains(t, order, "processor_response")
}

func TestBuyFullyDiscountedOrderSkipsProcessor(t *testing.T) {
	app, f := newApp(5)
	f.orders.order = &model.ProgramOrder{
		ID:              41,
		ProgramID:       1,
		ItemPrice:       decimal.RequireFromString("299.00"),
		DiscountedPrice: decimal.NewNullDecimal(decimal.Zero),
		Status:          model.OrderStatusInitiate,
	}
	// The 100% coupon is still usable.
	f.coupons.keep = true

	status, out := call(t, app, "POST", "/programs/1/buy")
	require.Equal(t, fiber.StatusOK, status)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, true, data["user_is_enrolled"])
	assert.EqualValues(t, 41, data["order_id"])
	assert.NotContains(t, data, "params")
	assert.Equal(t, model.OrderStatusPurchased, f.orders.order.Status)
	assert.Equal(t, "0.00", f.orders.purchased["auth_amount"])
	assert.True(t, f.enroller.enrolled[1])
}

func TestBuyBeforeStartIsRefused(t *testing.T) {
	app, f := newApp(5)

	status, _ := call(t, app, "POST", "/programs/3/buy")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Nil(t, f.orders.order)

	// Learners already enrolled are not turned away.
	f.enroller.enrolled[3] = true
	status, out := call(t, app, "POST", "/programs/3/buy")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["data"].(map[string]interface{})["user_is_enrolled"])
}

func TestBuyFreeProgramEnrollsInstead(t *testing.T) {
	app, f := newApp(5)

	status, out := call(t, app, "POST", "/programs/2/buy")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["data"].(map[string]interface{})["user_is_enrolled"])
	assert.Nil(t, f.orders.order)
}

func TestProgramInfoRequiresEnrollment(t *testing.T) {
	app, f := newApp(5)

	status, _ := call(t, app, "GET", "/programs/1/info")
	assert.Equal(t, fiber.StatusForbidden, status)

	f.enroller.enrolled[1] = true
	status, _ = call(t, app, "GET", "/programs/1/info")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestReceiptOnlyForSettledOwnOrders(t *testing.T) {
	app, f := newApp(5)
	purchased := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	f.orders.receipt = &model.ProgramOrder{
		ID:           40,
		Status:       model.OrderStatusPurchased,
		ItemPrice:    decimal.RequireFromString("299.00"),
		PurchaseTime: &purchased,
	}

	status, out := call(t, app, "GET", "/programs/receipt/40")
	require.Equal(t, fiber.StatusOK, status)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "March 14, 2025", data["order_purchase_date"])
	assert.Equal(t, "/api/v1/programs/receipt/40/pdf", data["download_url"])

	status, _ = call(t, app, "GET", "/programs/receipt/41")
	assert.Equal(t, fiber.StatusNotFound, status)

	resp, err := app.Test(httptest.NewRequest("GET", "/programs/receipt/40/pdf", nil))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}

func TestListOrdersRequiresUser(t *testing.T) {
	app, _ := newApp(0)
	status, _ := call(t, app, "GET", "/programs/orders")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
