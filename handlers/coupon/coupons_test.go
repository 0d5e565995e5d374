package coupon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiproedx/synergeticsopenedx/services"
)

type stubRedeemer struct {
	useErr   error
	resetErr error
	gotCode  string
	gotOrder uint
	gotUser  uint
}

func (s *stubRedeemer) UseCode(_ context.Context, userID, orderID uint, code string) error {
	s.gotUser, s.gotOrder, s.gotCode = userID, orderID, code
	return s.useErr
}

func (s *stubRedeemer) ResetCode(_ context.Context, userID, orderID uint) error {
	s.gotUser, s.gotOrder = userID, orderID
	return s.resetErr
}

func newTestApp(h *CouponHandler, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})
	app.Post("/use_code", h.UseCode)
	app.Post("/reset_code_redemption", h.ResetCodeRedemption)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestUseCodeSuccess(t *testing.T) {
	redeemer := &stubRedeemer{}
	app := newTestApp(NewCouponHandler(redeemer, nil), 7)

	status, out := post(t, app, "/use_code", `{"code":"LAUNCH20","order_id":31}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "success", out["response"])
	assert.Equal(t, true, out["coupon_code_applied"])
	assert.Equal(t, "LAUNCH20", redeemer.gotCode)
	assert.Equal(t, uint(31), redeemer.gotOrder)
	assert.Equal(t, uint(7), redeemer.gotUser)
}

func TestUseCodeErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown code", fmt.Errorf("%w 'NOPE'", services.ErrCouponNotFound), fiber.StatusNotFound},
		{"second coupon", services.ErrMultipleCoupons, fiber.StatusBadRequest},
		{"missing order", services.ErrOrderNotFound, fiber.StatusNotFound},
		{"paid order", services.ErrOrderNotPending, fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(NewCouponHandler(&stubRedeemer{useErr: tc.err}, nil), 7)
			status, out := post(t, app, "/use_code", `{"code":"NOPE","order_id":31}`)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, false, out["success"])
		})
	}
}

func TestUseCodeUnknownCodeMessage(t *testing.T) {
	app := newTestApp(NewCouponHandler(&stubRedeemer{useErr: services.ErrCouponNotFound}, nil), 7)
	_, out := post(t, app, "/use_code", `{"code":"NOPE","order_id":31}`)
	errBody := out["error"].(map[string]interface{})
	assert.Equal(t, "Discount does not exist against code 'NOPE'.", errBody["message"])
}

func TestUseCodeRejectsBadInput(t *testing.T) {
	app := newTestApp(NewCouponHandler(&stubRedeemer{}, nil), 7)

	status, _ := post(t, app, "/use_code", `{"code":"bad code!","order_id":31}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = post(t, app, "/use_code", `{"code":"LAUNCH20"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = post(t, app, "/use_code", `not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestUseCodeRequiresUser(t *testing.T) {
	app := newTestApp(NewCouponHandler(&stubRedeemer{}, nil), 0)
	status, _ := post(t, app, "/use_code", `{"code":"LAUNCH20","order_id":31}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestResetCodeRedemption(t *testing.T) {
	redeemer := &stubRedeemer{}
	app := newTestApp(NewCouponHandler(redeemer, nil), 7)

	status, out := post(t, app, "/reset_code_redemption", `{"order_id":31}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "success", out["response"])
	assert.Equal(t, uint(31), redeemer.gotOrder)

	redeemer.resetErr = services.ErrOrderNotPending
	status, _ = post(t, app, "/reset_code_redemption", `{"order_id":31}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
