package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services/cybersource"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
)

type stubPayments struct {
	result cybersource.Result
	params map[string]string
}

func (s *stubPayments) HandleCallback(_ context.Context, params map[string]string, _ string) cybersource.Result {
	s.params = params
	return s.result
}

func postForm(t *testing.T, h *PaymentHandler, form url.Values) (int, response.Response) {
	t.Helper()
	app := fiber.New()
	app.Post("/callback", h.PostpayCallback)

	req := httptest.NewRequest("POST", "/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out response.Response
	require.NoError(t, json.Unmarshal(body, &out))
	return resp.StatusCode, out
}

func TestPostpayCallbackAccepted(t *testing.T) {
	payments := &stubPayments{result: cybersource.Result{
		Outcome: cybersource.Accepted{Amount: decimal.RequireFromString("80.00"), Currency: "usd"},
		Order:   &model.ProgramOrder{ID: 12, ProgramID: 3},
	}}
	h := NewPaymentHandler(payments, "billing@example.com", false)

	status, out := postForm(t, h, url.Values{
		"decision":             {"ACCEPT"},
		"req_reference_number": {"12"},
		"auth_amount":          {"80.00"},
	})

	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, out.Success)
	assert.Equal(t, "ACCEPT", payments.params["decision"])
	assert.Equal(t, "80.00", payments.params["auth_amount"])
	data := out.Data.(map[string]interface{})
	assert.Equal(t, "/api/v1/programs/receipt/12", data["receipt_url"])
}

func TestPostpayCallbackRejections(t *testing.T) {
	cases := []struct {
		outcome cybersource.Outcome
		status  int
		code    string
	}{
		{cybersource.Cancelled{}, fiber.StatusPaymentRequired, "CANCELLED"},
		{cybersource.Declined{Decision: "DECLINE", Reason: "481"}, fiber.StatusPaymentRequired, "DECLINED"},
		{cybersource.SignatureError{}, fiber.StatusBadRequest, "SIGNATURE_ERROR"},
		{cybersource.DataError{Detail: "missing auth_amount"}, fiber.StatusBadRequest, "DATA_ERROR"},
		{cybersource.AmountMismatch{
			Expected: decimal.RequireFromString("80.00"),
			Actual:   decimal.RequireFromString("100.00"),
		}, fiber.StatusBadRequest, "AMOUNT_MISMATCH"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			payments := &stubPayments{result: cybersource.Result{Outcome: tc.outcome}}
			h := NewPaymentHandler(payments, "billing@example.com", true)

			status, out := postForm(t, h, url.Values{"decision": {"X"}})

			assert.Equal(t, tc.status, status)
			assert.False(t, out.Success)
			require.NotNil(t, out.Error)
			assert.Equal(t, tc.code, out.Error.Code)
			assert.Equal(t, cybersource.SupportMessage(tc.outcome, "billing@example.com"), out.Error.Message)
		})
	}
}
