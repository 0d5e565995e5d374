package cybersource

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiproedx/synergeticsopenedx/model"
)

const testSecret = "secret"

type fakeOrders struct {
	orders map[uint]*model.ProgramOrder
	err    error
}

func (f *fakeOrders) FindOrder(_ context.Context, id uint) (*model.ProgramOrder, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders[id], nil
}

func testConfig() Config {
	return Config{
		SecretKey:        testSecret,
		AccessKey:        "access",
		ProfileID:        "profile",
		PurchaseEndpoint: "https://processor.test/pay",
		Currency:         "usd",
	}
}

func newTestProcessor(orders map[uint]*model.ProgramOrder) *Processor {
	p := NewProcessor(testConfig(), &fakeOrders{orders: orders})
	p.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	p.newID = func() string { return "0123456789abcdef0123456789abcdef" }
	return p
}

// signed builds a callback whose signature covers every field in params.
func signed(params map[string]string) map[string]string {
	names := make([]string, 0, len(params)+1)
	for name := range params {
		names = append(names, name)
	}
	names = append(names, "signed_field_names")
	sort.Strings(names)
	params["signed_field_names"] = strings.Join(names, ",")
	params["signature"] = Sign(testSecret, SigningString(names, params))
	return params
}

func acceptCallback(ref, amount, currency string) map[string]string {
	return callback("ACCEPT", ref, amount, currency)
}

func callback(decision, ref, amount, currency string) map[string]string {
	return signed(map[string]string{
		"decision":             decision,
		"reason_code":          "100",
		"req_reference_number": ref,
		"req_currency":         currency,
		"auth_amount":          amount,
		"req_bill_to_forename": "Ada",
	})
}

func pendingOrder(id uint, price string) *model.ProgramOrder {
	return &model.ProgramOrder{
		ID:        id,
		UserID:    7,
		ProgramID: 3,
		ItemPrice: decimal.RequireFromString(price),
		Status:    model.OrderStatusInitiate,
	}
}

func TestSignKnownVector(t *testing.T) {
	values := map[string]string{
		"access_key":         "abc",
		"amount":             "80.00",
		"signed_field_names": "access_key,amount,signed_field_names",
	}
	msg := SigningString([]string{"access_key", "amount", "signed_field_names"}, values)
	assert.Equal(t, "access_key=abc,amount=80.00,signed_field_names=access_key,amount,signed_field_names", msg)
	assert.Equal(t, "soNfnUUgDmxrbYGYzCHRyQ1Z8krjD6Shv2QJsh2V404=", Sign(testSecret, msg))
}

func TestPurchaseParams(t *testing.T) {
	p := newTestProcessor(nil)
	order := pendingOrder(42, "100.00")
	order.DiscountedPrice = decimal.NewNullDecimal(decimal.RequireFromString("80"))

	params := p.PurchaseParams(order, Pages{ReceiptURL: "https://lms.test/receipt"})
	values := params.Map()

	assert.Equal(t, "80.00", values["amount"])
	assert.Equal(t, "usd", values["currency"])
	assert.Equal(t, "OrderId: 42", values["orderNumber"])
	assert.Equal(t, "42", values["reference_number"])
	assert.Equal(t, "sale", values["transaction_type"])
	assert.Equal(t, "en", values["locale"])
	assert.Equal(t, "card", values["payment_method"])
	assert.Equal(t, "2025-03-01T09:30:00Z", values["signed_date_time"])
	assert.Equal(t, "0123456789abcdef0123456789abcdef", values["transaction_uuid"])
	assert.Equal(t, "https://lms.test/receipt", values["override_custom_receipt_page"])
	_, hasCancel := values["override_custom_cancel_page"]
	assert.False(t, hasCancel, "empty optional fields are not sent")

	// signed_field_names lists every field but the signature, in order.
	names := strings.Split(values["signed_field_names"], ",")
	require.Len(t, names, len(params)-1)
	for i, name := range names {
		assert.Equal(t, params[i].Name, name)
	}
	assert.Equal(t, "signature", params[len(params)-1].Name)
	assert.True(t, p.SignatureValid(values))
}

func TestPurchaseParamsUsesListPriceWithoutDiscount(t *testing.T) {
	params := newTestProcessor(nil).PurchaseParams(pendingOrder(1, "99.9"), Pages{})
	assert.Equal(t, "99.90", params.Get("amount"))
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	p := newTestProcessor(nil)
	values := p.PurchaseParams(pendingOrder(1, "10.00"), Pages{}).Map()
	require.True(t, p.SignatureValid(values))

	values["amount"] = "0.01"
	assert.False(t, p.SignatureValid(values))

	delete(values, "signature")
	assert.False(t, p.SignatureValid(values))
}

func TestProcessAccepted(t *testing.T) {
	order := pendingOrder(5, "100.00")
	p := newTestProcessor(map[uint]*model.ProgramOrder{5: order})

	result := p.Process(context.Background(), acceptCallback("5", "100.00", "USD"))

	require.IsType(t, Accepted{}, result.Outcome)
	assert.Same(t, order, result.Order)
	assert.True(t, result.Outcome.(Accepted).Amount.Equal(decimal.NewFromInt(100)))
}

func TestProcessCancelAndDeclineComeFirst(t *testing.T) {
	p := newTestProcessor(nil)

	// Unsigned, untyped callbacks still report the user's decision.
	result := p.Process(context.Background(), map[string]string{"decision": "CANCEL"})
	assert.IsType(t, Cancelled{}, result.Outcome)
	assert.Nil(t, result.Order)

	result = p.Process(context.Background(), map[string]string{"decision": "DECLINE", "reason_code": "481"})
	require.IsType(t, Declined{}, result.Outcome)
	assert.Equal(t, "481", result.Outcome.(Declined).Reason)
}

func TestProcessDeclineAttachesOrderWhenSigned(t *testing.T) {
	order := pendingOrder(9, "50.00")
	p := newTestProcessor(map[uint]*model.ProgramOrder{9: order})

	params := signed(map[string]string{"decision": "DECLINE", "reason_code": "203", "req_reference_number": "9"})
	result := p.Process(context.Background(), params)

	assert.IsType(t, Declined{}, result.Outcome)
	assert.Same(t, order, result.Order)
}

func TestProcessSignatureError(t *testing.T) {
	p := newTestProcessor(map[uint]*model.ProgramOrder{5: pendingOrder(5, "100.00")})
	params := acceptCallback("5", "100.00", "usd")
	params["auth_amount"] = "1.00"

	result := p.Process(context.Background(), params)
	assert.IsType(t, SignatureError{}, result.Outcome)
	assert.Nil(t, result.Order)
}

func TestProcessDataErrors(t *testing.T) {
	p := newTestProcessor(map[uint]*model.ProgramOrder{5: pendingOrder(5, "100.00")})

	tests := []struct {
		name   string
		params map[string]string
		detail string
	}{
		{
			name:   "missing amount",
			params: signed(map[string]string{"decision": "ACCEPT", "req_reference_number": "5", "req_currency": "usd"}),
			detail: "did not return a required parameter: auth_amount",
		},
		{
			name:   "non-numeric reference",
			params: acceptCallback("five", "100.00", "usd"),
			detail: "badly-typed value five for parameter req_reference_number",
		},
		{
			name:   "non-decimal amount",
			params: acceptCallback("5", "a lot", "usd"),
			detail: "badly-typed value a lot for parameter auth_amount",
		},
		{
			name:   "unknown order",
			params: acceptCallback("77", "100.00", "usd"),
			detail: "an order whose number is not in our system",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Process(context.Background(), tt.params)
			require.IsType(t, DataError{}, result.Outcome)
			assert.Contains(t, result.Outcome.(DataError).Detail, tt.detail)
		})
	}
}

func TestProcessAmountMismatch(t *testing.T) {
	order := pendingOrder(5, "100.00")
	order.DiscountedPrice = decimal.NewNullDecimal(decimal.RequireFromString("80.00"))
	p := newTestProcessor(map[uint]*model.ProgramOrder{5: order})

	result := p.Process(context.Background(), acceptCallback("5", "100.00", "usd"))
	require.IsType(t, AmountMismatch{}, result.Outcome)
	mismatch := result.Outcome.(AmountMismatch)
	assert.Equal(t, "80.00", mismatch.Expected.StringFixed(2))
	assert.Equal(t, "100.00", mismatch.Actual.StringFixed(2))
	assert.Same(t, order, result.Order)

	result = p.Process(context.Background(), acceptCallback("5", "80.00", "eur"))
	assert.IsType(t, AmountMismatch{}, result.Outcome)
}

func TestProcessOtherDecisionsAreDeclined(t *testing.T) {
	p := newTestProcessor(map[uint]*model.ProgramOrder{5: pendingOrder(5, "100.00")})
	params := callback("REVIEW", "5", "100.00", "usd")

	result := p.Process(context.Background(), params)
	require.IsType(t, Declined{}, result.Outcome)
	assert.Equal(t, "REVIEW", result.Outcome.(Declined).Decision)
	assert.NotNil(t, result.Order)
}

func TestProcessLookupFailure(t *testing.T) {
	p := NewProcessor(testConfig(), &fakeOrders{err: errors.New("connection refused")})
	result := p.Process(context.Background(), acceptCallback("5", "100.00", "usd"))
	assert.IsType(t, UnexpectedError{}, result.Outcome)
}

func TestSupportMessagesAreDistinct(t *testing.T) {
	outcomes := []Outcome{
		Cancelled{},
		Declined{Decision: DecisionDecline, Reason: "481"},
		Declined{Decision: DecisionReview, Reason: "480"},
		DataError{Detail: "bad"},
		SignatureError{},
		AmountMismatch{Expected: decimal.NewFromInt(80), Actual: decimal.NewFromInt(100)},
		UnexpectedError{Err: errors.New("boom")},
	}

	seen := map[string]bool{}
	for _, o := range outcomes {
		msg := SupportMessage(o, "billing@example.com")
		assert.Contains(t, msg, "billing@example.com", o.Kind())
		assert.False(t, seen[msg], "duplicate message for %s", o.Kind())
		seen[msg] = true
	}
	assert.Empty(t, SupportMessage(Accepted{}, "billing@example.com"))
	assert.Contains(t, SupportMessage(Declined{Decision: "REVIEW", Reason: "480"}, "x"), "The decision they returned was REVIEW, and the reason was 480")
}
