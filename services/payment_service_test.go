package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services/cybersource"
)

type fixedVerifier struct {
	result cybersource.Result
}

func (v fixedVerifier) Process(context.Context, map[string]string) cybersource.Result {
	return v.result
}

type fakeLedger struct {
	purchaseOK  bool
	purchaseErr error
	purchased   []uint
	billing     model.BillingAddress
	responses   []uint
}

func (l *fakeLedger) FindOrder(context.Context, uint) (*model.ProgramOrder, error) {
	return nil, nil
}

func (l *fakeLedger) Purchase(_ context.Context, orderID uint, billing model.BillingAddress, _ map[string]string) (bool, error) {
	if l.purchaseErr != nil {
		return false, l.purchaseErr
	}
	l.purchased = append(l.purchased, orderID)
	l.billing = billing
	return l.purchaseOK, nil
}

func (l *fakeLedger) RecordProcessorResponse(_ context.Context, orderID uint, _ map[string]string) error {
	l.responses = append(l.responses, orderID)
	return nil
}

type fakeEnroller struct {
	calls [][2]uint
}

func (e *fakeEnroller) Enroll(_ context.Context, userID, programID uint) (bool, error) {
	e.calls = append(e.calls, [2]uint{userID, programID})
	return true, nil
}

type fakeRecorder struct {
	entries []CallbackEntry
}

func (r *fakeRecorder) RecordCallback(_ context.Context, entry CallbackEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

type fakeReporter struct {
	critical []string
	errs     []error
}

func (r *fakeReporter) Critical(msg string, _ map[string]interface{}) {
	r.critical = append(r.critical, msg)
}
func (r *fakeReporter) Error(err error, _ map[string]interface{}) { r.errs = append(r.errs, err) }
func (r *fakeReporter) Close()                                    {}

type paymentFixture struct {
	ledger   *fakeLedger
	enroller *fakeEnroller
	recorder *fakeRecorder
	reporter *fakeReporter
}

func newPaymentFixture(result cybersource.Result) (*PaymentService, *paymentFixture) {
	f := &paymentFixture{
		ledger:   &fakeLedger{purchaseOK: true},
		enroller: &fakeEnroller{},
		recorder: &fakeRecorder{},
		reporter: &fakeReporter{},
	}
	svc := NewPaymentService(fixedVerifier{result: result}, f.ledger, f.enroller, f.recorder, f.reporter)
	return svc, f
}

func pendingOrder() *model.ProgramOrder {
	return &model.ProgramOrder{
		ID:        5,
		UserID:    11,
		ProgramID: 3,
		ItemPrice: decimal.RequireFromString("100.00"),
		Status:    model.OrderStatusInitiate,
	}
}

func TestHandleCallbackAcceptedPurchasesAndEnrolls(t *testing.T) {
	order := pendingOrder()
	svc, f := newPaymentFixture(cybersource.Result{
		Outcome: cybersource.Accepted{Amount: decimal.RequireFromString("100.00"), Currency: "usd"},
		Order:   order,
	})

	params := map[string]string{
		"req_bill_to_forename":      "Ada",
		"req_ship_to_address_city":  "London",
		"req_bill_to_address_line1": "12 Analytical Row",
	}
	result := svc.HandleCallback(context.Background(), params, "10.0.0.1")

	assert.IsType(t, cybersource.Accepted{}, result.Outcome)
	assert.Equal(t, []uint{5}, f.ledger.purchased)
	assert.Equal(t, "Ada", f.ledger.billing.First)
	assert.Equal(t, "London", f.ledger.billing.City)
	assert.Equal(t, [][2]uint{{11, 3}}, f.enroller.calls)
	assert.Empty(t, f.ledger.responses)

	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, "accepted", f.recorder.entries[0].Outcome)
	require.NotNil(t, f.recorder.entries[0].OrderID)
	assert.Equal(t, uint(5), *f.recorder.entries[0].OrderID)
	assert.Equal(t, "10.0.0.1", f.recorder.entries[0].RemoteIP)
}

func TestHandleCallbackDuplicateAcceptDoesNotReenroll(t *testing.T) {
	svc, f := newPaymentFixture(cybersource.Result{
		Outcome: cybersource.Accepted{Amount: decimal.RequireFromString("100.00"), Currency: "usd"},
		Order:   pendingOrder(),
	})
	f.ledger.purchaseOK = false

	result := svc.HandleCallback(context.Background(), map[string]string{}, "")

	assert.IsType(t, cybersource.Accepted{}, result.Outcome)
	assert.Empty(t, f.enroller.calls)
}

func TestHandleCallbackPurchaseFailureIsUnexpected(t *testing.T) {
	svc, f := newPaymentFixture(cybersource.Result{
		Outcome: cybersource.Accepted{Amount: decimal.RequireFromString("100.00"), Currency: "usd"},
		Order:   pendingOrder(),
	})
	f.ledger.purchaseErr = errors.New("connection reset")

	result := svc.HandleCallback(context.Background(), map[string]string{}, "")

	assert.IsType(t, cybersource.UnexpectedError{}, result.Outcome)
	assert.Empty(t, f.enroller.calls)
	assert.Len(t, f.reporter.errs, 1)
	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, "unexpected_error", f.recorder.entries[0].Outcome)
}

func TestHandleCallbackAmountMismatchIsReported(t *testing.T) {
	svc, f := newPaymentFixture(cybersource.Result{
		Outcome: cybersource.AmountMismatch{
			Expected:         decimal.RequireFromString("80.00"),
			Actual:           decimal.RequireFromString("100.00"),
			ExpectedCurrency: "usd",
			ActualCurrency:   "usd",
		},
		Order: pendingOrder(),
	})

	svc.HandleCallback(context.Background(), map[string]string{}, "")

	assert.Empty(t, f.ledger.purchased)
	assert.Empty(t, f.enroller.calls)
	assert.Len(t, f.reporter.critical, 1)
	assert.Equal(t, []uint{5}, f.ledger.responses)
	assert.Equal(t, "amount_mismatch", f.recorder.entries[0].Outcome)
}

func TestHandleCallbackDeclineKeepsPayload(t *testing.T) {
	svc, f := newPaymentFixture(cybersource.Result{
		Outcome: cybersource.Declined{Decision: "DECLINE", Reason: "481"},
		Order:   pendingOrder(),
	})

	svc.HandleCallback(context.Background(), map[string]string{"decision": "DECLINE"}, "")

	assert.Empty(t, f.ledger.purchased)
	assert.Equal(t, []uint{5}, f.ledger.responses)
	assert.Equal(t, "declined", f.recorder.entries[0].Outcome)
}

func TestHandleCallbackSignatureErrorTouchesNothing(t *testing.T) {
	svc, f := newPaymentFixture(cybersource.Result{Outcome: cybersource.SignatureError{}})

	svc.HandleCallback(context.Background(), map[string]string{"decision": "ACCEPT"}, "")

	assert.Empty(t, f.ledger.purchased)
	assert.Empty(t, f.ledger.responses)
	require.Len(t, f.recorder.entries, 1)
	assert.Nil(t, f.recorder.entries[0].OrderID)
	assert.Equal(t, "signature_error", f.recorder.entries[0].Outcome)
}

func TestBillingFromParamsPrefersBillTo(t *testing.T) {
	billing := BillingFromParams(map[string]string{
		"req_bill_to_forename":            "Ada",
		"req_ship_to_forename":            "Charles",
		"req_ship_to_surname":             "Babbage",
		"req_bill_to_address_postal_code": "N1",
		"req_ship_to_address_country":     "GB",
	})
	assert.Equal(t, model.BillingAddress{
		First:      "Ada",
		Last:       "Babbage",
		PostalCode: "N1",
		Country:    "GB",
	}, billing)
}
