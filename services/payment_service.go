package services

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services/cybersource"
)

// OrderLedger is the part of OrderService the payment flow needs.
type OrderLedger interface {
	FindOrder(ctx context.Context, id uint) (*model.ProgramOrder, error)
	Purchase(ctx context.Context, orderID uint, billing model.BillingAddress, payload map[string]string) (bool, error)
	RecordProcessorResponse(ctx context.Context, orderID uint, payload map[string]string) error
}

// ProgramEnroller grants program access after payment.
type ProgramEnroller interface {
	Enroll(ctx context.Context, userID, programID uint) (bool, error)
}

// CallbackRecorder keeps an audit row per callback.
type CallbackRecorder interface {
	RecordCallback(ctx context.Context, entry CallbackEntry) error
}

// CallbackVerifier checks a callback against the ledger.
type CallbackVerifier interface {
	Process(ctx context.Context, params map[string]string) cybersource.Result
}

// PaymentService finalizes orders from processor callbacks.
type PaymentService struct {
	verifier  CallbackVerifier
	orders    OrderLedger
	enroller  ProgramEnroller
	callbacks CallbackRecorder
	reporter  Reporter
}

// NewPaymentService wires the callback flow. callbacks and reporter may be nil.
func NewPaymentService(verifier CallbackVerifier, orders OrderLedger, enroller ProgramEnroller, callbacks CallbackRecorder, reporter Reporter) *PaymentService {
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &PaymentService{
		verifier:  verifier,
		orders:    orders,
		enroller:  enroller,
		callbacks: callbacks,
		reporter:  reporter,
	}
}

// HandleCallback verifies a postpay callback and applies it. Accepted
// payments purchase the order and enroll the buyer. Any other outcome leaves
// the order pending; the raw payload is kept on the order when the callback
// could be tied to one.
func (s *PaymentService) HandleCallback(ctx context.Context, params map[string]string, remoteIP string) cybersource.Result {
	result := s.verifier.Process(ctx, params)

	switch o := result.Outcome.(type) {
	case cybersource.Accepted:
		result = s.finalize(ctx, result, params)
	case cybersource.AmountMismatch:
		s.reporter.Critical("payment amount mismatch requires manual reconciliation", map[string]interface{}{
			"order_id":          result.Order.ID,
			"expected":          o.Expected.StringFixed(2),
			"actual":            o.Actual.StringFixed(2),
			"expected_currency": o.ExpectedCurrency,
			"actual_currency":   o.ActualCurrency,
		})
		s.recordResponse(ctx, result.Order, params)
	case cybersource.UnexpectedError:
		s.reporter.Error(o.Err, map[string]interface{}{
			"reference_number": params["req_reference_number"],
		})
		s.recordResponse(ctx, result.Order, params)
	default:
		s.recordResponse(ctx, result.Order, params)
	}

	if result.Order == nil {
		log.Infof("Postpay callback without a known order: %s", cybersource.Detail(result.Outcome))
	}
	s.audit(ctx, result, params, remoteIP)
	return result
}

func (s *PaymentService) finalize(ctx context.Context, result cybersource.Result, params map[string]string) cybersource.Result {
	order := result.Order
	purchased, err := s.orders.Purchase(ctx, order.ID, BillingFromParams(params), params)
	if err != nil {
		s.reporter.Error(err, map[string]interface{}{"order_id": order.ID})
		return cybersource.Result{
			Outcome: cybersource.UnexpectedError{Err: fmt.Errorf("finalize order %d: %w", order.ID, err)},
			Order:   order,
		}
	}
	if !purchased {
		// Redelivered callback; the first delivery already finalized it.
		log.Warnf("Duplicate accepted callback for order %d", order.ID)
		return result
	}

	order.Status = model.OrderStatusPurchased
	if _, err := s.enroller.Enroll(ctx, order.UserID, order.ProgramID); err != nil {
		s.reporter.Error(err, map[string]interface{}{
			"order_id":   order.ID,
			"user_id":    order.UserID,
			"program_id": order.ProgramID,
		})
	}
	return result
}

func (s *PaymentService) recordResponse(ctx context.Context, order *model.ProgramOrder, params map[string]string) {
	if order == nil {
		return
	}
	if err := s.orders.RecordProcessorResponse(ctx, order.ID, params); err != nil {
		log.Errorf("Failed to record processor response for order %d: %v", order.ID, err)
	}
}

func (s *PaymentService) audit(ctx context.Context, result cybersource.Result, params map[string]string, remoteIP string) {
	if s.callbacks == nil {
		return
	}
	entry := CallbackEntry{
		Outcome:  result.Outcome.Kind(),
		Detail:   cybersource.Detail(result.Outcome),
		RemoteIP: remoteIP,
		Payload:  params,
	}
	if result.Order != nil {
		id := result.Order.ID
		entry.OrderID = &id
	}
	if err := s.callbacks.RecordCallback(ctx, entry); err != nil {
		log.Errorf("Failed to record postpay callback: %v", err)
	}
}

// BillingFromParams extracts the billing snapshot from a callback. Bill-to
// fields win; ship-to fields fill the gaps.
func BillingFromParams(params map[string]string) model.BillingAddress {
	pick := func(suffix string) string {
		if v := params["req_bill_to_"+suffix]; v != "" {
			return v
		}
		return params["req_ship_to_"+suffix]
	}
	return model.BillingAddress{
		First:      pick("forename"),
		Last:       pick("surname"),
		Street1:    pick("address_line1"),
		Street2:    pick("address_line2"),
		City:       pick("address_city"),
		State:      pick("address_state"),
		PostalCode: pick("address_postal_code"),
		Country:    pick("address_country"),
	}
}
