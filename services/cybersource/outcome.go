package cybersource

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wiproedx/synergeticsopenedx/model"
)

// Outcome is the result of processing a postpay callback. It is one of
// Accepted, Declined, Cancelled, DataError, SignatureError, AmountMismatch or
// UnexpectedError.
type Outcome interface {
	// Kind is a stable snake_case label used in logs and audit rows.
	Kind() string
	outcome()
}

// Accepted means the processor charged the expected amount.
type Accepted struct {
	Amount   decimal.Decimal
	Currency string
}

// Declined covers the processor's DECLINE decision and any non-accepting
// decision found after verification (REVIEW, ERROR).
type Declined struct {
	Decision string
	Reason   string
}

// Cancelled means the user abandoned the hosted checkout.
type Cancelled struct{}

// DataError means the callback is missing fields, carries badly-typed values
// or references an order we do not know.
type DataError struct {
	Detail string
}

// SignatureError means the callback signature does not match.
type SignatureError struct{}

// AmountMismatch means the processor authorized a different amount or
// currency than the order expects.
type AmountMismatch struct {
	Expected         decimal.Decimal
	Actual           decimal.Decimal
	ExpectedCurrency string
	ActualCurrency   string
}

// UnexpectedError wraps failures that are not the processor's doing.
type UnexpectedError struct {
	Err error
}

func (Accepted) Kind() string        { return "accepted" }
func (Declined) Kind() string        { return "declined" }
func (Cancelled) Kind() string       { return "cancelled" }
func (DataError) Kind() string       { return "data_error" }
func (SignatureError) Kind() string  { return "signature_error" }
func (AmountMismatch) Kind() string  { return "amount_mismatch" }
func (UnexpectedError) Kind() string { return "unexpected_error" }

func (Accepted) outcome()        {}
func (Declined) outcome()        {}
func (Cancelled) outcome()       {}
func (DataError) outcome()       {}
func (SignatureError) outcome()  {}
func (AmountMismatch) outcome()  {}
func (UnexpectedError) outcome() {}

// Result pairs an outcome with the order it resolved to, if any.
type Result struct {
	Outcome Outcome
	Order   *model.ProgramOrder
}

// Detail renders the outcome for logs and audit rows.
func Detail(o Outcome) string {
	switch v := o.(type) {
	case Declined:
		return fmt.Sprintf("decision=%s reason_code=%s", v.Decision, v.Reason)
	case DataError:
		return v.Detail
	case AmountMismatch:
		return fmt.Sprintf("expected %s %s, processor charged %s %s",
			v.Expected.StringFixed(2), v.ExpectedCurrency, v.Actual.StringFixed(2), v.ActualCurrency)
	case UnexpectedError:
		if v.Err != nil {
			return v.Err.Error()
		}
	}
	return ""
}

// SupportMessage is the text shown to the user for an outcome. supportEmail
// is the billing contact address. Accepted yields an empty message.
func SupportMessage(o Outcome, supportEmail string) string {
	switch v := o.(type) {
	case Accepted:
		return ""
	case Cancelled:
		return "Sorry! Our payment processor sent us back a message saying that you have cancelled this transaction. " +
			"The items in your shopping cart will exist for future purchase. " +
			"If you feel that this is in error, please contact us with payment-specific questions at " + supportEmail + "."
	case Declined:
		if v.Decision == DecisionDecline {
			return "We're sorry, but this payment was declined. The items in your shopping cart have been saved. " +
				"If you have any questions about this transaction, please contact us at " + supportEmail + "."
		}
		return fmt.Sprintf("Sorry! Our payment processor did not accept your payment. "+
			"The decision they returned was %s, and the reason was %s. "+
			"You were not charged. Please try a different form of payment. "+
			"Contact us with payment-related questions at %s.", v.Decision, v.Reason, supportEmail)
	case DataError:
		return "Sorry! Our payment processor sent us back a payment confirmation that had inconsistent data! " +
			"We apologize that we cannot verify whether the charge went through and take further action on your order. " +
			"The specific error message is: " + v.Detail + ". " +
			"Your credit card may possibly have been charged. " +
			"Contact us with payment-specific questions at " + supportEmail + "."
	case SignatureError:
		return "Sorry! Our payment processor sent us back a corrupted message regarding your charge, so we are unable to validate that the message actually came from the payment processor. " +
			"We apologize that we cannot verify whether the charge went through and take further action on your order. " +
			"Your credit card may possibly have been charged. " +
			"Contact us with payment-specific questions at " + supportEmail + "."
	case AmountMismatch:
		return fmt.Sprintf("Sorry! Due to an error your purchase was charged for a different amount than the order total! "+
			"The specific error message is: %s. "+
			"Your credit card has probably been charged. "+
			"Contact us with payment-specific questions at %s.", Detail(v), supportEmail)
	}
	return "Sorry! Your payment could not be processed because an unexpected exception occurred. " +
		"Please contact us at " + supportEmail + " for assistance."
}
