package cybersource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FieldType is the wire type of a signed field.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInt
	TypeDecimal
)

func (t FieldType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeDecimal:
		return "decimal"
	}
	return "string"
}

// Field describes one form field exchanged with the processor. Required
// fields are always sent, optional ones only when they carry a value.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
}

// Parse converts a raw form value into the field's Go type: string, int or
// decimal.Decimal.
func (f Field) Parse(raw string) (interface{}, error) {
	switch f.Type {
	case TypeInt:
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("field %s: %q is not an integer", f.Name, raw)
		}
		return v, nil
	case TypeDecimal:
		v, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("field %s: %q is not a decimal", f.Name, raw)
		}
		return v, nil
	}
	return raw, nil
}

// PurchaseFields are the hosted-checkout form fields in signing order.
// signed_field_names lists exactly these names, itself included.
var PurchaseFields = []Field{
	{Name: "amount", Type: TypeDecimal, Required: true},
	{Name: "currency", Type: TypeString, Required: true},
	{Name: "orderNumber", Type: TypeString, Required: true},
	{Name: "access_key", Type: TypeString, Required: true},
	{Name: "profile_id", Type: TypeString, Required: true},
	{Name: "reference_number", Type: TypeInt, Required: true},
	{Name: "transaction_type", Type: TypeString, Required: true},
	{Name: "locale", Type: TypeString, Required: true},
	{Name: "signed_date_time", Type: TypeString, Required: true},
	{Name: "signed_field_names", Type: TypeString, Required: true},
	{Name: "unsigned_field_names", Type: TypeString, Required: true},
	{Name: "transaction_uuid", Type: TypeString, Required: true},
	{Name: "payment_method", Type: TypeString, Required: true},
	{Name: "override_custom_receipt_page", Type: TypeString},
	{Name: "override_custom_cancel_page", Type: TypeString},
}

// CallbackFields must be present and well typed before a callback is
// trusted.
var CallbackFields = []Field{
	{Name: "req_reference_number", Type: TypeInt, Required: true},
	{Name: "req_currency", Type: TypeString, Required: true},
	{Name: "decision", Type: TypeString, Required: true},
	{Name: "auth_amount", Type: TypeDecimal, Required: true},
}

// CallbackData is the typed view of a verified callback.
type CallbackData struct {
	ReferenceNumber int
	Currency        string
	Decision        string
	AuthAmount      decimal.Decimal
}

// Decisions reported by the processor.
const (
	DecisionAccept  = "ACCEPT"
	DecisionDecline = "DECLINE"
	DecisionCancel  = "CANCEL"
	DecisionReview  = "REVIEW"
	DecisionError   = "ERROR"
)

// parseCallback type-checks the required callback fields. The returned
// outcome is a DataError describing the first offending field.
func parseCallback(params map[string]string) (*CallbackData, Outcome) {
	data := &CallbackData{}
	for _, field := range CallbackFields {
		raw, ok := params[field.Name]
		if !ok {
			if field.Required {
				return nil, DataError{Detail: fmt.Sprintf(
					"The payment processor did not return a required parameter: %s", field.Name)}
			}
			continue
		}
		value, err := field.Parse(raw)
		if err != nil {
			return nil, DataError{Detail: fmt.Sprintf(
				"The payment processor returned a badly-typed value %s for parameter %s.", raw, field.Name)}
		}
		switch field.Name {
		case "req_reference_number":
			data.ReferenceNumber = value.(int)
		case "req_currency":
			data.Currency = value.(string)
		case "decision":
			data.Decision = value.(string)
		case "auth_amount":
			data.AuthAmount = value.(decimal.Decimal)
		}
	}
	return data, nil
}
