package cybersource

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wiproedx/synergeticsopenedx/model"
)

// OrderLookup resolves a callback reference number to an order. It returns
// nil, nil when no order has that id.
type OrderLookup interface {
	FindOrder(ctx context.Context, id uint) (*model.ProgramOrder, error)
}

// Pages are the optional return URLs sent with the purchase form.
type Pages struct {
	ReceiptURL string
	CancelURL  string
}

// Processor signs purchase forms and verifies postpay callbacks.
type Processor struct {
	cfg    Config
	orders OrderLookup
	now    func() time.Time
	newID  func() string
}

// NewProcessor creates a processor for cfg. orders may be nil when the
// processor is only used for signing.
func NewProcessor(cfg Config, orders OrderLookup) *Processor {
	return &Processor{
		cfg:    cfg,
		orders: orders,
		now:    time.Now,
		newID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

// Endpoint is where the signed purchase form is posted.
func (p *Processor) Endpoint() string {
	return p.cfg.PurchaseEndpoint
}

// PurchaseParams builds the signed hosted-checkout form for order. The amount
// is the order's discounted price when one is set, else its list price.
func (p *Processor) PurchaseParams(order *model.ProgramOrder, pages Pages) Params {
	values := map[string]string{
		"amount":                       order.ExpectedCharge().StringFixed(2),
		"currency":                     p.cfg.currency(),
		"orderNumber":                  fmt.Sprintf("OrderId: %d", order.ID),
		"access_key":                   p.cfg.AccessKey,
		"profile_id":                   p.cfg.ProfileID,
		"reference_number":             strconv.FormatUint(uint64(order.ID), 10),
		"transaction_type":             "sale",
		"locale":                       p.cfg.locale(),
		"signed_date_time":             p.now().UTC().Format("2006-01-02T15:04:05Z"),
		"unsigned_field_names":         "",
		"transaction_uuid":             p.newID(),
		"payment_method":               "card",
		"override_custom_receipt_page": pages.ReceiptURL,
		"override_custom_cancel_page":  pages.CancelURL,
	}

	names := make([]string, 0, len(PurchaseFields))
	for _, field := range PurchaseFields {
		if field.Required || values[field.Name] != "" {
			names = append(names, field.Name)
		}
	}
	values["signed_field_names"] = strings.Join(names, ",")

	params := make(Params, 0, len(names)+1)
	for _, name := range names {
		params = append(params, Param{Name: name, Value: values[name]})
	}
	params = append(params, Param{
		Name:  "signature",
		Value: Sign(p.cfg.SecretKey, SigningString(names, values)),
	})
	return params
}

// SignatureValid reports whether params carry a valid signature.
func (p *Processor) SignatureValid(params map[string]string) bool {
	return VerifySignature(p.cfg.SecretKey, params)
}

// Verify checks a callback in order: CANCEL and DECLINE decisions are
// reported first, then the signature, then the type of each required field.
// A nil outcome means the callback is authentic and well formed.
func (p *Processor) Verify(params map[string]string) (*CallbackData, Outcome) {
	switch params["decision"] {
	case DecisionCancel:
		return nil, Cancelled{}
	case DecisionDecline:
		return nil, Declined{Decision: DecisionDecline, Reason: params["reason_code"]}
	}
	if !p.SignatureValid(params) {
		return nil, SignatureError{}
	}
	return parseCallback(params)
}

// Process verifies a callback and matches it against the order it refers
// to. It never finalizes the order; the caller acts on the outcome.
func (p *Processor) Process(ctx context.Context, params map[string]string) Result {
	data, outcome := p.Verify(params)
	if outcome != nil {
		result := Result{Outcome: outcome}
		switch outcome.(type) {
		case Cancelled, Declined:
			// Attach the order so the payload can be kept, but only for
			// authentic callbacks.
			if p.SignatureValid(params) {
				result.Order = p.lookupQuietly(ctx, params["req_reference_number"])
			}
		}
		return result
	}

	order, err := p.lookup(ctx, data.ReferenceNumber)
	if err != nil {
		return Result{Outcome: UnexpectedError{Err: err}}
	}
	if order == nil {
		return Result{Outcome: DataError{
			Detail: "The payment processor accepted an order whose number is not in our system.",
		}}
	}

	if data.Decision != DecisionAccept {
		return Result{
			Outcome: Declined{Decision: data.Decision, Reason: params["reason_code"]},
			Order:   order,
		}
	}

	expected := order.ExpectedCharge()
	if !data.AuthAmount.Equal(expected) || !strings.EqualFold(data.Currency, p.cfg.Currency) {
		return Result{
			Outcome: AmountMismatch{
				Expected:         expected,
				Actual:           data.AuthAmount,
				ExpectedCurrency: p.cfg.currency(),
				ActualCurrency:   strings.ToLower(data.Currency),
			},
			Order: order,
		}
	}

	return Result{
		Outcome: Accepted{Amount: data.AuthAmount, Currency: strings.ToLower(data.Currency)},
		Order:   order,
	}
}

func (p *Processor) lookup(ctx context.Context, ref int) (*model.ProgramOrder, error) {
	if p.orders == nil || ref <= 0 {
		return nil, nil
	}
	order, err := p.orders.FindOrder(ctx, uint(ref))
	if err != nil {
		return nil, fmt.Errorf("lookup order %d: %w", ref, err)
	}
	return order, nil
}

func (p *Processor) lookupQuietly(ctx context.Context, raw string) *model.ProgramOrder {
	ref, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	order, err := p.lookup(ctx, ref)
	if err != nil {
		return nil
	}
	return order
}
