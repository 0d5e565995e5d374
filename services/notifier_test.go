package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiproedx/synergeticsopenedx/model"
)

type stubRenderer struct {
	data []byte
	err  error
}

func (r stubRenderer) Render(*model.ProgramOrder) ([]byte, error) {
	return r.data, r.err
}

func purchasedOrder() *model.ProgramOrder {
	return &model.ProgramOrder{
		ID:        9,
		ItemName:  "Cloud Foundations",
		ItemPrice: decimal.RequireFromString("199.99"),
		Status:    model.OrderStatusPurchased,
		User:      model.User{Username: "ada", Email: "ada@example.com"},
	}
}

func testMailerConfig() MailerConfig {
	return MailerConfig{
		PlatformName:   "Synergetics",
		SiteName:       "https://lms.example.com/",
		SupportEmail:   "billing@example.com",
		CurrencySymbol: "$",
	}
}

func TestReceiptMailerAttachesPDF(t *testing.T) {
	outbox := NewConsoleEmailService("Billing", "billing@example.com")
	mailer := NewReceiptMailer(nil, stubRenderer{data: []byte("%PDF-1.3")}, nil, outbox, testMailerConfig())

	mailer.OrderPurchased(context.Background(), purchasedOrder())

	sent := outbox.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Order Payment Confirmation", sent[0].Subject)
	assert.Equal(t, "ada@example.com", sent[0].To[0].Address)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "Receipt.pdf", sent[0].Attachments[0].Filename)
	assert.Equal(t, "application/pdf", sent[0].Attachments[0].ContentType)
	assert.Contains(t, sent[0].TextBody, "Amount paid: $199.99")
	assert.Contains(t, sent[0].TextBody, "https://lms.example.com/dashboard")
}

func TestReceiptMailerFallsBackWhenRenderFails(t *testing.T) {
	outbox := NewConsoleEmailService("Billing", "billing@example.com")
	mailer := NewReceiptMailer(nil, stubRenderer{err: errors.New("font missing")}, nil, outbox, testMailerConfig())

	mailer.OrderPurchased(context.Background(), purchasedOrder())

	sent := outbox.Sent()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Attachments, 1)
	att := sent[0].Attachments[0]
	assert.Equal(t, "pdf_not_available.txt", att.Filename)
	assert.Equal(t, "pdf download unavailable right now, please contact support.", string(att.Content))
}
