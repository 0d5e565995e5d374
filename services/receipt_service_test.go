package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiproedx/synergeticsopenedx/model"
)

func TestReceiptRender(t *testing.T) {
	purchased := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	order := &model.ProgramOrder{
		ID:              17,
		ItemName:        "Data Science Micro-Masters",
		ItemPrice:       decimal.RequireFromString("100.00"),
		DiscountedPrice: decimal.NewNullDecimal(decimal.RequireFromString("80.00")),
		Status:          model.OrderStatusPurchased,
		PurchaseTime:    &purchased,
		Billing: model.BillingAddress{
			First:   "Ada",
			Last:    "Lovelace",
			Street1: "12 Analytical Row",
			City:    "London",
			Country: "GB",
		},
	}

	data, err := NewReceiptService("Synergetics", "usd", "billing@example.com").Render(order)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, 1, reader.NumPage())
}

func TestReceiptRenderWithoutBilling(t *testing.T) {
	order := &model.ProgramOrder{
		ID:        3,
		ItemPrice: decimal.RequireFromString("199.99"),
		Status:    model.OrderStatusRefunded,
		Program:   model.Program{Name: "Cloud Foundations"},
	}

	data, err := NewReceiptService("Synergetics", "usd", "billing@example.com").Render(order)
	require.NoError(t, err)

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, 1, reader.NumPage())
}

func TestBillingLines(t *testing.T) {
	lines := billingLines(model.BillingAddress{
		First:      "Ada",
		Last:       "Lovelace",
		Street1:    "12 Analytical Row",
		City:       "London",
		PostalCode: "N1",
		Country:    "GB",
	})
	assert.Equal(t, []string{"Ada Lovelace", "12 Analytical Row", "London, N1", "GB"}, lines)
}
