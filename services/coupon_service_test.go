package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		price   string
		percent int
		want    string
	}{
		{"100.00", 20, "80.00"},
		{"99.99", 33, "66.99"},
		{"100.00", 0, "100.00"},
		{"100.00", 100, "0.00"},
		// 5.025 rounds half to even.
		{"10.05", 50, "5.03"},
		{"10.15", 50, "5.07"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			got := DiscountedPrice(decimal.RequireFromString(tt.price), tt.percent)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}
