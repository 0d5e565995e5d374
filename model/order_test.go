package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusInitiate, OrderStatusPurchased, true},
		{OrderStatusInitiate, OrderStatusRefunded, false},
		{OrderStatusInitiate, OrderStatusInitiate, false},
		{OrderStatusPurchased, OrderStatusRefunded, true},
		{OrderStatusPurchased, OrderStatusInitiate, false},
		{OrderStatusPurchased, OrderStatusPurchased, false},
		{OrderStatusRefunded, OrderStatusPurchased, false},
		{OrderStatusRefunded, OrderStatusInitiate, false},
		{OrderStatus("bogus"), OrderStatusPurchased, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}
