package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelay(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{5, 32 * time.Second},
		{12, 32 * time.Second},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, retryDelay(tc.attempts), "attempts=%d", tc.attempts)
	}
}
