package handlers

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct{ err error }

func (s stubStore) Init() error        { return nil }
func (s stubStore) Close() error       { return nil }
func (s stubStore) HealthCheck() error { return s.err }
func (s stubStore) GetDB() interface{} { return nil }

func TestHealthCheck(t *testing.T) {
	for _, tt := range []struct {
		name   string
		err    error
		status int
	}{
		{"database up", nil, fiber.StatusOK},
		{"database down", errors.New("connection refused"), fiber.StatusServiceUnavailable},
	} {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			store := stubStore{err: tt.err}
			app.Get("/ping", func(c *fiber.Ctx) error { return HandleCheckHealth(c, store) })

			resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
