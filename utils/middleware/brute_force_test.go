package middleware

import (
	"context"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiproedx/synergeticsopenedx/utils/cache"
)

// memoryStore is an in-process cache.Store for tests.
type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", cache.ErrNotFound
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value interface{}, exp time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = toString(value)
	m.ttls[key] = exp
	return nil
}

func (m *memoryStore) SetJSON(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	return m.Set(ctx, key, value, exp)
}

func (m *memoryStore) GetJSON(context.Context, string, interface{}) error { return cache.ErrNotFound }

func (m *memoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
		delete(m.ttls, k)
	}
	return nil
}

func (m *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok, nil
}

func (m *memoryStore) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.values[key], 10, 64)
	n++
	m.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *memoryStore) Expire(_ context.Context, key string, exp time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttls[key] = exp
	return nil
}

func (m *memoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key], nil
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	}
	return ""
}

func TestLockDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), lockDuration(4))
	assert.Equal(t, 2*time.Minute, lockDuration(5))
	assert.Equal(t, time.Hour, lockDuration(10))
	assert.Equal(t, 24*time.Hour, lockDuration(25))
}

func TestCouponAttemptGuardLocksAfterFiveFailures(t *testing.T) {
	store := newMemoryStore()
	guard := NewCouponAttemptGuard(store)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(9))
		return c.Next()
	})
	app.Post("/use_code", guard.Check(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 4; i++ {
		guard.RecordFailure(context.Background(), 9)
	}
	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/use_code", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	guard.RecordFailure(context.Background(), 9)
	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/use_code", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "120", resp.Header.Get("Retry-After"))

	guard.RecordSuccess(context.Background(), 9)
	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/use_code", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestNilGuardIsDisabled(t *testing.T) {
	var guard *CouponAttemptGuard
	guard.RecordFailure(context.Background(), 1)
	guard.RecordSuccess(context.Background(), 1)

	app := fiber.New()
	app.Get("/", guard.Check(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
