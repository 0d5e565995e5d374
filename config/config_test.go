package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GO_ENV", "")
	t.Setenv("PAID_COURSE_REGISTRATION_CURRENCY", "")
	t.Setenv("CRON_ENABLED", "")

	env, err := Get()
	require.NoError(t, err)
	assert.Equal(t, 8080, env.PORT)
	assert.Equal(t, "usd", env.PAID_COURSE_REGISTRATION_CURRENCY)
	assert.True(t, env.CRON_ENABLED)
	assert.False(t, env.IsProduction())
}

func TestGetOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GO_ENV", "production")
	t.Setenv("PAID_COURSE_REGISTRATION_CURRENCY", "EUR")
	t.Setenv("CRON_ENABLED", "false")
	t.Setenv("LOG_POSTPAY_CALLBACKS", "not-a-bool")

	env, err := Get()
	require.NoError(t, err)
	assert.Equal(t, 9000, env.PORT)
	assert.Equal(t, "eur", env.PAID_COURSE_REGISTRATION_CURRENCY)
	assert.False(t, env.CRON_ENABLED)
	assert.False(t, env.LOG_POSTPAY_CALLBACKS)
	assert.True(t, env.IsProduction())
}

func TestProcessorConfig(t *testing.T) {
	t.Setenv("CC_PROCESSOR_SECRET_KEY", "secret")
	t.Setenv("CC_PROCESSOR_ACCESS_KEY", "access")
	t.Setenv("CC_PROCESSOR_PROFILE_ID", "profile")
	t.Setenv("CC_PROCESSOR_PURCHASE_ENDPOINT", "")

	env, err := Get()
	require.NoError(t, err)
	cfg := env.Processor()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "https://testsecureacceptance.cybersource.com/pay", cfg.PurchaseEndpoint)

	t.Setenv("CC_PROCESSOR_SECRET_KEY", "")
	env, err = Get()
	require.NoError(t, err)
	assert.Error(t, env.Processor().Validate())
}

func TestSpacesConfig(t *testing.T) {
	t.Setenv("SPACES_ACCESS_KEY", "")
	env, err := Get()
	require.NoError(t, err)
	assert.False(t, env.Spaces().Configured())
}
