package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elit21.com/shop/internal/modules/paypal"
)

func envMap(m map[string]string) Getenv {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, int64(999), cfg.ShippingFeeCents)
	assert.Equal(t, paypal.EnvSandbox, cfg.PayPal.Env)
	assert.True(t, cfg.PayPal.AutoFallback)
	assert.False(t, cfg.PayPal.Debug)
	assert.False(t, cfg.SecureCookies())
}

func TestLoad_SecretAlias(t *testing.T) {
	t.Run("PrimaryNameWins", func(t *testing.T) {
		cfg, err := Load(envMap(map[string]string{
			"PAYPAL_CLIENT_SECRET": "primary",
			"PAYPAL_SECRET_KEY_1":  "legacy",
		}))
		require.NoError(t, err)
		assert.Equal(t, "primary", cfg.PayPal.ClientSecret)
	})

	t.Run("LegacyAlias", func(t *testing.T) {
		cfg, err := Load(envMap(map[string]string{
			"PAYPAL_SECRET_KEY_1": "legacy",
		}))
		require.NoError(t, err)
		assert.Equal(t, "legacy", cfg.PayPal.ClientSecret)
	})
}

func TestLoad_PayPalEnv(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{"PAYPAL_ENV": "LIVE"}))
	require.NoError(t, err)
	assert.Equal(t, paypal.EnvLive, cfg.PayPal.Env)

	_, err = Load(envMap(map[string]string{"PAYPAL_ENV": "production"}))
	assert.Error(t, err)
}

func TestLoad_FallbackToggle(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{"PAYPAL_AUTO_FALLBACK": "false"}))
	require.NoError(t, err)
	assert.False(t, cfg.PayPal.AutoFallback)

	_, err = Load(envMap(map[string]string{"PAYPAL_AUTO_FALLBACK": "nope"}))
	assert.Error(t, err)
}

func TestLoad_InvalidClientPatterns(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{
		"PAYPAL_INVALID_CLIENT_PATTERNS": "invalid_client, AUTHENTICATION_FAILURE ,",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"invalid_client", "AUTHENTICATION_FAILURE"}, cfg.PayPal.InvalidClientPatterns)
}

func TestLoad_ShippingFee(t *testing.T) {
	t.Run("MajorUnits", func(t *testing.T) {
		cfg, err := Load(envMap(map[string]string{"SHIPPING_FEE": "4.50"}))
		require.NoError(t, err)
		assert.Equal(t, int64(450), cfg.ShippingFeeCents)
	})

	t.Run("CentSuffix", func(t *testing.T) {
		cfg, err := Load(envMap(map[string]string{"SHIPPING_FEE": "450c"}))
		require.NoError(t, err)
		assert.Equal(t, int64(450), cfg.ShippingFeeCents)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := Load(envMap(map[string]string{"SHIPPING_FEE": "4.505"}))
		assert.Error(t, err)
	})
}

func TestLoad_SessionSecretAlias(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{"ELIT21_SECRET": "legacy-secret"}))
	require.NoError(t, err)
	assert.Equal(t, "legacy-secret", cfg.SessionSecret)
}

func TestSecureCookies(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{"BASE_URL": "https://elit21.com/"}))
	require.NoError(t, err)
	assert.True(t, cfg.SecureCookies())
	assert.Equal(t, "https://elit21.com", cfg.BaseURL)
}
