package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"elit21.com/shop/internal/modules/paypal"
	"elit21.com/shop/internal/shared/money"
)

// Getenv is the lookup used by Load. Tests inject a map-backed one;
// cmd/web passes os.Getenv.
type Getenv func(key string) string

type Config struct {
	ListenAddr string
	BaseURL    string
	DBDSN      string

	SessionSecret string
	SessionTTL    time.Duration

	ShippingFeeCents int64

	PayPal paypal.Config
}

// SecureCookies reports whether session cookies should carry the
// Secure flag, derived from the public base URL scheme.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

// Load reads the process configuration. PayPal credentials are resolved
// here but only validated when the client is built, so the storefront
// still serves the catalogue on a box without payment credentials.
func Load(getenv Getenv) (Config, error) {
	cfg := Config{
		ListenAddr:    or(getenv("LISTEN_ADDR"), ":8080"),
		BaseURL:       strings.TrimRight(or(getenv("BASE_URL"), "http://localhost:8080"), "/"),
		DBDSN:         getenv("DB_DSN"),
		SessionSecret: or(getenv("SESSION_SECRET"), getenv("ELIT21_SECRET")),
		SessionTTL:    30 * 24 * time.Hour,
	}

	fee, err := parseCents(or(getenv("SHIPPING_FEE"), "9.99"))
	if err != nil {
		return Config{}, fmt.Errorf("SHIPPING_FEE: %w", err)
	}
	cfg.ShippingFeeCents = fee

	pp, err := loadPayPal(getenv)
	if err != nil {
		return Config{}, err
	}
	cfg.PayPal = pp

	return cfg, nil
}

// loadPayPal resolves provider credentials. The secret has two accepted
// names: PAYPAL_CLIENT_SECRET, then the legacy alias PAYPAL_SECRET_KEY_1.
func loadPayPal(getenv Getenv) (paypal.Config, error) {
	env := paypal.Environment(strings.ToLower(or(getenv("PAYPAL_ENV"), "sandbox")))
	if env != paypal.EnvSandbox && env != paypal.EnvLive {
		return paypal.Config{}, fmt.Errorf("PAYPAL_ENV: unknown environment %q", env)
	}

	fallback, err := parseBool(or(getenv("PAYPAL_AUTO_FALLBACK"), "true"))
	if err != nil {
		return paypal.Config{}, fmt.Errorf("PAYPAL_AUTO_FALLBACK: %w", err)
	}
	debug, err := parseBool(or(getenv("PAYPAL_DEBUG"), "false"))
	if err != nil {
		return paypal.Config{}, fmt.Errorf("PAYPAL_DEBUG: %w", err)
	}

	cfg := paypal.Config{
		ClientID:     getenv("PAYPAL_CLIENT_ID"),
		ClientSecret: or(getenv("PAYPAL_CLIENT_SECRET"), getenv("PAYPAL_SECRET_KEY_1")),
		Env:          env,
		AutoFallback: fallback,
		Debug:        debug,
	}

	if raw := strings.TrimSpace(getenv("PAYPAL_INVALID_CLIENT_PATTERNS")); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.InvalidClientPatterns = append(cfg.InvalidClientPatterns, p)
			}
		}
	}

	return cfg, nil
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func parseBool(v string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("expected a boolean, got %q", v)
	}
	return b, nil
}

// parseCents accepts either a major amount ("9.99") or a bare cent
// count ("999c") so existing .env files keep working.
func parseCents(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "c") {
		return strconv.ParseInt(strings.TrimSuffix(v, "c"), 10, 64)
	}
	return money.ParseCents(v)
}
