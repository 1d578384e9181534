package paypal

import (
	"errors"
	"fmt"
)

type Environment string

const (
	EnvSandbox Environment = "sandbox"
	EnvLive    Environment = "live"
)

func (e Environment) BaseURL() string {
	if e == EnvLive {
		return "https://api-m.paypal.com"
	}
	return "https://api-m.sandbox.paypal.com"
}

// Other returns the alternate environment, used by the credential
// fallback when operators transpose sandbox/live keys.
func (e Environment) Other() Environment {
	if e == EnvLive {
		return EnvSandbox
	}
	return EnvLive
}

// ConfigError: credentials are missing. Fatal for payment flows, never
// retried; the rest of the storefront keeps working.
type ConfigError struct {
	Missing string // "client id" or "client secret"
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("paypal not configured: %s missing", e.Missing)
}

// AuthError: the token exchange failed for one environment. FallbackEnv
// is set when the automatic environment fallback was attempted and also
// failed.
type AuthError struct {
	Env         Environment
	FallbackEnv Environment
	StatusCode  int // 0 for transport failures
	Reason      string
}

func (e *AuthError) Error() string {
	if e.FallbackEnv != "" {
		return fmt.Sprintf("paypal auth failed on %s (fallback %s also failed): %s", e.Env, e.FallbackEnv, e.Reason)
	}
	return fmt.Sprintf("paypal auth failed on %s: %s", e.Env, e.Reason)
}

// APIError: a non-2xx response from an order or capture endpoint.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

var errEmptyToken = errors.New("paypal auth response carried no access token")
