package paypal

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Diagnostic logging for support/debugging. One structured record per
// provider exchange, gated behind Config.Debug. Secrets and tokens are
// redacted before anything reaches the log.

const excerptLimit = 512

var tokenPattern = regexp.MustCompile(`"(access_token|refresh_token|id_token)"\s*:\s*"[^"]*"`)

func (c *Client) debugAuthAttempt(ctx context.Context, env Environment, status int, outcome string) {
	if !c.cfg.Debug {
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "paypal_auth_attempt",
		slog.String("method", "POST"),
		slog.String("env", string(env)),
		slog.String("endpoint", "/v1/oauth2/token"),
		slog.Int("status", status),
		slog.String("outcome", redact(outcome)),
	)
}

func (c *Client) debugExchange(ctx context.Context, method string, env Environment, path string, status int, body []byte) {
	if !c.cfg.Debug {
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "paypal_exchange",
		slog.String("method", method),
		slog.String("env", string(env)),
		slog.String("endpoint", path),
		slog.Int("status", status),
		slog.String("body", redact(excerpt(body))),
	)
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > excerptLimit {
		s = s[:excerptLimit] + "..."
	}
	return s
}

func redact(s string) string {
	return tokenPattern.ReplaceAllString(s, `"$1":"[redacted]"`)
}
