package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Config is injected by internal/config; nothing here reads the
// environment directly, so tests can run with distinct credential sets.
type Config struct {
	ClientID     string
	ClientSecret string
	Env          Environment

	// AutoFallback retries the token exchange once against the other
	// environment, only for invalid-client failures. Default on.
	AutoFallback bool

	// InvalidClientPatterns are matched (case-insensitive substring)
	// against the token endpoint's error body to detect transposed
	// credentials. Empty means the default "invalid_client".
	InvalidClientPatterns []string

	// Debug enables per-exchange diagnostic logging. Off by default so
	// payment metadata stays out of production logs.
	Debug bool

	// Timeout bounds each provider call. Zero means DefaultTimeout.
	Timeout time.Duration

	// SandboxBaseURL/LiveBaseURL override the provider endpoints; used
	// by tests to point the client at a local double.
	SandboxBaseURL string
	LiveBaseURL    string
}

const DefaultTimeout = 20 * time.Second

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[Environment]*session
}

// New validates credentials and builds the client. A missing client id
// or a missing secret (both names) is a ConfigError.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientID == "demo-client-id" {
		return nil, &ConfigError{Missing: "client id"}
	}
	if cfg.ClientSecret == "" {
		return nil, &ConfigError{Missing: "client secret"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if len(cfg.InvalidClientPatterns) == 0 {
		cfg.InvalidClientPatterns = []string{"invalid_client"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
		sessions: make(map[Environment]*session),
	}, nil
}

func (c *Client) baseURL(env Environment) string {
	switch env {
	case EnvSandbox:
		if c.cfg.SandboxBaseURL != "" {
			return c.cfg.SandboxBaseURL
		}
	case EnvLive:
		if c.cfg.LiveBaseURL != "" {
			return c.cfg.LiveBaseURL
		}
	}
	return env.BaseURL()
}

// doJSON performs an authenticated JSON call against env and decodes a
// 2xx body into out (when out != nil). Non-2xx becomes an APIError.
func (c *Client) doJSON(ctx context.Context, env Environment, token, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL(env)+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.debugExchange(ctx, method, env, path, 0, nil)
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	c.debugExchange(ctx, method, env, path, resp.StatusCode, raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: excerpt(raw)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
