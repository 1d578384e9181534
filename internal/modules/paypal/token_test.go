package paypal

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenEndpoint builds a test double for /v1/oauth2/token that answers
// with status and body, recording how often it was hit.
func tokenEndpoint(t *testing.T, status int, body string, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/oauth2/token", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		*hits++
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	if cfg.ClientID == "" {
		cfg.ClientID = "cid"
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = "csecret"
	}
	c, err := New(cfg, nil)
	require.NoError(t, err)
	return c
}

func TestAuthenticate_SendsBasicCredentials(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, Config{Env: EnvSandbox, SandboxBaseURL: srv.URL})
	tok, err := c.Authenticate(context.Background(), EnvSandbox)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("cid:csecret"))
	assert.Equal(t, want, gotAuth)
}

func TestAuthenticateWithFallback_SwapsEnvironmentOnInvalidClient(t *testing.T) {
	var sandboxHits, liveHits int
	sandbox := tokenEndpoint(t, http.StatusUnauthorized, `{"error":"invalid_client","error_description":"Client Authentication failed"}`, &sandboxHits)
	live := tokenEndpoint(t, http.StatusOK, `{"access_token":"live-tok","expires_in":3600}`, &liveHits)

	c := newTestClient(t, Config{
		Env:            EnvSandbox,
		AutoFallback:   true,
		SandboxBaseURL: sandbox.URL,
		LiveBaseURL:    live.URL,
	})

	tok, env, err := c.AuthenticateWithFallback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live-tok", tok)
	assert.Equal(t, EnvLive, env)
	assert.Equal(t, 1, sandboxHits)
	assert.Equal(t, 1, liveHits)
}

func TestAuthenticateWithFallback_DisabledStaysPut(t *testing.T) {
	var sandboxHits, liveHits int
	sandbox := tokenEndpoint(t, http.StatusUnauthorized, `{"error":"invalid_client"}`, &sandboxHits)
	live := tokenEndpoint(t, http.StatusOK, `{"access_token":"live-tok","expires_in":3600}`, &liveHits)

	c := newTestClient(t, Config{
		Env:            EnvSandbox,
		AutoFallback:   false,
		SandboxBaseURL: sandbox.URL,
		LiveBaseURL:    live.URL,
	})

	_, env, err := c.AuthenticateWithFallback(context.Background())
	require.Error(t, err)
	assert.Equal(t, EnvSandbox, env)
	assert.Equal(t, 0, liveHits)

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, EnvSandbox, ae.Env)
	assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
}

func TestAuthenticateWithFallback_OnlyInvalidClientTriggersRetry(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"RateLimited", http.StatusTooManyRequests, `{"error":"rate_limited"}`},
		{"ServerError", http.StatusInternalServerError, `{"error":"internal"}`},
		{"UnauthorizedOtherReason", http.StatusUnauthorized, `{"error":"token_expired"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var sandboxHits, liveHits int
			sandbox := tokenEndpoint(t, tc.status, tc.body, &sandboxHits)
			live := tokenEndpoint(t, http.StatusOK, `{"access_token":"live-tok","expires_in":3600}`, &liveHits)

			c := newTestClient(t, Config{
				Env:            EnvSandbox,
				AutoFallback:   true,
				SandboxBaseURL: sandbox.URL,
				LiveBaseURL:    live.URL,
			})

			_, _, err := c.AuthenticateWithFallback(context.Background())
			require.Error(t, err)
			assert.Equal(t, 0, liveHits, "fallback must not fire for %s", tc.name)
		})
	}
}

func TestAuthenticateWithFallback_TransportErrorNeverFallsBack(t *testing.T) {
	var liveHits int
	live := tokenEndpoint(t, http.StatusOK, `{"access_token":"live-tok","expires_in":3600}`, &liveHits)

	// closed server: connection refused
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	c := newTestClient(t, Config{
		Env:            EnvSandbox,
		AutoFallback:   true,
		SandboxBaseURL: dead.URL,
		LiveBaseURL:    live.URL,
	})

	_, _, err := c.AuthenticateWithFallback(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, liveHits)

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 0, ae.StatusCode)
}

func TestAuthenticateWithFallback_BothFailAnnotatesAttempts(t *testing.T) {
	var sandboxHits, liveHits int
	sandbox := tokenEndpoint(t, http.StatusUnauthorized, `{"error":"invalid_client"}`, &sandboxHits)
	live := tokenEndpoint(t, http.StatusUnauthorized, `{"error":"invalid_client"}`, &liveHits)

	c := newTestClient(t, Config{
		Env:            EnvSandbox,
		AutoFallback:   true,
		SandboxBaseURL: sandbox.URL,
		LiveBaseURL:    live.URL,
	})

	_, _, err := c.AuthenticateWithFallback(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, sandboxHits)
	assert.Equal(t, 1, liveHits)

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, EnvSandbox, ae.Env)
	assert.Equal(t, EnvLive, ae.FallbackEnv)
	assert.Contains(t, ae.Error(), "fallback live also failed")
}

func TestAuthenticateWithFallback_CustomPatterns(t *testing.T) {
	var liveHits int
	sandboxHits := 0
	sandbox := tokenEndpoint(t, http.StatusUnauthorized, `{"error":"AUTHENTICATION_FAILURE"}`, &sandboxHits)
	live := tokenEndpoint(t, http.StatusOK, `{"access_token":"live-tok","expires_in":3600}`, &liveHits)

	c := newTestClient(t, Config{
		Env:                   EnvSandbox,
		AutoFallback:          true,
		InvalidClientPatterns: []string{"authentication_failure"},
		SandboxBaseURL:        sandbox.URL,
		LiveBaseURL:           live.URL,
	})

	tok, env, err := c.AuthenticateWithFallback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live-tok", tok)
	assert.Equal(t, EnvLive, env)
}

func TestTokenCaching(t *testing.T) {
	var hits int
	srv := tokenEndpoint(t, http.StatusOK, `{"access_token":"tok-1","expires_in":3600}`, &hits)

	c := newTestClient(t, Config{Env: EnvSandbox, SandboxBaseURL: srv.URL})

	ctx := context.Background()
	tok1, env1, err := c.token(ctx)
	require.NoError(t, err)
	tok2, env2, err := c.token(ctx)
	require.NoError(t, err)

	assert.Equal(t, tok1, tok2)
	assert.Equal(t, env1, env2)
	assert.Equal(t, 1, hits, "second call must come from the session cache")
}

func TestAuthenticate_EmptyTokenRejected(t *testing.T) {
	var hits int
	srv := tokenEndpoint(t, http.StatusOK, `{"expires_in":3600}`, &hits)

	c := newTestClient(t, Config{Env: EnvSandbox, SandboxBaseURL: srv.URL})
	_, err := c.Authenticate(context.Background(), EnvSandbox)

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Reason, "no access token")
}

func TestNew_ConfigValidation(t *testing.T) {
	var ce *ConfigError

	_, err := New(Config{ClientSecret: "s"}, nil)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "client id", ce.Missing)

	_, err = New(Config{ClientID: "demo-client-id", ClientSecret: "s"}, nil)
	require.ErrorAs(t, err, &ce)

	_, err = New(Config{ClientID: "cid"}, nil)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "client secret", ce.Missing)
}
