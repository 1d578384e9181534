package paypal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// expiryMargin keeps us from reusing a token that is about to lapse
// mid-flight.
const expiryMargin = 60 * time.Second

type session struct {
	env       Environment
	token     string
	expiresAt time.Time
}

func (s *session) valid(now time.Time) bool {
	return s != nil && s.token != "" && now.Before(s.expiresAt.Add(-expiryMargin))
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Authenticate performs the client-credentials exchange against one
// environment. Failures come back as *AuthError; transport errors carry
// StatusCode 0 so they never look like invalid credentials.
func (c *Client) Authenticate(ctx context.Context, env Environment) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL(env)+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.debugAuthAttempt(ctx, env, 0, err.Error())
		return "", &AuthError{Env: env, Reason: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", &AuthError{Env: env, Reason: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.debugAuthAttempt(ctx, env, resp.StatusCode, excerpt(raw))
		return "", &AuthError{Env: env, StatusCode: resp.StatusCode, Reason: excerpt(raw)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", &AuthError{Env: env, StatusCode: resp.StatusCode, Reason: err.Error()}
	}
	if tr.AccessToken == "" {
		return "", &AuthError{Env: env, StatusCode: resp.StatusCode, Reason: errEmptyToken.Error()}
	}

	c.debugAuthAttempt(ctx, env, resp.StatusCode, "ok")

	c.mu.Lock()
	c.sessions[env] = &session{
		env:       env,
		token:     tr.AccessToken,
		expiresAt: time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}
	c.mu.Unlock()

	return tr.AccessToken, nil
}

// AuthenticateWithFallback tries the configured environment first.
// Operators regularly paste live keys into a sandbox deployment (or the
// reverse); when the failure is specifically an invalid-client
// rejection and AutoFallback is on, we retry once against the other
// environment. Declines, rate limits and network errors never trigger
// the retry. Returns the token and the environment that produced it.
func (c *Client) AuthenticateWithFallback(ctx context.Context) (string, Environment, error) {
	env := c.cfg.Env
	token, err := c.Authenticate(ctx, env)
	if err == nil {
		return token, env, nil
	}

	var ae *AuthError
	if !c.cfg.AutoFallback || !errors.As(err, &ae) || !c.isInvalidClient(ae) {
		return "", env, err
	}

	other := env.Other()
	token, ferr := c.Authenticate(ctx, other)
	if ferr != nil {
		// surface the original failure, annotated with both attempts
		ae.FallbackEnv = other
		return "", env, ae
	}
	return token, other, nil
}

// isInvalidClient: a definite credential rejection from the token
// endpoint, matched against the configured patterns. The pattern list
// is configuration, not a hardcoded string, because the provider's
// error taxonomy can shift under us.
func (c *Client) isInvalidClient(ae *AuthError) bool {
	if ae.StatusCode != http.StatusUnauthorized && ae.StatusCode != http.StatusBadRequest {
		return false
	}
	reason := strings.ToLower(ae.Reason)
	for _, p := range c.cfg.InvalidClientPatterns {
		if strings.Contains(reason, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// token returns a cached session token for the effective environment,
// re-authenticating (with fallback) when none is fresh.
func (c *Client) token(ctx context.Context) (string, Environment, error) {
	now := time.Now()

	c.mu.Lock()
	for _, env := range []Environment{c.cfg.Env, c.cfg.Env.Other()} {
		if s := c.sessions[env]; s.valid(now) {
			c.mu.Unlock()
			return s.token, env, nil
		}
	}
	c.mu.Unlock()

	return c.AuthenticateWithFallback(ctx)
}
