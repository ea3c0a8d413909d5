// Package captcha verifies bot challenge tokens against a siteverify endpoint.
package captcha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"cardshop/internal/config"
)

// ErrChallengeFailed is returned for a missing or rejected token.
var ErrChallengeFailed = errors.New("bot challenge failed")

// Verifier checks a bot challenge token for a client IP.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Turnstile posts tokens to a Cloudflare Turnstile compatible endpoint.
type Turnstile struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// New returns a verifier, or nil when no secret is configured.
func New(cfg *config.Config) Verifier {
	if cfg.Captcha.Secret == "" {
		return nil
	}
	return NewTurnstile(cfg.Captcha.Secret, cfg.Captcha.VerifyURL, &http.Client{Timeout: 5 * time.Second})
}

// NewTurnstile creates a verifier with an explicit client.
func NewTurnstile(secret, verifyURL string, client *http.Client) *Turnstile {
	return &Turnstile{secret: secret, verifyURL: verifyURL, client: client}
}

// Verify reports ErrChallengeFailed when the provider rejects the token.
func (t *Turnstile) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return ErrChallengeFailed
	}

	form := url.Values{}
	form.Set("secret", t.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("siteverify: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read siteverify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !gjson.ValidBytes(body) {
		return fmt.Errorf("siteverify: unexpected response status %d", resp.StatusCode)
	}
	if !gjson.GetBytes(body, "success").Bool() {
		return ErrChallengeFailed
	}
	return nil
}
