package antispam

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dieselhub/internal/metrics"

	"github.com/rs/zerolog/log"
)

// ChallengeVerifier redeems a challenge-response token
type ChallengeVerifier interface {
	VerifyChallengeToken(ctx context.Context, token, ip string) bool
}

// TurnstileVerifier checks tokens against Cloudflare Turnstile siteverify
type TurnstileVerifier struct {
	secret     string
	verifyURL  string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Hostname   string   `json:"hostname"`
}

// NewTurnstileVerifier creates a verifier with a bounded HTTP timeout
func NewTurnstileVerifier(secret, verifyURL string, m *metrics.Metrics) *TurnstileVerifier {
	return &TurnstileVerifier{
		secret:    secret,
		verifyURL: verifyURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		metrics: m,
	}
}

// VerifyChallengeToken returns true only when the provider confirms the token.
// Every failure mode counts as not verified.
func (v *TurnstileVerifier) VerifyChallengeToken(ctx context.Context, token, ip string) bool {
	ok := v.verify(ctx, token, ip)
	v.metrics.IncChallenge(ok)
	return ok
}

func (v *TurnstileVerifier) verify(ctx context.Context, token, ip string) bool {
	if strings.TrimSpace(token) == "" {
		return false
	}
	if v.secret == "" {
		log.Error().Msg("Turnstile secret is not configured, challenge cannot pass")
		return false
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if ip != "" {
		form.Set("remoteip", ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		log.Error().Err(err).Msg("Failed to build Turnstile request")
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("ip", ip).Msg("Turnstile verification request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error().Int("status", resp.StatusCode).Str("ip", ip).Msg("Turnstile verification returned non-2xx")
		return false
	}

	var result turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Error().Err(err).Str("ip", ip).Msg("Failed to decode Turnstile response")
		return false
	}

	if !result.Success {
		log.Warn().Strs("error_codes", result.ErrorCodes).Str("ip", ip).Msg("Turnstile token rejected")
	}
	return result.Success
}
