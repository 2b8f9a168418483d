// Package gateway mints short-lived realtime session tokens from the
// upstream provider, so the long-lived secret never reaches the media
// negotiation endpoint.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// SecretPrefix is the shape every provider secret must have. Secrets
// failing this check are rejected before any network call.
const SecretPrefix = "sk-"

// TokenRequest is the mint request assembled by the orchestrator.
type TokenRequest struct {
	Secret       string
	Model        string
	Voice        string
	Instructions string
}

// ClientSecret is the ephemeral credential returned by the provider.
// Some provider versions return a bare string, newer ones an object
// with an expiry; both decode into this type.
type ClientSecret struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}

// UnmarshalJSON accepts either `"secret"` or `{"value": "secret", ...}`.
func (c *ClientSecret) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.Value)
	}
	type alias ClientSecret
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = ClientSecret(a)
	return nil
}

// TokenResponse is the subset of the provider's session object the
// orchestrator needs.
type TokenResponse struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	ClientSecret ClientSecret `json:"client_secret"`
}

// TokenRequestError reports a non-2xx mint response with the upstream
// status and body intact so callers can show the provider's reason.
type TokenRequestError struct {
	Status int
	Body   string
}

func (e *TokenRequestError) Error() string {
	return fmt.Sprintf("token request failed with status %d: %s", e.Status, e.Body)
}

// Client is the stateless gateway client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a gateway client against the provider base URL,
// e.g. "https://api.openai.com/v1".
func NewClient(baseURL string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// ValidSecret reports whether the secret has the provider's expected shape.
func ValidSecret(secret string) bool {
	return secret != "" && strings.HasPrefix(secret, SecretPrefix)
}

// MintToken exchanges the long-lived secret for an ephemeral session
// token. Non-2xx responses surface as *TokenRequestError; they are not
// retried here, retry policy belongs to the caller.
func (c *Client) MintToken(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	body := map[string]interface{}{
		"model":               req.Model,
		"voice":               req.Voice,
		"modalities":          []string{"audio", "text"},
		"instructions":        req.Instructions,
		"input_audio_format":  "pcm16",
		"output_audio_format": "pcm16",
		"input_audio_transcription": map[string]string{
			"model": "whisper-1",
		},
		"turn_detection": map[string]interface{}{
			"type":                "server_vad",
			"threshold":           0.5,
			"prefix_padding_ms":   300,
			"silence_duration_ms": 1000,
		},
		"temperature":                0.8,
		"max_response_output_tokens": 4096,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/realtime/sessions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.Secret)
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.WithFields(logrus.Fields{
		"model": req.Model,
		"voice": req.Voice,
	}).Debug("Minting realtime session token")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TokenRequestError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var token TokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.Model == "" {
		token.Model = req.Model
	}

	return &token, nil
}
