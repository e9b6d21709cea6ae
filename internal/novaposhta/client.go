package novaposhta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned by every call when no key is configured
var ErrMissingAPIKey = errors.New("nova poshta API key is missing (NP_API_KEY or NOVA_POSHTA_KEY)")

// Client calls the Nova Poshta JSON API
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

type apiRequest struct {
	APIKey           string            `json:"apiKey"`
	ModelName        string            `json:"modelName"`
	CalledMethod     string            `json:"calledMethod"`
	MethodProperties map[string]string `json:"methodProperties"`
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

// NewClient creates a Nova Poshta API client
func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Call invokes modelName.calledMethod and returns the raw "data" member
func (c *Client) Call(ctx context.Context, modelName, calledMethod string, props map[string]string) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if props == nil {
		props = map[string]string{}
	}

	body, err := json.Marshal(apiRequest{
		APIKey:           c.apiKey,
		ModelName:        modelName,
		CalledMethod:     calledMethod,
		MethodProperties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call nova poshta: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("nova poshta HTTP %d", resp.StatusCode)
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.Success {
		msg := strings.Join(result.Errors, "; ")
		if msg == "" {
			msg = "nova poshta error"
		}
		return nil, errors.New(msg)
	}

	return result.Data, nil
}
