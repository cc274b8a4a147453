// Package ledger submits record hashes to the public ledger gateway for
// tamper-evident anchoring.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/notarius-app/notarius/internal/pkg/env"
)

// DefaultTimeout bounds every anchoring call. A timed-out call is treated as
// a failure and retried through the dispatcher backoff path.
const DefaultTimeout = 15 * time.Second

// Submitter performs the external anchoring call. The dispatcher depends on
// this interface so it can be tested without a live gateway.
type Submitter interface {
	SubmitAnchor(ctx context.Context, hash, reference string) (string, error)
}

// Client talks to the ledger gateway HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a ledger client for the given gateway.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientFromEnv creates a ledger client from process configuration.
func NewClientFromEnv() *Client {
	return NewClient(
		env.GetEnv("LEDGER_GATEWAY_URL", "http://localhost:8545"),
		env.GetEnv("LEDGER_API_KEY", ""),
		DefaultTimeout,
	)
}

type anchorRequest struct {
	Hash      string `json:"hash"`
	Reference string `json:"reference"`
}

type anchorResponse struct {
	TxID string `json:"tx_id"`
}

// SubmitAnchor submits a record hash and returns the ledger transaction id.
func (c *Client) SubmitAnchor(ctx context.Context, hash, reference string) (string, error) {
	body, err := json.Marshal(anchorRequest{Hash: hash, Reference: reference})
	if err != nil {
		return "", fmt.Errorf("failed to marshal anchor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/anchors", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build anchor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anchor submission failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ledger gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed anchorResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode anchor response: %w", err)
	}
	if parsed.TxID == "" {
		return "", fmt.Errorf("ledger gateway returned empty tx id")
	}
	return parsed.TxID, nil
}
