// Package reconcile periodically diffs the local payment ledger against each
// provider's own transaction history to catch drift the webhook path missed.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FeedEntry is one transaction from a provider's history feed, already in
// major currency units.
type FeedEntry struct {
	ExternalID string  `json:"id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Status     string  `json:"status"`
	Refunded   bool    `json:"refunded"`
}

// ProviderFeed fetches pages of a provider's transaction history. The cursor
// is opaque; an empty next cursor means no further pages.
type ProviderFeed interface {
	FetchPage(ctx context.Context, provider, cursor string, limit int) (entries []FeedEntry, nextCursor string, err error)
}

// DefaultFeedTimeout bounds every page fetch.
const DefaultFeedTimeout = 20 * time.Second

// HTTPFeed fetches transaction pages over the providers' reporting APIs.
type HTTPFeed struct {
	baseURLs   map[string]string
	httpClient *http.Client
}

// NewHTTPFeed creates a feed client with one base URL per provider.
func NewHTTPFeed(baseURLs map[string]string, timeout time.Duration) *HTTPFeed {
	if timeout <= 0 {
		timeout = DefaultFeedTimeout
	}
	return &HTTPFeed{
		baseURLs:   baseURLs,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type feedPage struct {
	Transactions []FeedEntry `json:"transactions"`
	NextCursor   string      `json:"next_cursor"`
}

// FetchPage requests one page starting at the cursor.
func (f *HTTPFeed) FetchPage(ctx context.Context, provider, cursor string, limit int) ([]FeedEntry, string, error) {
	base, ok := f.baseURLs[provider]
	if !ok || base == "" {
		return nil, "", fmt.Errorf("no feed endpoint configured for provider %q", provider)
	}

	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	q.Set("limit", strconv.Itoa(limit))
	endpoint := strings.TrimRight(base, "/") + "/v1/transactions?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("feed fetch for %s failed: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("feed for %s returned %d: %s", provider, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var page feedPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", fmt.Errorf("failed to decode feed page: %w", err)
	}
	return page.Transactions, page.NextCursor, nil
}
