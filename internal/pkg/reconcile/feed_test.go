package reconcile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFeedFetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transactions", r.URL.Path)
		assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactions":[{"id":"pi_1","amount":20.00,"currency":"USD","status":"completed","refunded":false}],"next_cursor":"def"}`))
	}))
	defer server.Close()

	feed := NewHTTPFeed(map[string]string{"stripe": server.URL}, time.Second)
	entries, next, err := feed.FetchPage(context.Background(), "stripe", "abc", 50)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "pi_1", entries[0].ExternalID)
	assert.Equal(t, 20.00, entries[0].Amount)
	assert.Equal(t, "def", next)
}

func TestHTTPFeedFirstPageOmitsCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("cursor"))
		_, _ = w.Write([]byte(`{"transactions":[],"next_cursor":""}`))
	}))
	defer server.Close()

	feed := NewHTTPFeed(map[string]string{"stripe": server.URL}, time.Second)
	entries, next, err := feed.FetchPage(context.Background(), "stripe", "", 100)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, next)
}

func TestHTTPFeedErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	feed := NewHTTPFeed(map[string]string{"stripe": server.URL}, time.Second)
	_, _, err := feed.FetchPage(context.Background(), "stripe", "", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestHTTPFeedUnknownProvider(t *testing.T) {
	feed := NewHTTPFeed(map[string]string{}, time.Second)
	_, _, err := feed.FetchPage(context.Background(), "stripe", "", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no feed endpoint configured")
}
