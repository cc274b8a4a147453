package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAnchor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/anchors", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req anchorRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "abc123", req.Hash)
		assert.Equal(t, "record:42", req.Reference)

		json.NewEncoder(w).Encode(anchorResponse{TxID: "0xdeadbeef"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", time.Second)
	txID, err := c.SubmitAnchor(context.Background(), "abc123", "record:42")
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", txID)
}

func TestSubmitAnchorGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "node unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.SubmitAnchor(context.Background(), "abc123", "record:42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSubmitAnchorEmptyTxID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anchorResponse{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.SubmitAnchor(context.Background(), "abc123", "record:42")
	require.Error(t, err)
}

func TestSubmitAnchorTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 20*time.Millisecond)
	_, err := c.SubmitAnchor(context.Background(), "abc123", "record:42")
	require.Error(t, err)
}
