package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshCachesQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "include_24hr_change=true")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ethereum":{"usd":3521.4,"usd_24h_change":-1.2},"usd-coin":{"usd":1.0,"usd_24h_change":0.01}}`))
	}))
	defer server.Close()
	prev := BaseURL
	BaseURL = server.URL
	defer func() { BaseURL = prev }()

	s := NewService()
	require.NoError(t, s.Refresh(context.Background(), []string{"ethereum", "usd-coin"}))

	assert.Equal(t, 3521.4, s.Price("ethereum", "ETH"))
	assert.Equal(t, -1.2, s.Change("ethereum"))
	assert.Equal(t, 1.0, s.Price("usd-coin", "USDC"))
	assert.True(t, s.Snapshot()["ethereum"].Live)
}

func TestPartialResponseKeepsPrevious(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ethereum":{"usd":3100}}`))
	}))
	defer server.Close()
	prev := BaseURL
	BaseURL = server.URL
	defer func() { BaseURL = prev }()

	s := NewService()
	s.BindSymbol("USDT", "tether")
	require.NoError(t, s.Refresh(context.Background(), []string{"ethereum", "tether"}))

	// tether was absent from the response, the seeded fallback survives.
	assert.Equal(t, 1.0, s.Price("tether", "USDT"))
	assert.Equal(t, 3100.0, s.Price("ethereum", "ETH"))
}

func TestFallbackTable(t *testing.T) {
	s := NewService()
	assert.Equal(t, 3000.0, s.Price("ethereum", "ETH"))
	assert.Equal(t, 0.8, s.Price("polygon-ecosystem-token", "POL"))
	assert.Equal(t, 0.0, s.Price("chainlink", "LINK"))
	assert.Equal(t, 0.0, s.Change("chainlink"))
}

func TestRefreshFailureLeavesCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()
	prev := BaseURL
	BaseURL = server.URL
	defer func() { BaseURL = prev }()

	s := NewService()
	s.BindSymbol("ETH", "ethereum")
	require.Error(t, s.Refresh(context.Background(), []string{"ethereum"}))
	assert.Equal(t, 3000.0, s.Price("ethereum", "ETH"))
}
