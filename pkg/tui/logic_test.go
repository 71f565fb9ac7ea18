package tui

import (
	"testing"
	"time"

	"cryptrail/pkg/authgate"
	"cryptrail/pkg/balance"
	"cryptrail/pkg/chains"
	"cryptrail/pkg/prices"
	"cryptrail/pkg/session"
	"cryptrail/pkg/storage"
	"cryptrail/pkg/tx"
	"cryptrail/pkg/watcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.Open(storage.NewMemStore(), authgate.NoopAuthenticator{}, time.Minute)
	require.NoError(t, err)
	return s
}

func TestAssetOptionsNativeFirst(t *testing.T) {
	sess := testSession(t)
	network, ok := chains.ByID("polygon")
	require.True(t, ok)

	assets := assetOptions(sess, network)
	require.NotEmpty(t, assets)
	assert.Equal(t, "native", assets[0].Key)
	assert.Equal(t, "POL", assets[0].Symbol)
	assert.Empty(t, assets[0].Contract)
	for _, asset := range assets[1:] {
		assert.NotEmpty(t, asset.Contract, "token %s", asset.Key)
	}
}

func TestAmountOf(t *testing.T) {
	state := watcher.State{Sheet: &balance.Sheet{
		NetworkID: "polygon",
		Native:    balance.Amount{Key: "native", Symbol: "POL", Value: 3.5},
		Tokens:    []balance.Amount{{Key: "usd-coin", Symbol: "USDC", Value: 12}},
	}}
	assert.Equal(t, 3.5, amountOf(state, "native"))
	assert.Equal(t, 12.0, amountOf(state, "usd-coin"))
	assert.Equal(t, 0.0, amountOf(state, "tether"))
	assert.Equal(t, 0.0, amountOf(watcher.State{}, "native"))
}

func TestUsdValueUsesNetworkCoinForNative(t *testing.T) {
	p := prices.NewService()
	network, ok := chains.ByID("ethereum")
	require.True(t, ok)

	// No live quote: the fallback table prices ETH at 3000.
	native := tx.Asset{Key: "native", Symbol: "ETH"}
	assert.Equal(t, 6000.0, usdValue(p, network, native, 2))

	usdc := tx.Asset{Key: "usd-coin", Symbol: "USDC"}
	assert.Equal(t, 25.0, usdValue(p, network, usdc, 25))
}

func TestPortfolioUsd(t *testing.T) {
	p := prices.NewService()
	network, ok := chains.ByID("ethereum")
	require.True(t, ok)

	state := watcher.State{Sheet: &balance.Sheet{
		NetworkID: "ethereum",
		Native:    balance.Amount{Key: "native", Symbol: "ETH", Value: 1},
		Tokens:    []balance.Amount{{Key: "usd-coin", Symbol: "USDC", Value: 50}},
	}}
	assets := []tx.Asset{
		{Key: "native", Symbol: "ETH"},
		{Key: "usd-coin", Symbol: "USDC"},
	}
	assert.Equal(t, 3050.0, portfolioUsd(p, network, state, assets))
	assert.Equal(t, 0.0, portfolioUsd(p, network, watcher.State{}, assets))
}

func TestPaymentRequest(t *testing.T) {
	sess := testSession(t)
	network, ok := chains.ByID("polygon")
	require.True(t, ok)

	text := paymentRequest(sess, network)
	assert.Contains(t, text, "Payment request\nNetwork: Polygon\nTo: ")
	assert.Contains(t, text, "Amount: custom amount")
}

func TestAddressQR(t *testing.T) {
	qr := addressQR("0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5")
	assert.NotEmpty(t, qr)
}
