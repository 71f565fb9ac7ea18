package tui

import (
	"context"
	"fmt"
	"time"

	"cryptrail/pkg/chains"
	"cryptrail/pkg/prices"
	"cryptrail/pkg/session"
	"cryptrail/pkg/tx"
	"cryptrail/pkg/vault"
	"cryptrail/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	qrcode "github.com/skip2/go-qrcode"
)

// setupFlow carries the onboarding state across screens.
type setupFlow struct {
	setup     *vault.Setup
	creating  bool // generated here, as opposed to imported
	positions []int
}

// assetOptions lists what can be sent on the network: the native coin first,
// then every tracked token with a balance sheet entry.
func assetOptions(sess *session.Session, network *chains.Network) []tx.Asset {
	assets := []tx.Asset{{Key: "native", Symbol: network.Symbol, Decimals: 18}}
	for _, token := range sess.TrackedOn(network.ID) {
		assets = append(assets, tx.Asset{
			Key:      token.ID,
			Symbol:   token.Symbol,
			Decimals: token.Decimals,
			Contract: token.Contract,
		})
	}
	return assets
}

// paymentRequest composes a shareable request for the active address.
func paymentRequest(sess *session.Session, network *chains.Network) string {
	return fmt.Sprintf("Payment request\nNetwork: %s\nTo: %s\nAmount: custom amount",
		network.Name, sess.Vault.Address())
}

// amountOf digs a balance out of the current sheet, zero when unknown.
func amountOf(state watcher.State, key string) float64 {
	if state.Sheet == nil {
		return 0
	}
	return state.Sheet.Amounts()[key]
}

// usdValue converts an asset amount to fiat using the cached quotes. The
// native coin uses the network's coin id.
func usdValue(p *prices.Service, network *chains.Network, asset tx.Asset, amount float64) float64 {
	coinID := asset.Key
	if asset.Key == "native" {
		coinID = network.NativeCoinID
	}
	return amount * p.Price(coinID, asset.Symbol)
}

// portfolioUsd totals the sheet in fiat.
func portfolioUsd(p *prices.Service, network *chains.Network, state watcher.State, assets []tx.Asset) float64 {
	if state.Sheet == nil {
		return 0
	}
	amounts := state.Sheet.Amounts()
	total := 0.0
	for _, asset := range assets {
		total += usdValue(p, network, asset, amounts[asset.Key])
	}
	return total
}

func listenForWatcher(sub watcher.Subscriber) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// previewFeeCmd runs the fee estimate off the UI goroutine.
func previewFeeCmd(engine *tx.Engine, network *chains.Network, from, recipient, amount string, asset tx.Asset, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		est, err := engine.Preview(ctx, network, from, recipient, amount, asset)
		return feePreviewMsg{seq: seq, est: est, err: err}
	}
}

// sendCmd broadcasts the transfer off the UI goroutine.
func sendCmd(engine *tx.Engine, network *chains.Network, signer *vault.Signer, recipient, amount string, asset tx.Asset) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		entry, err := engine.Send(ctx, network, signer, recipient, amount, asset)
		return sendResultMsg{entry: entry, err: err}
	}
}

// unlockCmd runs the factor prompt and the passcode check off the UI
// goroutine; the key derivation is deliberately slow.
func unlockCmd(sess *session.Session, passcode string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := contextWithGateTimeout()
		defer cancel()
		return unlockResultMsg{err: sess.Unlock(ctx, passcode)}
	}
}

// addressQR renders the receive QR code, or "" when encoding fails.
func addressQR(address string) string {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return ""
	}
	return qr.ToSmallString(false)
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearStatusMsg{} })
}
