// Package watcher runs the background polling loops: balances and gas on the
// refresh interval, prices on their own slower interval. Deposits detected by
// the snapshot diff are recorded into the activity ledger and broadcast to
// subscribers.
package watcher

import (
	"context"
	"math/big"
	"sync"
	"time"

	"cryptrail/pkg/balance"
	"cryptrail/pkg/chains"
	"cryptrail/pkg/ledger"
	"cryptrail/pkg/logger"
	"cryptrail/pkg/prices"
	"cryptrail/pkg/rpc"
	"cryptrail/pkg/session"
	"cryptrail/pkg/utils"
)

// gasHistoryLen bounds the sparkline buffer.
const gasHistoryLen = 60

// DataSource defines the interface for fetching chain data.
type DataSource interface {
	FetchSheet(ctx context.Context, network *chains.Network, address string, tokens []chains.NetworkToken) (*balance.Sheet, error)
	FetchGasPrice(ctx context.Context, network *chains.Network) (*big.Int, error)
	RefreshPrices(ctx context.Context, coinIDs []string) error
}

// RealDataSource implements DataSource over the rpc and prices packages.
type RealDataSource struct {
	Engine *balance.Engine
	Client *rpc.Client
	Prices *prices.Service
}

func (d *RealDataSource) FetchSheet(ctx context.Context, network *chains.Network, address string, tokens []chains.NetworkToken) (*balance.Sheet, error) {
	return d.Engine.Fetch(ctx, network, address, tokens)
}

func (d *RealDataSource) FetchGasPrice(ctx context.Context, network *chains.Network) (*big.Int, error) {
	return d.Client.GasPrice(ctx, network)
}

func (d *RealDataSource) RefreshPrices(ctx context.Context, coinIDs []string) error {
	return d.Prices.Refresh(ctx, coinIDs)
}

// State is the versioned snapshot handed to consumers. Stale means the last
// refresh failed and the amounts shown are from an earlier pass.
type State struct {
	Version    uint64
	Sheet      *balance.Sheet
	GasPrice   *big.Int
	GasHistory []float64 // gwei
	Stale      bool
	UpdatedAt  time.Time
}

// Watcher manages the background monitoring loops.
type Watcher struct {
	session         *session.Session
	refreshInterval time.Duration
	priceInterval   time.Duration

	mu          sync.RWMutex
	state       State
	subscribers []Subscriber
	dataSource  DataSource

	refreshNow chan struct{}
	stopOnce   sync.Once
	stopChan   chan struct{}
}

func New(sess *session.Session, ds DataSource, refreshInterval, priceInterval time.Duration) *Watcher {
	return &Watcher{
		session:         sess,
		dataSource:      ds,
		refreshInterval: refreshInterval,
		priceInterval:   priceInterval,
		refreshNow:      make(chan struct{}, 1),
		stopChan:        make(chan struct{}),
	}
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (w *Watcher) Subscribe() Subscriber {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := make(Subscriber, 100)
	w.subscribers = append(w.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (w *Watcher) Unsubscribe(ch Subscriber) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, sub := range w.subscribers {
		if sub == ch {
			w.subscribers = append(w.subscribers[:i], w.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (w *Watcher) notify(event Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, sub := range w.subscribers {
		select {
		case sub <- event:
		default:
			// Slow subscriber, drop the event.
		}
	}
}

// Start begins the polling loops.
func (w *Watcher) Start(ctx context.Context) {
	go w.refreshLoop(ctx)
	go w.priceLoop(ctx)
}

// Stop stops the loops.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

// RefreshNow schedules an immediate balance refresh off the caller's
// goroutine. Coalesces when one is already queued.
func (w *Watcher) RefreshNow() {
	select {
	case w.refreshNow <- struct{}{}:
	default:
	}
}

// State returns the current versioned state.
func (w *Watcher) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.state
	s.GasHistory = append([]float64(nil), w.state.GasHistory...)
	return s
}

func (w *Watcher) refreshLoop(ctx context.Context) {
	w.refresh(ctx)

	ticker := time.NewTicker(w.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.refresh(ctx)
		case <-w.refreshNow:
			w.refresh(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) priceLoop(ctx context.Context) {
	w.refreshPrices(ctx)

	ticker := time.NewTicker(w.priceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.refreshPrices(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// refresh fetches balances and gas for the active network. A failed balance
// read marks the state stale instead of clobbering the last good amounts.
func (w *Watcher) refresh(ctx context.Context) {
	address := w.session.Vault.Address()
	if address == "" {
		return
	}
	network := w.session.Network()
	tokens := w.session.TrackedOn(network.ID)

	sheet, err := w.dataSource.FetchSheet(ctx, network, address, tokens)
	if err != nil {
		logger.Watcher.Warn().Str("network", network.ID).Err(err).Msg("balance refresh failed")
		w.mu.Lock()
		w.state.Stale = true
		w.state.Version++
		w.mu.Unlock()
		w.notify(Event{Type: EventBalancesUpdated})
	} else {
		deposits, derr := w.session.Snapshots.Apply(network.ID, sheet.Amounts())
		if derr != nil {
			logger.Watcher.Warn().Err(derr).Msg("snapshot persist failed")
		}
		w.mu.Lock()
		w.state.Sheet = sheet
		w.state.Stale = false
		w.state.UpdatedAt = time.Now()
		w.state.Version++
		w.mu.Unlock()
		w.notify(Event{Type: EventBalancesUpdated, Data: sheet})
		w.recordDeposits(network, sheet, deposits, address)
	}

	gasPrice, err := w.dataSource.FetchGasPrice(ctx, network)
	if err != nil {
		logger.Watcher.Debug().Str("network", network.ID).Err(err).Msg("gas price fetch failed")
		return
	}
	gwei, _ := new(big.Float).Quo(new(big.Float).SetInt(gasPrice), big.NewFloat(1e9)).Float64()
	w.mu.Lock()
	w.state.GasPrice = gasPrice
	w.state.GasHistory = append(w.state.GasHistory, gwei)
	if len(w.state.GasHistory) > gasHistoryLen {
		w.state.GasHistory = w.state.GasHistory[len(w.state.GasHistory)-gasHistoryLen:]
	}
	w.state.Version++
	w.mu.Unlock()
	w.notify(Event{Type: EventGasUpdated, Data: gasPrice})
}

// recordDeposits turns snapshot deltas into receive entries.
func (w *Watcher) recordDeposits(network *chains.Network, sheet *balance.Sheet, deposits []balance.Deposit, address string) {
	if len(deposits) == 0 {
		return
	}
	symbols := map[string]string{sheet.Native.Key: sheet.Native.Symbol}
	for _, t := range sheet.Tokens {
		symbols[t.Key] = t.Symbol
	}
	var recorded []ledger.Entry
	for _, d := range deposits {
		entry := ledger.Entry{
			Kind:              ledger.KindReceive,
			Direction:         ledger.DirectionDeposit,
			Status:            d.Status,
			NetworkName:       network.Name,
			ExplorerTxBaseURL: network.ExplorerTxBaseURL,
			Symbol:            symbols[d.Key],
			Amount:            utils.FormatAmount(d.Amount),
			ToAddress:         address,
		}
		saved, err := w.session.Ledger.Add(entry)
		if err != nil {
			logger.Watcher.Warn().Err(err).Msg("deposit record failed")
			continue
		}
		logger.Watcher.Info().Str("symbol", entry.Symbol).Float64("amount", d.Amount).Str("status", d.Status).Msg("deposit")
		recorded = append(recorded, saved)
	}
	if len(recorded) > 0 {
		w.notify(Event{Type: EventDepositDetected, Data: recorded})
	}
	w.notify(Event{Type: EventActivityUpdated})
}

// refreshPrices fetches quotes for the native coins plus the tracked tokens.
func (w *Watcher) refreshPrices(ctx context.Context) {
	unique := map[string]bool{}
	for _, network := range chains.Active() {
		if network.NativeCoinID != "" {
			unique[network.NativeCoinID] = true
		}
	}
	for _, id := range w.session.TrackedTokenIDs() {
		unique[id] = true
	}
	coinIDs := make([]string, 0, len(unique))
	for id := range unique {
		coinIDs = append(coinIDs, id)
	}

	if err := w.dataSource.RefreshPrices(ctx, coinIDs); err != nil {
		logger.Watcher.Debug().Err(err).Msg("price refresh failed")
		return
	}
	w.mu.Lock()
	w.state.Version++
	w.mu.Unlock()
	w.notify(Event{Type: EventPricesUpdated})
}
