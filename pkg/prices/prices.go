// Package prices keeps a USD quote cache for the tracked assets. Quotes come
// from CoinGecko when reachable and fall back to a static table so the UI can
// always show an approximate fiat value.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// BaseURL is a variable so tests can point the service at a local server.
var BaseURL = "https://api.coingecko.com/api/v3"

// fallbackUsd approximates prices for the native coins and stables when no
// live quote has ever arrived.
var fallbackUsd = map[string]float64{
	"ETH":  3000,
	"POL":  0.8,
	"BNB":  500,
	"AVAX": 30,
	"SOL":  120,
	"TRX":  0.12,
	"USDC": 1,
	"USDT": 1,
}

// Quote is one cached price point.
type Quote struct {
	Usd       float64 `json:"usd"`
	Change24h float64 `json:"change24h"`
	Live      bool    `json:"live"`
}

// Service caches quotes keyed by CoinGecko coin id.
type Service struct {
	http *http.Client

	mu     sync.Mutex
	quotes map[string]Quote
	// symbols maps ticker symbols onto coin ids for fallback lookups.
	symbols map[string]string
}

func NewService() *Service {
	return &Service{
		http:    &http.Client{Timeout: 10 * time.Second},
		quotes:  make(map[string]Quote),
		symbols: make(map[string]string),
	}
}

// BindSymbol associates a ticker symbol with a coin id so the fallback table
// can seed a quote before the first live fetch.
func (s *Service) BindSymbol(symbol, coinID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols[strings.ToUpper(symbol)] = coinID
	if _, ok := s.quotes[coinID]; !ok {
		if usd, ok := fallbackUsd[strings.ToUpper(symbol)]; ok {
			s.quotes[coinID] = Quote{Usd: usd}
		}
	}
}

// Refresh fetches quotes for the given coin ids. Ids missing from the
// response keep their previous cached value; a transport failure leaves the
// whole cache untouched.
func (s *Service) Refresh(ctx context.Context, coinIDs []string) error {
	if len(coinIDs) == 0 {
		return nil
	}
	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		BaseURL, url.QueryEscape(strings.Join(coinIDs, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("price fetch: status %d", resp.StatusCode)
	}

	var result map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, fields := range result {
		usd, ok := fields["usd"]
		if !ok {
			continue
		}
		s.quotes[id] = Quote{
			Usd:       usd,
			Change24h: fields["usd_24h_change"],
			Live:      true,
		}
	}
	return nil
}

// Price returns the cached USD price for a coin id, consulting the fallback
// table by symbol when nothing is cached. Unknown assets quote at zero.
func (s *Service) Price(coinID, symbol string) float64 {
	q, ok := s.lookup(coinID)
	if ok {
		return q.Usd
	}
	return fallbackUsd[strings.ToUpper(symbol)]
}

// Change returns the cached 24h change percentage, zero when unknown.
func (s *Service) Change(coinID string) float64 {
	q, _ := s.lookup(coinID)
	return q.Change24h
}

func (s *Service) lookup(coinID string) (Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[coinID]
	return q, ok
}

// Snapshot copies the current cache for the UI.
func (s *Service) Snapshot() map[string]Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Quote, len(s.quotes))
	for id, q := range s.quotes {
		out[id] = q
	}
	return out
}
