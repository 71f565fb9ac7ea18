// Package balance reads on-chain balances for the wallet address and turns
// successive reads into deposit events by diffing persisted snapshots.
package balance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"cryptrail/pkg/chains"
	"cryptrail/pkg/logger"
	"cryptrail/pkg/rpc"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"
)

// ErrBalanceFetch means the refresh could not produce a complete result. A
// partial set is never returned; stale-but-consistent beats fresh-but-holey.
var ErrBalanceFetch = errors.New("balance fetch failed")

// balanceOf(address) selector: 0x70a08231
var balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

// Amount is one asset's balance resolved to a float for display and diffing.
type Amount struct {
	Key      string  // "native" or the token's coin id
	Symbol   string
	Value    float64
	Raw      *big.Int
	Decimals int
}

// Sheet is a complete balance read for one network.
type Sheet struct {
	NetworkID string
	Native    Amount
	Tokens    []Amount
}

// Amounts flattens the sheet into the key -> value map the snapshot diff
// operates on.
func (s *Sheet) Amounts() map[string]float64 {
	out := make(map[string]float64, len(s.Tokens)+1)
	out[s.Native.Key] = s.Native.Value
	for _, t := range s.Tokens {
		out[t.Key] = t.Value
	}
	return out
}

// Engine reads balances over the fallback RPC client.
type Engine struct {
	client *rpc.Client
}

func NewEngine(client *rpc.Client) *Engine {
	return &Engine{client: client}
}

// Fetch reads the native balance and every tracked token concurrently. Any
// single failure fails the whole read.
func (e *Engine) Fetch(ctx context.Context, network *chains.Network, address string, tokens []chains.NetworkToken) (*Sheet, error) {
	sheet := &Sheet{
		NetworkID: network.ID,
		Tokens:    make([]Amount, len(tokens)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := e.client.CallBig(ctx, network, "eth_getBalance", address, "latest")
		if err != nil {
			return err
		}
		sheet.Native = Amount{
			Key:      "native",
			Symbol:   network.Symbol,
			Value:    toFloat(raw, 18),
			Raw:      raw,
			Decimals: 18,
		}
		return nil
	})
	for i, token := range tokens {
		g.Go(func() error {
			raw, err := e.TokenBalance(ctx, network, token.Contract, address)
			if err != nil {
				return err
			}
			sheet.Tokens[i] = Amount{
				Key:      token.ID,
				Symbol:   token.Symbol,
				Value:    toFloat(raw, token.Decimals),
				Raw:      raw,
				Decimals: token.Decimals,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Balance.Warn().Str("network", network.ID).Err(err).Msg("refresh failed")
		return nil, fmt.Errorf("%w: %v", ErrBalanceFetch, err)
	}
	return sheet, nil
}

// TokenBalance reads balanceOf(holder) on an ERC-20 contract via eth_call.
func (e *Engine) TokenBalance(ctx context.Context, network *chains.Network, contract, holder string) (*big.Int, error) {
	data := make([]byte, 0, 4+32)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(holder).Bytes(), 32)...)

	call := map[string]string{
		"to":   contract,
		"data": hexutil.Encode(data),
	}
	raw, err := e.client.Call(ctx, network, "eth_call", call, "latest")
	if err != nil {
		return nil, err
	}
	return decodeCallBig(raw)
}

func decodeCallBig(raw []byte) (*big.Int, error) {
	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		return nil, fmt.Errorf("decode call result: %w", err)
	}
	hex = strings.TrimPrefix(hex, "0x")
	if hex == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return nil, fmt.Errorf("malformed call result %q", hex)
	}
	return value, nil
}

func toFloat(raw *big.Int, decimals int) float64 {
	f := new(big.Float).SetInt(raw)
	div := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	out, _ := new(big.Float).Quo(f, div).Float64()
	return out
}
