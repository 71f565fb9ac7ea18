package balance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cryptrail/pkg/chains"
	"cryptrail/pkg/rpc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const holder = "0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5"

// rpcStub answers eth_getBalance and eth_call with fixed hex quantities.
func rpcStub(t *testing.T, native string, tokenResults map[string]string, failCalls bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64  `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result string
		switch req.Method {
		case "eth_getBalance":
			result = native
		case "eth_call":
			if failCalls {
				_, _ = fmt.Fprintf(w, `{"id":%d,"error":{"code":-32000,"message":"execution reverted"}}`, req.ID)
				return
			}
			call := req.Params[0].(map[string]any)
			result = tokenResults[strings.ToLower(call["to"].(string))]
			data := call["data"].(string)
			assert.True(t, strings.HasPrefix(data, "0x70a08231"))
			assert.Contains(t, strings.ToLower(data), strings.ToLower(holder[2:]))
		default:
			t.Fatalf("unexpected method %s", req.Method)
		}
		_, _ = fmt.Fprintf(w, `{"id":%d,"result":"%s"}`, req.ID, result)
	}))
}

func testNetwork(url string) *chains.Network {
	return &chains.Network{ID: "testnet", Name: "Testnet", Symbol: "ETH", ChainID: 1337, Enabled: true, RPCURLs: []string{url}}
}

func TestFetchNativeAndTokens(t *testing.T) {
	usdc := "0x2791bca1f2de4661ed88a30c99a7a9449aa84174"
	server := rpcStub(t, "0xde0b6b3a7640000", map[string]string{ // 1 ETH
		usdc: "0x5f5e100", // 100000000 = 100 USDC at 6 decimals
	}, false)
	defer server.Close()

	engine := NewEngine(rpc.NewClient())
	tokens := []chains.NetworkToken{{ID: "usd-coin", Symbol: "USDC", Decimals: 6, Contract: usdc}}

	sheet, err := engine.Fetch(context.Background(), testNetwork(server.URL), holder, tokens)
	require.NoError(t, err)

	assert.Equal(t, 1.0, sheet.Native.Value)
	assert.Equal(t, "ETH", sheet.Native.Symbol)
	require.Len(t, sheet.Tokens, 1)
	assert.Equal(t, 100.0, sheet.Tokens[0].Value)

	amounts := sheet.Amounts()
	assert.Equal(t, 1.0, amounts["native"])
	assert.Equal(t, 100.0, amounts["usd-coin"])
}

func TestFetchAllOrNothing(t *testing.T) {
	usdc := "0x2791bca1f2de4661ed88a30c99a7a9449aa84174"
	server := rpcStub(t, "0xde0b6b3a7640000", nil, true)
	defer server.Close()

	engine := NewEngine(rpc.NewClient())
	tokens := []chains.NetworkToken{{ID: "usd-coin", Symbol: "USDC", Decimals: 6, Contract: usdc}}

	_, err := engine.Fetch(context.Background(), testNetwork(server.URL), holder, tokens)
	assert.ErrorIs(t, err, ErrBalanceFetch)
}

func TestTokenBalanceEmptyResultIsZero(t *testing.T) {
	usdc := "0x2791bca1f2de4661ed88a30c99a7a9449aa84174"
	server := rpcStub(t, "0x0", map[string]string{usdc: "0x"}, false)
	defer server.Close()

	engine := NewEngine(rpc.NewClient())
	raw, err := engine.TokenBalance(context.Background(), testNetwork(server.URL), usdc, holder)
	require.NoError(t, err)
	assert.Zero(t, raw.Sign())
}
