package tx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cryptrail/pkg/authgate"
	"cryptrail/pkg/chains"
	"cryptrail/pkg/ledger"
	"cryptrail/pkg/rpc"
	"cryptrail/pkg/storage"
	"cryptrail/pkg/vault"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	senderKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	recipient = "0x0000000000000000000000000000000000000002"
)

func testSigner(t *testing.T) *vault.Signer {
	t.Helper()
	v, err := vault.Open(storage.NewMemStore())
	require.NoError(t, err)
	s := vault.NewSetup()
	require.NoError(t, s.ImportPrivateKey(senderKey))
	require.NoError(t, s.ChoosePasscode("123456", "123456"))
	require.NoError(t, s.VerifyPrivateKeyChallenge("123456", senderKey))
	require.NoError(t, s.Seal(v, "testnet"))
	signer, err := v.Signer()
	require.NoError(t, err)
	return signer
}

func openGate(t *testing.T, store storage.Store) *authgate.Gate {
	t.Helper()
	return authgate.Open(store, authgate.NoopAuthenticator{}, time.Minute, "")
}

// nodeStub emulates the handful of JSON-RPC methods the pipeline uses.
type nodeStub struct {
	server   *httptest.Server
	hits     atomic.Int64
	txHash   atomic.Value
	mined    bool
	failSend bool
}

func newNodeStub(t *testing.T, mined bool) *nodeStub {
	n := &nodeStub{mined: mined}
	n.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.hits.Add(1)
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params []any           `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		reply := func(result string) {
			_, _ = fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
		}
		switch req.Method {
		case "eth_blockNumber":
			reply(`"0x10"`)
		case "eth_getTransactionCount":
			reply(`"0x7"`)
		case "eth_gasPrice":
			reply(`"0x3b9aca00"`) // 1 gwei
		case "eth_estimateGas":
			reply(`"0x5208"`) // 21000
		case "eth_sendRawTransaction":
			if n.failSend {
				_, _ = fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32000,"message":"%s"}}`,
					req.ID, strings.Repeat("insufficient funds ", 20))
				return
			}
			raw := req.Params[0].(string)
			assert.True(t, strings.HasPrefix(raw, "0x"))
			reply(`"0x00"`)
		case "eth_getTransactionReceipt":
			hash, _ := n.txHash.Load().(string)
			if !n.mined || hash == "" {
				reply(`null`)
				return
			}
			receipt := fmt.Sprintf(`{"status":"0x1","cumulativeGasUsed":"0x5208","gasUsed":"0x5208","logs":[],"logsBloom":"0x%s","transactionHash":"%s","blockHash":"0x%s","blockNumber":"0x11","transactionIndex":"0x0","type":"0x0"}`,
				strings.Repeat("00", 256), hash, strings.Repeat("11", 32))
			reply(receipt)
		default:
			t.Fatalf("unexpected method %s", req.Method)
		}
	}))
	return n
}

func (n *nodeStub) network() *chains.Network {
	return &chains.Network{ID: "testnet", Name: "Testnet", Symbol: "ETH", ChainID: 1337, Enabled: true,
		ExplorerTxBaseURL: "https://example.org/tx/", RPCURLs: []string{n.server.URL}}
}

func TestParseUnits(t *testing.T) {
	cases := []struct {
		in       string
		decimals int
		want     string
		ok       bool
	}{
		{"1", 18, "1000000000000000000", true},
		{"0.5", 18, "500000000000000000", true},
		{".25", 6, "250000", true},
		{"100", 6, "100000000", true},
		{"0.000001", 6, "1", true},
		{"0.0000001", 6, "", false},
		{"0", 18, "", false},
		{"", 18, "", false},
		{"-1", 18, "", false},
		{"1e5", 18, "", false},
		{"1,5", 18, "", false},
		{"abc", 18, "", false},
	}
	for _, tc := range cases {
		got, err := parseUnits(tc.in, tc.decimals)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got.String(), "input %q", tc.in)
	}
}

func TestValidationNeverTouchesNetwork(t *testing.T) {
	node := newNodeStub(t, false)
	defer node.server.Close()

	store := storage.NewMemStore()
	engine := NewEngine(rpc.NewClient(), ledger.Open(store), openGate(t, store))
	signer := testSigner(t)
	asset := Asset{Key: "native", Symbol: "ETH", Decimals: 18}

	_, err := engine.Send(context.Background(), node.network(), signer, "not-an-address", "1", asset)
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	_, err = engine.Send(context.Background(), node.network(), signer, recipient, "nope", asset)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	self := strings.ToLower(signer.Address().Hex())
	_, err = engine.Send(context.Background(), node.network(), signer, self, "1", asset)
	assert.ErrorIs(t, err, ErrSelfSend)

	_, err = engine.Preview(context.Background(), node.network(), signer.Address().Hex(), recipient, "-3", asset)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Zero(t, node.hits.Load())
}

func TestPreviewPadsGas(t *testing.T) {
	node := newNodeStub(t, false)
	defer node.server.Close()

	store := storage.NewMemStore()
	engine := NewEngine(rpc.NewClient(), ledger.Open(store), openGate(t, store))
	signer := testSigner(t)

	est, err := engine.Preview(context.Background(), node.network(), signer.Address().Hex(), recipient, "0.5", Asset{Key: "native", Symbol: "ETH", Decimals: 18})
	require.NoError(t, err)

	assert.Equal(t, uint64(21000*120/100), est.GasLimit)
	assert.Equal(t, big.NewInt(1_000_000_000), est.GasPrice)
	wantFee := new(big.Int).Mul(big.NewInt(25200), big.NewInt(1_000_000_000))
	assert.Equal(t, wantFee, est.FeeWei)
	assert.InDelta(t, 0.0000252, est.FeeNative, 1e-12)
}

func TestSendRecordsAndConfirms(t *testing.T) {
	node := newNodeStub(t, true)
	defer node.server.Close()

	store := storage.NewMemStore()
	led := ledger.Open(store)
	engine := NewEngine(rpc.NewClient(), led, openGate(t, store))
	signer := testSigner(t)

	confirmed := make(chan string, 1)
	engine.OnConfirmed(func(hash string) { confirmed <- hash })

	entry, err := engine.Send(context.Background(), node.network(), signer, recipient, "0.5",
		Asset{Key: "native", Symbol: "ETH", Decimals: 18})
	require.NoError(t, err)
	node.txHash.Store(entry.Hash)

	assert.Equal(t, ledger.StatusBroadcasted, entry.Status)
	assert.Equal(t, ledger.KindSend, entry.Kind)
	assert.Equal(t, ledger.DirectionWithdrawal, entry.Direction)
	assert.Equal(t, "0.5", entry.Amount)
	assert.Equal(t, signer.Address().Hex(), entry.FromAddress)
	assert.Equal(t, "https://example.org/tx/", entry.ExplorerTxBaseURL)

	select {
	case hash := <-confirmed:
		assert.Equal(t, entry.Hash, hash)
	case <-time.After(10 * time.Second):
		t.Fatal("confirmation hook never fired")
	}

	require.Eventually(t, func() bool {
		return led.Entries()[0].Status == ledger.StatusConfirmed
	}, 5*time.Second, 50*time.Millisecond)
	assert.Zero(t, engine.InFlight())
}

func TestBroadcastFailureLeavesNoEntry(t *testing.T) {
	node := newNodeStub(t, false)
	node.failSend = true
	defer node.server.Close()

	store := storage.NewMemStore()
	led := ledger.Open(store)
	engine := NewEngine(rpc.NewClient(), led, openGate(t, store))
	signer := testSigner(t)

	_, err := engine.Send(context.Background(), node.network(), signer, recipient, "0.5",
		Asset{Key: "native", Symbol: "ETH", Decimals: 18})
	require.Error(t, err)
	// Node errors are clipped before they reach the user.
	assert.LessOrEqual(t, len(err.Error()), len("send failed: ")+broadcastErrorLimit+3)
	assert.Empty(t, led.Entries())
	assert.Zero(t, engine.InFlight())
}

func TestGateDeniesBeforeNetwork(t *testing.T) {
	node := newNodeStub(t, false)
	defer node.server.Close()

	signer := testSigner(t)
	store := storage.NewMemStore()
	gate := authgate.Open(store, denyAuth{}, time.Minute, signer.Address().Hex())
	require.NoError(t, gate.Enable(context.Background(), signer.Address().Hex()))

	led := ledger.Open(store)
	engine := NewEngine(rpc.NewClient(), led, gate)

	_, err := engine.Send(context.Background(), node.network(), signer, recipient, "0.5",
		Asset{Key: "native", Symbol: "ETH", Decimals: 18})
	assert.ErrorIs(t, err, authgate.ErrAuthDenied)
	assert.Zero(t, node.hits.Load())
	assert.Empty(t, led.Entries())
}

func TestTokenTransferCallData(t *testing.T) {
	to := "0x0000000000000000000000000000000000000002"
	asset := Asset{Key: "usd-coin", Symbol: "USDC", Decimals: 6, Contract: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"}
	value, err := parseUnits("25", 6)
	require.NoError(t, err)

	msg := callMsg(common.HexToAddress("0x0000000000000000000000000000000000000001"), common.HexToAddress(to), value, asset)
	require.NotNil(t, msg.To)
	assert.Equal(t, asset.Contract, msg.To.Hex())
	assert.Nil(t, msg.Value)
	require.Len(t, msg.Data, 4+64)
	assert.Equal(t, transferSelector, msg.Data[:4])
	// 25 USDC = 25000000 = 0x17d7840, right-aligned in the second word.
	assert.Equal(t, byte(0x01), msg.Data[4+32+28])
	assert.Equal(t, byte(0x7d), msg.Data[4+32+29])
	assert.Equal(t, byte(0x78), msg.Data[4+32+30])
	assert.Equal(t, byte(0x40), msg.Data[4+32+31])
}

type denyAuth struct{}

func (denyAuth) Register(ctx context.Context, address string) (string, error) { return "cred", nil }
func (denyAuth) Verify(ctx context.Context, credentialID, action string) (bool, error) {
	return false, errors.New("declined")
}
