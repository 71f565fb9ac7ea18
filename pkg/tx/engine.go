// Package tx prepares, broadcasts, and follows outgoing transfers. Fee
// estimation and sending share one validation path so nothing malformed ever
// reaches an endpoint.
package tx

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"cryptrail/pkg/authgate"
	"cryptrail/pkg/chains"
	"cryptrail/pkg/ledger"
	"cryptrail/pkg/logger"
	"cryptrail/pkg/rpc"
	"cryptrail/pkg/utils"
	"cryptrail/pkg/vault"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	ErrInvalidRecipient = errors.New("invalid recipient address")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrSelfSend         = errors.New("recipient is the wallet's own address")
)

// transfer(address,uint256) selector: 0xa9059cbb
var transferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}

// gasPadNum/gasPadDen pad the node's gas estimate to 120%.
const (
	gasPadNum = 120
	gasPadDen = 100
)

// broadcastErrorLimit caps how much of a node error surfaces to the user.
const broadcastErrorLimit = 140

// confirmWait bounds how long the detached confirmation watch polls before
// giving up and leaving the entry pending.
const confirmWait = 3 * time.Minute

// Asset describes what is being sent. An empty Contract means the network's
// native coin.
type Asset struct {
	Key      string
	Symbol   string
	Decimals int
	Contract string
}

func (a Asset) native() bool { return a.Contract == "" }

// FeeEstimate is the preview shown before a send.
type FeeEstimate struct {
	GasLimit  uint64
	GasPrice  *big.Int
	FeeWei    *big.Int
	FeeNative float64
}

// Engine drives the transfer pipeline.
type Engine struct {
	client   *rpc.Client
	ledger   *ledger.Ledger
	gate     *authgate.Gate
	inFlight atomic.Int64

	// onConfirmed runs after a send confirms, off the caller's goroutine.
	onConfirmed func(hash string)
}

func NewEngine(client *rpc.Client, led *ledger.Ledger, gate *authgate.Gate) *Engine {
	return &Engine{client: client, ledger: led, gate: gate}
}

// OnConfirmed registers the post-confirmation hook, typically a balance
// refresh.
func (e *Engine) OnConfirmed(fn func(hash string)) { e.onConfirmed = fn }

// InFlight reports how many broadcasts are still waiting for confirmation.
func (e *Engine) InFlight() int { return int(e.inFlight.Load()) }

// validate normalizes the transfer inputs without touching the network.
func validate(from, recipient, amount string, asset Asset) (common.Address, *big.Int, error) {
	recipient = strings.TrimSpace(recipient)
	if !common.IsHexAddress(recipient) {
		return common.Address{}, nil, ErrInvalidRecipient
	}
	to := common.HexToAddress(recipient)
	if strings.EqualFold(recipient, from) {
		return common.Address{}, nil, ErrSelfSend
	}
	value, err := parseUnits(amount, asset.Decimals)
	if err != nil {
		return common.Address{}, nil, err
	}
	return to, value, nil
}

// callMsg builds the estimate/send shape for the transfer.
func callMsg(from, to common.Address, value *big.Int, asset Asset) ethereum.CallMsg {
	if asset.native() {
		return ethereum.CallMsg{From: from, To: &to, Value: value}
	}
	contract := common.HexToAddress(asset.Contract)
	data := make([]byte, 0, 4+64)
	data = append(data, transferSelector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(value.Bytes(), 32)...)
	return ethereum.CallMsg{From: from, To: &contract, Data: data}
}

// Preview estimates the fee for a transfer. Validation failures return before
// any endpoint is contacted.
func (e *Engine) Preview(ctx context.Context, network *chains.Network, from, recipient, amount string, asset Asset) (*FeeEstimate, error) {
	to, value, err := validate(from, recipient, amount, asset)
	if err != nil {
		return nil, err
	}

	client, err := e.client.DialWorking(ctx, network)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	gasPrice, err := e.client.FeeData(ctx, client, network)
	if err != nil {
		return nil, err
	}
	gasLimit, err := client.EstimateGas(ctx, callMsg(common.HexToAddress(from), to, value, asset))
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %s", utils.TruncateString(err.Error(), broadcastErrorLimit))
	}
	gasLimit = gasLimit * gasPadNum / gasPadDen

	feeWei := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPrice)
	feeNative, _ := new(big.Float).Quo(new(big.Float).SetInt(feeWei), big.NewFloat(1e18)).Float64()
	return &FeeEstimate{GasLimit: gasLimit, GasPrice: gasPrice, FeeWei: feeWei, FeeNative: feeNative}, nil
}

// Send broadcasts a transfer and records it. The approval gate runs before
// anything touches the network; a broadcast failure leaves no activity entry.
// Confirmation is followed on a detached goroutine that patches the entry.
func (e *Engine) Send(ctx context.Context, network *chains.Network, signer *vault.Signer, recipient, amount string, asset Asset) (ledger.Entry, error) {
	from := signer.Address()
	to, value, err := validate(from.Hex(), recipient, amount, asset)
	if err != nil {
		return ledger.Entry{}, err
	}

	if err := e.gate.Approve(ctx, authgate.ActionSend); err != nil {
		return ledger.Entry{}, err
	}

	client, err := e.client.DialWorking(ctx, network)
	if err != nil {
		return ledger.Entry{}, err
	}
	closeClient := true
	defer func() {
		if closeClient {
			client.Close()
		}
	}()

	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return ledger.Entry{}, broadcastError(err)
	}
	gasPrice, err := e.client.FeeData(ctx, client, network)
	if err != nil {
		return ledger.Entry{}, broadcastError(err)
	}
	msg := callMsg(from, to, value, asset)
	gasLimit, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return ledger.Entry{}, broadcastError(err)
	}
	gasLimit = gasLimit * gasPadNum / gasPadDen

	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       msg.To,
		Value:    msg.Value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     msg.Data,
	})
	signed, err := signer.SignTx(unsigned, big.NewInt(network.ChainID))
	if err != nil {
		return ledger.Entry{}, broadcastError(err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return ledger.Entry{}, broadcastError(err)
	}

	hash := signed.Hash().Hex()
	entry, err := e.ledger.Add(ledger.Entry{
		Kind:              ledger.KindSend,
		Direction:         ledger.DirectionWithdrawal,
		Hash:              hash,
		Status:            ledger.StatusBroadcasted,
		NetworkName:       network.Name,
		ExplorerTxBaseURL: network.ExplorerTxBaseURL,
		Symbol:            asset.Symbol,
		Amount:            amount,
		FromAddress:       from.Hex(),
		ToAddress:         to.Hex(),
	})
	if err != nil {
		logger.Tx.Warn().Str("hash", hash).Err(err).Msg("activity record failed")
	}
	logger.Tx.Info().Str("hash", hash).Str("network", network.ID).Str("symbol", asset.Symbol).Msg("broadcasted")

	// The goroutine owns the client from here.
	closeClient = false
	e.inFlight.Add(1)
	go e.watchConfirmation(client, signed, hash)

	return entry, nil
}

// watchConfirmation waits for one confirmation, then patches the activity
// entry. Wait failures leave the entry pending rather than guessing.
func (e *Engine) watchConfirmation(client *ethclient.Client, signed *types.Transaction, hash string) {
	defer e.inFlight.Add(-1)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), confirmWait)
	defer cancel()

	receipt, err := bind.WaitMined(ctx, client, signed)
	if err != nil || receipt.Status != types.ReceiptStatusSuccessful {
		logger.Tx.Warn().Str("hash", hash).Err(err).Msg("confirmation wait failed")
		_ = e.ledger.PatchStatus(hash, ledger.StatusPendingConfirm)
		return
	}
	_ = e.ledger.PatchStatus(hash, ledger.StatusConfirmed)
	logger.Tx.Info().Str("hash", hash).Msg("confirmed")
	if e.onConfirmed != nil {
		e.onConfirmed(hash)
	}
}

func broadcastError(err error) error {
	return fmt.Errorf("send failed: %s", utils.TruncateString(err.Error(), broadcastErrorLimit))
}
