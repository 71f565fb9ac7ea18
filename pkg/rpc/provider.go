package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"cryptrail/pkg/chains"
	"cryptrail/pkg/logger"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrProviderUnavailable means no endpoint answered the liveness probe.
var ErrProviderUnavailable = errors.New("no available rpc provider")

// DialWorking returns a client for the first endpoint that answers a block
// height probe. The caller owns Close.
func (c *Client) DialWorking(ctx context.Context, network *chains.Network) (*ethclient.Client, error) {
	var lastErr error
	for _, url := range network.RPCURLs {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		if _, err := client.BlockNumber(ctx); err != nil {
			client.Close()
			logger.RPC.Debug().Str("url", url).Err(err).Msg("provider probe failed")
			lastErr = err
			continue
		}
		return client, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no endpoints configured")
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, network.ID, lastErr)
}

// FeeData returns a gas price for the network, preferring the connected
// provider's structured suggestion and falling back to a raw eth_gasPrice
// query through the fallback pass.
func (c *Client) FeeData(ctx context.Context, client *ethclient.Client, network *chains.Network) (*big.Int, error) {
	if client != nil {
		if price, err := client.SuggestGasPrice(ctx); err == nil && price != nil && price.Sign() > 0 {
			return price, nil
		}
	}
	return c.CallBig(ctx, network, "eth_gasPrice")
}

// GasPrice fetches the current gas price through the fallback pass.
func (c *Client) GasPrice(ctx context.Context, network *chains.Network) (*big.Int, error) {
	return c.CallBig(ctx, network, "eth_gasPrice")
}
