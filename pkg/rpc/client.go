// Package rpc talks JSON-RPC to a network's endpoints. Every call walks the
// endpoint list strictly in order and stops at the first well-formed,
// error-free response; there is no retry beyond that single pass and no
// endpoint stickiness between calls.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"cryptrail/pkg/chains"
	"cryptrail/pkg/logger"
)

// ErrUnavailable means every configured endpoint for the network failed. It
// wraps the last endpoint's error.
var ErrUnavailable = errors.New("rpc unavailable")

const requestTimeout = 30 * time.Second

// Client issues JSON-RPC calls with per-network endpoint fallback.
type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: requestTimeout}}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call runs one fallback pass over the network's endpoints. A transport
// failure, a non-2xx status, or a JSON-RPC error field all advance to the
// next endpoint; if none succeeds the last error comes back wrapped in
// ErrUnavailable.
func (c *Client) Call(ctx context.Context, network *chains.Network, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	var lastErr error
	for _, url := range network.RPCURLs {
		result, err := c.callOne(ctx, url, method, params)
		if err == nil {
			return result, nil
		}
		logger.RPC.Debug().Str("url", url).Str("method", method).Err(err).Msg("endpoint failed")
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no endpoints configured")
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, network.ID, lastErr)
}

func (c *Client) callOne(ctx context.Context, url, method string, params []any) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      time.Now().UnixMilli(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	var body rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Error != nil {
		return nil, body.Error
	}
	return body.Result, nil
}

// CallBig runs Call and decodes a hex-quantity result.
func (c *Client) CallBig(ctx context.Context, network *chains.Network, method string, params ...any) (*big.Int, error) {
	raw, err := c.Call(ctx, network, method, params...)
	if err != nil {
		return nil, err
	}
	return decodeHexBig(raw)
}

func decodeHexBig(raw json.RawMessage) (*big.Int, error) {
	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		return nil, fmt.Errorf("decode hex result: %w", err)
	}
	hex = strings.TrimPrefix(hex, "0x")
	if hex == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return nil, fmt.Errorf("malformed hex quantity %q", hex)
	}
	return value, nil
}
