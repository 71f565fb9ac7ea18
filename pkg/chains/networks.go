// Package chains holds the static network registry and token catalog.
// Both are immutable: they are compiled in and loaded once at startup.
package chains

// Network describes a supported chain. A zero ChainID marks a network that is
// listed but not yet active (no EVM endpoint to talk to).
type Network struct {
	ID                string
	NativeCoinID      string // CoinGecko id of the native coin
	Name              string
	Symbol            string
	ChainID           int64
	Enabled           bool
	ExplorerTxBaseURL string
	RPCURLs           []string
}

// ExplorerTxURL returns the block-explorer link for a transaction hash.
func (n *Network) ExplorerTxURL(hash string) string {
	return n.ExplorerTxBaseURL + hash
}

var registry = []Network{
	{
		ID:                "polygon",
		NativeCoinID:      "polygon-ecosystem-token",
		Name:              "Polygon",
		Symbol:            "POL",
		ChainID:           137,
		Enabled:           true,
		ExplorerTxBaseURL: "https://polygonscan.com/tx/",
		RPCURLs:           []string{"https://polygon-rpc.com", "https://polygon-bor-rpc.publicnode.com"},
	},
	{
		ID:                "ethereum",
		NativeCoinID:      "ethereum",
		Name:              "Ethereum",
		Symbol:            "ETH",
		ChainID:           1,
		Enabled:           true,
		ExplorerTxBaseURL: "https://etherscan.io/tx/",
		RPCURLs:           []string{"https://ethereum-rpc.publicnode.com", "https://eth.llamarpc.com"},
	},
	{
		ID:                "base",
		NativeCoinID:      "ethereum",
		Name:              "Base",
		Symbol:            "ETH",
		ChainID:           8453,
		Enabled:           true,
		ExplorerTxBaseURL: "https://basescan.org/tx/",
		RPCURLs:           []string{"https://mainnet.base.org", "https://base-rpc.publicnode.com"},
	},
	{
		ID:                "bsc",
		NativeCoinID:      "binancecoin",
		Name:              "BNB Chain",
		Symbol:            "BNB",
		ChainID:           56,
		Enabled:           true,
		ExplorerTxBaseURL: "https://bscscan.com/tx/",
		RPCURLs:           []string{"https://bsc-dataseed.binance.org", "https://bsc-rpc.publicnode.com"},
	},
	{
		ID:                "arbitrum",
		NativeCoinID:      "ethereum",
		Name:              "Arbitrum",
		Symbol:            "ETH",
		ChainID:           42161,
		Enabled:           true,
		ExplorerTxBaseURL: "https://arbiscan.io/tx/",
		RPCURLs:           []string{"https://arb1.arbitrum.io/rpc", "https://arbitrum-one-rpc.publicnode.com"},
	},
	{
		ID:                "optimism",
		NativeCoinID:      "ethereum",
		Name:              "Optimism",
		Symbol:            "ETH",
		ChainID:           10,
		Enabled:           true,
		ExplorerTxBaseURL: "https://optimistic.etherscan.io/tx/",
		RPCURLs:           []string{"https://mainnet.optimism.io", "https://optimism-rpc.publicnode.com"},
	},
	{
		ID:                "avalanche",
		NativeCoinID:      "avalanche-2",
		Name:              "Avalanche",
		Symbol:            "AVAX",
		ChainID:           43114,
		Enabled:           true,
		ExplorerTxBaseURL: "https://snowtrace.io/tx/",
		RPCURLs:           []string{"https://api.avax.network/ext/bc/C/rpc", "https://avalanche-c-chain-rpc.publicnode.com"},
	},
	{
		ID:                "solana",
		NativeCoinID:      "solana",
		Name:              "Solana",
		Symbol:            "SOL",
		Enabled:           false,
		ExplorerTxBaseURL: "https://solscan.io/tx/",
	},
	{
		ID:                "tron",
		NativeCoinID:      "tron",
		Name:              "Tron",
		Symbol:            "TRX",
		Enabled:           false,
		ExplorerTxBaseURL: "https://tronscan.org/#/transaction/",
	},
}

// legacyNetworkIDs maps network ids from older vault records to their current
// names.
var legacyNetworkIDs = map[string]string{
	"matic": "polygon",
}

// All returns every registered network, active or not.
func All() []Network {
	out := make([]Network, len(registry))
	copy(out, registry)
	return out
}

// Active returns the networks that can actually be selected.
func Active() []Network {
	var out []Network
	for _, n := range registry {
		if n.Enabled {
			out = append(out, n)
		}
	}
	return out
}

// ByID looks up an active network by id.
func ByID(id string) (*Network, bool) {
	for i := range registry {
		if registry[i].ID == id && registry[i].Enabled {
			return &registry[i], true
		}
	}
	return nil, false
}

// Default returns the first active network.
func Default() *Network {
	for i := range registry {
		if registry[i].Enabled {
			return &registry[i]
		}
	}
	return &registry[0]
}

// ResolveSaved maps a persisted network id onto a currently active network,
// translating legacy ids and falling back to the default when the saved id is
// unknown or disabled.
func ResolveSaved(id string) *Network {
	if mapped, ok := legacyNetworkIDs[id]; ok {
		id = mapped
	}
	if n, ok := ByID(id); ok {
		return n
	}
	return Default()
}
