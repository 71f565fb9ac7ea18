package chains

// Token is a catalog entry. A token is usable on a network only when it has a
// contract address for that network id.
type Token struct {
	ID        string
	Symbol    string
	Name      string
	Decimals  int
	Contracts map[string]string // network id -> contract address
}

// NetworkToken is a catalog token resolved against one network.
type NetworkToken struct {
	ID       string
	Symbol   string
	Name     string
	Decimals int
	Contract string
}

// DefaultTrackedTokenIDs is the tracked set used until the user customizes it.
var DefaultTrackedTokenIDs = []string{"usd-coin", "tether", "wrapped-bitcoin", "chainlink", "dai", "uniswap"}

var catalog = []Token{
	{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Decimals: 8},
	{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", Decimals: 18},
	{
		ID: "tether", Symbol: "USDT", Name: "Tether", Decimals: 6,
		Contracts: map[string]string{
			"ethereum":  "0xdAC17F958D2ee523a2206206994597C13D831ec7",
			"polygon":   "0xc2132D05D31c914a87C6611C10748AEb04B58e8F",
			"base":      "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2",
			"bsc":       "0x55d398326f99059fF775485246999027B3197955",
			"arbitrum":  "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9",
			"optimism":  "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58",
			"avalanche": "0x9702230A8Ea53601f5cD2dC00fDBc13d4Df4A8c7",
		},
	},
	{ID: "ripple", Symbol: "XRP", Name: "XRP", Decimals: 6},
	{ID: "binancecoin", Symbol: "BNB", Name: "BNB", Decimals: 18},
	{ID: "solana", Symbol: "SOL", Name: "Solana", Decimals: 9},
	{
		ID: "usd-coin", Symbol: "USDC", Name: "USD Coin", Decimals: 6,
		Contracts: map[string]string{
			"ethereum":  "0xA0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
			"polygon":   "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
			"base":      "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			"bsc":       "0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d",
			"arbitrum":  "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
			"optimism":  "0x0b2c639c533813f4aa9d7837caf62653d097ff85",
			"avalanche": "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
		},
	},
	{ID: "cardano", Symbol: "ADA", Name: "Cardano", Decimals: 6},
	{ID: "dogecoin", Symbol: "DOGE", Name: "Dogecoin", Decimals: 8},
	{ID: "tron", Symbol: "TRX", Name: "Tron", Decimals: 6},
	{
		ID: "chainlink", Symbol: "LINK", Name: "Chainlink", Decimals: 18,
		Contracts: map[string]string{
			"ethereum":  "0x514910771AF9Ca656af840dff83E8264EcF986CA",
			"polygon":   "0x53E0bca35eC356BD5ddDFebBD1Fc0fD03FaBad39",
			"bsc":       "0xF8A0BF9cF54Bb92F17374d9e9A321E6a111a51bD",
			"arbitrum":  "0xf97f4df75117a78c1A5a0DBb814Af92458539FB4",
			"optimism":  "0x350a791BFC2C21F9Ed5d10980Dad2e2638ffa7f6",
			"avalanche": "0x5947BB275c521040051D82396192181b413227A3",
		},
	},
	{
		ID: "wrapped-bitcoin", Symbol: "WBTC", Name: "Wrapped Bitcoin", Decimals: 8,
		Contracts: map[string]string{
			"ethereum":  "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599",
			"polygon":   "0x1BFD67037B42Cf73acF2047067bd4F2C47D9BfD6",
			"bsc":       "0x7130d2A12B9BCbFAe4f2634d864A1Ee1Ce3Ead9c",
			"arbitrum":  "0x2f2a2543B76A4166549F7aaB2e75Bef0aefC5B0f",
			"optimism":  "0x68f180fcce6836688e9084f035309e29bf0a2095",
			"avalanche": "0x50b7545627a5162F82A992c33b87aDc75187B218",
		},
	},
	{ID: "stellar", Symbol: "XLM", Name: "Stellar", Decimals: 7},
	{ID: "sui", Symbol: "SUI", Name: "Sui", Decimals: 9},
	{ID: "avalanche-2", Symbol: "AVAX", Name: "Avalanche", Decimals: 18},
	{
		ID: "shiba-inu", Symbol: "SHIB", Name: "Shiba Inu", Decimals: 18,
		Contracts: map[string]string{
			"ethereum": "0x95aD61b0a150d79219dCF64E1E6Cc01f0B64C4cE",
		},
	},
	{ID: "litecoin", Symbol: "LTC", Name: "Litecoin", Decimals: 8},
	{ID: "toncoin", Symbol: "TON", Name: "Toncoin", Decimals: 9},
	{ID: "polkadot", Symbol: "DOT", Name: "Polkadot", Decimals: 10},
	{
		ID: "uniswap", Symbol: "UNI", Name: "Uniswap", Decimals: 18,
		Contracts: map[string]string{
			"ethereum": "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984",
		},
	},
	{
		ID: "dai", Symbol: "DAI", Name: "Dai", Decimals: 18,
		Contracts: map[string]string{
			"ethereum":  "0x6B175474E89094C44Da98b954EedeAC495271d0F",
			"polygon":   "0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063",
			"bsc":       "0x1AF3F329e8BE154074D8769D1FFa4eE058B1DBc3",
			"arbitrum":  "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1",
			"optimism":  "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1",
			"avalanche": "0xd586E7F844cEa2F87f50152665BCbc2C279D8d70",
		},
	},
	{ID: "aptos", Symbol: "APT", Name: "Aptos", Decimals: 8},
	{ID: "near", Symbol: "NEAR", Name: "Near", Decimals: 24},
	{ID: "internet-computer", Symbol: "ICP", Name: "Internet Computer", Decimals: 8},
	{
		ID: "pepe", Symbol: "PEPE", Name: "Pepe", Decimals: 18,
		Contracts: map[string]string{
			"ethereum": "0x6982508145454Ce325dDbE47a25d4ec3d2311933",
		},
	},
}

// Catalog returns every token in the catalog.
func Catalog() []Token {
	out := make([]Token, len(catalog))
	copy(out, catalog)
	return out
}

// TokenByID finds a catalog token by its catalog id.
func TokenByID(id string) (*Token, bool) {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i], true
		}
	}
	return nil, false
}

// SanitizeTrackedIDs drops ids that are not in the catalog and falls back to
// the default set when nothing valid remains.
func SanitizeTrackedIDs(ids []string) []string {
	var valid []string
	for _, id := range ids {
		if _, ok := TokenByID(id); ok {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return append([]string(nil), DefaultTrackedTokenIDs...)
	}
	return valid
}

// TrackedOn resolves the tracked token ids against one network, keeping only
// tokens that have a contract there.
func TrackedOn(networkID string, trackedIDs []string) []NetworkToken {
	var out []NetworkToken
	for _, id := range trackedIDs {
		token, ok := TokenByID(id)
		if !ok {
			continue
		}
		contract, ok := token.Contracts[networkID]
		if !ok {
			continue
		}
		out = append(out, NetworkToken{
			ID:       token.ID,
			Symbol:   token.Symbol,
			Name:     token.Name,
			Decimals: token.Decimals,
			Contract: contract,
		})
	}
	return out
}
