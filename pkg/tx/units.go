package tx

import (
	"math/big"
	"strings"
)

// parseUnits converts a decimal amount string into the asset's smallest unit.
// It accepts plain decimal notation only and rejects anything that would lose
// precision past the asset's decimals.
func parseUnits(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return nil, ErrInvalidAmount
	}

	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if whole == "" && frac == "" {
		return nil, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, ErrInvalidAmount
	}
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return nil, ErrInvalidAmount
		}
	}

	frac += strings.Repeat("0", decimals-len(frac))
	value, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	if value.Sign() == 0 {
		return nil, ErrInvalidAmount
	}
	return value, nil
}
