package utils

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// FormatAmount renders a human-unit asset amount: four decimals below 1,
// two above, and a floor marker for dust.
func FormatAmount(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) || value == 0 {
		return "0.00"
	}
	if value < 0.0001 {
		return "<0.0001"
	}
	if value < 1 {
		return fmt.Sprintf("%.4f", value)
	}
	if value < 1000 {
		return fmt.Sprintf("%.2f", value)
	}
	return AddCommas(fmt.Sprintf("%.2f", value))
}

// FormatUsd renders a USD value with a floor marker below one cent.
func FormatUsd(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "$0.00"
	}
	if value < 0.01 {
		return "<$0.01"
	}
	if value >= 1000 {
		return "$" + AddCommas(fmt.Sprintf("%.0f", value))
	}
	return fmt.Sprintf("$%.2f", value)
}

// FormatPercent renders a signed 24h change.
func FormatPercent(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0.00%"
	}
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatBigFloat renders a big.Float with the given number of decimals.
func FormatBigFloat(f *big.Float, decimals int) string {
	if f == nil {
		return "0"
	}
	return f.Text('f', decimals)
}

// BigFloatToFloat64 converts defensively, mapping nil to 0.
func BigFloatToFloat64(f *big.Float) float64 {
	if f == nil {
		return 0
	}
	val, _ := f.Float64()
	return val
}

// ShortAddress abbreviates a 0x address for display.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// TruncateString cuts a string to num runes with an ellipsis.
func TruncateString(str string, num int) string {
	runes := []rune(str)
	if len(runes) <= num {
		return str
	}
	if num <= 3 {
		return string(runes[:num])
	}
	return string(runes[:num-3]) + "..."
}

// AddCommas inserts thousands separators into a plain decimal string.
func AddCommas(s string) string {
	if len(s) == 0 {
		return s
	}
	parts := strings.Split(s, ".")
	integerPart := parts[0]
	sign := ""
	if strings.HasPrefix(integerPart, "-") {
		sign = "-"
		integerPart = integerPart[1:]
	}

	n := len(integerPart)
	if n <= 3 {
		return s
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(integerPart[:remainder])
		result.WriteString(",")
	}
	for i := remainder; i < n; i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(integerPart[i : i+3])
	}

	if len(parts) > 1 {
		result.WriteString(".")
		result.WriteString(parts[1])
	}
	return result.String()
}
