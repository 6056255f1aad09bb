package market

import (
	"fmt"
	"strings"
)

// FormatPrice renders a USD price with magnitude-adaptive precision.
// Tiers: non-positive → "0"; below 1e-6 → scientific notation; sub-cent →
// trailing-zero-stripped 8-decimal; under $1 → 4 decimals; under $1000 →
// 2 decimals; otherwise thousands-grouped 2 decimals.
func FormatPrice(v float64) string {
	switch {
	case v <= 0:
		return "0"
	case v < 1e-6:
		return fmt.Sprintf("%.2e", v)
	case v < 0.01:
		s := fmt.Sprintf("%.8f", v)
		s = strings.TrimRight(s, "0")
		return strings.TrimRight(s, ".")
	case v < 1:
		return fmt.Sprintf("%.4f", v)
	case v < 1000:
		return fmt.Sprintf("%.2f", v)
	default:
		return addCommas(fmt.Sprintf("%.2f", v))
	}
}

// FormatUSD renders a market cap or liquidity figure abbreviated at powers
// of 1000 (K/M/B/T). Zero or absent values render as "N/A".
func FormatUSD(v float64) string {
	switch {
	case v <= 0:
		return "N/A"
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2fK", v/1e3)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func addCommas(s string) string {
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	n := len(intPart)
	if n <= 3 {
		if len(parts) == 2 {
			return intPart + "." + parts[1]
		}
		return intPart
	}
	var result []byte
	for i, c := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	if len(parts) == 2 {
		return string(result) + "." + parts[1]
	}
	return string(result)
}
