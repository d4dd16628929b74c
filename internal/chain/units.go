package chain

import (
	"math/big"
	"strings"
)

// EtherDecimals is the number of decimals of the native currency of every EVM chain
const EtherDecimals = 18

// FormatEther formats a wei amount as a decimal ether string
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, EtherDecimals)
}

// FormatUnits formats an integer amount in the smallest unit as a decimal
// string with the given number of decimals. The result is exact: trailing
// zeros of the fraction are trimmed but at least one fractional digit is kept,
// so 1e18 wei formats as "1.0".
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0.0"
	}

	negative := value.Sign() < 0
	abs := new(big.Int).Abs(value)

	digits := abs.String()
	if decimals > 0 {
		if pad := int(decimals) + 1 - len(digits); pad > 0 {
			digits = strings.Repeat("0", pad) + digits
		}
	}

	split := len(digits) - int(decimals)
	whole, frac := digits[:split], digits[split:]

	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}

	result := whole + "." + frac
	if negative {
		result = "-" + result
	}
	return result
}
