package tokens

import (
	"fmt"
	"math/big"
	"strings"
)

// ToBaseUnits converts a human decimal amount string into the token's base
// units. The amount is split at the decimal point; the fractional part is
// zero-padded or truncated to exactly `decimals` digits, never rounded, so
// "1.23456789" at 4 decimals becomes "12345".
func ToBaseUnits(amount string, decimals int) (string, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return "", fmt.Errorf("empty amount")
	}
	if decimals < 0 {
		return "", fmt.Errorf("negative decimals: %d", decimals)
	}

	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return "", fmt.Errorf("invalid amount %q", amount)
	}

	if len(frac) > decimals {
		frac = frac[:decimals]
	} else {
		frac += strings.Repeat("0", decimals-len(frac))
	}

	combined := strings.TrimLeft(whole+frac, "0")
	if combined == "" {
		combined = "0"
	}
	return combined, nil
}

// ToBaseUnitsInt is ToBaseUnits returning the value as a big integer.
func ToBaseUnitsInt(amount string, decimals int) (*big.Int, error) {
	s, err := ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid base amount %q", s)
	}
	return n, nil
}

// FromBaseUnits renders a base-unit integer string as a human decimal string,
// trimming trailing fractional zeros.
func FromBaseUnits(base string, decimals int) (string, error) {
	base = strings.TrimSpace(base)
	if !isDigits(base) || base == "" {
		return "", fmt.Errorf("invalid base amount %q", base)
	}
	base = strings.TrimLeft(base, "0")
	if base == "" {
		base = "0"
	}
	if decimals == 0 {
		return base, nil
	}
	if len(base) <= decimals {
		base = strings.Repeat("0", decimals-len(base)+1) + base
	}
	whole := base[:len(base)-decimals]
	frac := strings.TrimRight(base[len(base)-decimals:], "0")
	if frac == "" {
		return whole, nil
	}
	return whole + "." + frac, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
