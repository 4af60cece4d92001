package chain

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// ErrInvalidAmount is returned by ParseEther for unusable input.
var ErrInvalidAmount = errors.New("invalid amount")

const etherDecimals = 18

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(etherDecimals), nil)

// Plain decimals only: no sign, exponent, fraction or hex form.
var decimalRe = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)$`)

// ParseEther converts a decimal native-currency amount ("0.001") to wei.
// Anything but a plain non-negative decimal is rejected, as are amounts
// finer than 1 wei.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if !decimalRe.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	r.Mul(r, new(big.Rat).SetInt(weiPerEther))
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, etherDecimals)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatEther renders wei as the shortest exact decimal, e.g. 1e15 -> "0.001".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	neg := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)

	whole, frac := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))
	out := whole.String()
	if frac.Sign() != 0 {
		fs := fmt.Sprintf("%0*s", etherDecimals, frac.String())
		out += "." + strings.TrimRight(fs, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}
