// Package amount handles unbounded non-negative token amounts.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var ErrInvalid = errors.New("invalid amount")

// Parse parses a base-10 non-negative integer.
func Parse(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalid)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalid, s)
	}
	return v, nil
}

// ParseOrZero is Parse with the empty string meaning zero.
func ParseOrZero(s string) (*big.Int, error) {
	if strings.TrimSpace(s) == "" {
		return new(big.Int), nil
	}
	return Parse(s)
}

// OrZero returns v, or a fresh zero when v is nil.
func OrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// Validate rejects nil and negative amounts.
func Validate(name string, v *big.Int) error {
	if v == nil {
		return fmt.Errorf("%w: %s is required", ErrInvalid, name)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("%w: %s is negative", ErrInvalid, name)
	}
	return nil
}
