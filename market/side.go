package market

import (
	"fmt"
	"strings"
)

// Side is a signed trade direction. Arithmetic that differs between
// longs and shorts multiplies by Sign() instead of branching.
type Side int

const (
	Short Side = -1
	Flat  Side = 0
	Long  Side = 1
)

func (s Side) Sign() float64 {
	return float64(s)
}

func (s Side) String() string {
	switch s {
	case Long:
		return "buy"
	case Short:
		return "sell"
	default:
		return "none"
	}
}

// ParseSide accepts buy/long and sell/short.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long":
		return Long, nil
	case "sell", "short":
		return Short, nil
	case "", "none", "flat":
		return Flat, nil
	default:
		return Flat, fmt.Errorf("unknown side %q", s)
	}
}
