package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/trendbot/market"
)

// ATR multiples for protective exits, a 1:1.67 risk:reward.
const (
	StopATRMultiple   = 1.5
	TargetATRMultiple = 2.5
)

// ErrInvalidVolatility means the ATR cannot place a stop; the trade must
// be skipped rather than sent with a zero-width stop.
var ErrInvalidVolatility = errors.New("invalid volatility")

type Exits struct {
	StopLoss   float64
	TakeProfit float64
}

// ComputeExits places the stop against the trade and the target with it,
// both measured in ATRs from the entry.
func ComputeExits(side market.Side, entry, atr float64) (Exits, error) {
	if math.IsNaN(atr) || math.IsInf(atr, 0) || atr <= 0 {
		return Exits{}, fmt.Errorf("%w: atr=%v", ErrInvalidVolatility, atr)
	}
	if side == market.Flat {
		return Exits{}, errors.New("exits need a trade side")
	}

	dir := side.Sign()
	return Exits{
		StopLoss:   entry - dir*atr*StopATRMultiple,
		TakeProfit: entry + dir*atr*TargetATRMultiple,
	}, nil
}
