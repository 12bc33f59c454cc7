// Package strategies turns per-timeframe market conditions into at most
// one entry signal per instrument.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/trendbot/analysis"
	"github.com/rustyeddy/trendbot/market"
)

// RSI band shared by the policies: entries are not taken into
// overbought (>= 70) or oversold (<= 30) conditions.
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

// Signal is an entry decision for one instrument. Side is Flat when there
// is nothing to do.
type Signal struct {
	Instrument string
	Side       market.Side
	Reason     string

	// Fast is the fastest timeframe's condition; its ATR drives the exits.
	Fast analysis.Condition
}

func (s Signal) Active() bool {
	return s.Side != market.Flat
}

// Policy decides on a signal from an instrument's conditions, ordered
// fastest timeframe first.
type Policy interface {
	Name() string
	Decide(instrument string, conds []analysis.Condition) Signal
}

// PolicyByName resolves the configured signal policy.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "alignment", "multi-timeframe", "mtf", "":
		return Alignment{}, nil
	case "single", "single-timeframe":
		return SingleTimeframe{}, nil
	case "noop", "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown policy %q (supported: alignment, single, noop)", name)
	}
}

func flat(instrument, reason string) Signal {
	return Signal{Instrument: instrument, Side: market.Flat, Reason: reason}
}
