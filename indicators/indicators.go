// Package indicators computes the derived series the decision pipeline
// reads: simple moving averages, RSI, ATR and on-balance volume.
//
// Every series is aligned 1:1 with the input bar history and uses NaN for
// rows whose warm-up period has not elapsed. Row i only ever depends on
// bars 0..i.
package indicators

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/trendbot/market"
)

// ErrInsufficientData is returned when a history is too short to compute
// anything (OBV and ATR need a previous close).
var ErrInsufficientData = errors.New("insufficient data")

// Periods holds the look-back lengths of every indicator.
type Periods struct {
	SMAFast   int `json:"sma_fast" yaml:"sma_fast"`
	SMAMedium int `json:"sma_medium" yaml:"sma_medium"`
	SMASlow   int `json:"sma_slow" yaml:"sma_slow"`
	RSI       int `json:"rsi" yaml:"rsi"`
	ATR       int `json:"atr" yaml:"atr"`
}

func DefaultPeriods() Periods {
	return Periods{
		SMAFast:   20,
		SMAMedium: 50,
		SMASlow:   200,
		RSI:       14,
		ATR:       14,
	}
}

func (p Periods) Validate() error {
	for name, v := range map[string]int{
		"sma_fast":   p.SMAFast,
		"sma_medium": p.SMAMedium,
		"sma_slow":   p.SMASlow,
		"rsi":        p.RSI,
		"atr":        p.ATR,
	} {
		if v <= 0 {
			return fmt.Errorf("period %s must be positive, got %d", name, v)
		}
	}
	return nil
}

// Warmup is the number of bars needed before every indicator is defined.
func (p Periods) Warmup() int {
	n := max(p.SMAFast, p.SMAMedium, p.SMASlow, p.RSI)
	// ATR needs a previous close for its first true range.
	return max(n, p.ATR+1)
}

// Snapshot is one row of indicator values.
type Snapshot struct {
	Time  time.Time
	Close float64

	SMAFast   float64
	SMAMedium float64
	SMASlow   float64
	RSI       float64
	ATR       float64
	OBV       float64
}

// Compute returns one Snapshot per bar.
func Compute(history []market.Bar, p Periods) ([]Snapshot, error) {
	if len(history) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 bars, got %d", ErrInsufficientData, len(history))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	closes := market.Closes(history)
	fast := SMA(closes, p.SMAFast)
	medium := SMA(closes, p.SMAMedium)
	slow := SMA(closes, p.SMASlow)
	rsi := RSI(closes, p.RSI)
	atr := ATR(history, p.ATR)
	obv := OBV(history)

	rows := make([]Snapshot, len(history))
	for i, b := range history {
		rows[i] = Snapshot{
			Time:      b.Time,
			Close:     b.Close,
			SMAFast:   fast[i],
			SMAMedium: medium[i],
			SMASlow:   slow[i],
			RSI:       rsi[i],
			ATR:       atr[i],
			OBV:       obv[i],
		}
	}
	return rows, nil
}

// Latest computes the history and returns only its final row.
func Latest(history []market.Bar, p Periods) (Snapshot, error) {
	rows, err := Compute(history, p)
	if err != nil {
		return Snapshot{}, err
	}
	return rows[len(rows)-1], nil
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
