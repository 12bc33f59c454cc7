package risk

import (
	"math"

	"github.com/shopspring/decimal"
)

// Inputs to SizePosition. PipValue is the account-currency value of a
// one-point move for one lot.
type Inputs struct {
	Balance      float64
	RiskPercent  float64 // 1 = 1%
	StopDistance float64 // |entry - stop| in price units
	PointSize    float64
	PipValue     float64
	VolumeMin    float64
	VolumeMax    float64
	Precision    int
}

type Result struct {
	Volume     float64
	RawVolume  float64
	RiskAmount float64
	StopPoints float64

	// FellBack is set when the inputs could not size a trade and the
	// minimum volume was returned instead.
	FellBack bool
}

// SizePosition converts a stop distance and a risk budget into a lot
// size rounded to the broker's granularity and clamped to its limits.
//
// It never divides by a non-positive stop or pip value: those inputs
// return the minimum tradable volume.
func SizePosition(in Inputs) Result {
	res := Result{
		RiskAmount: in.Balance * in.RiskPercent / 100,
	}
	if in.PointSize > 0 {
		res.StopPoints = in.StopDistance / in.PointSize
	}

	if !(res.StopPoints > 0) || !(in.PipValue > 0) || math.IsInf(res.StopPoints, 0) {
		res.Volume = in.VolumeMin
		res.FellBack = true
		return res
	}

	res.RawVolume = res.RiskAmount / (res.StopPoints * in.PipValue)
	res.Volume = clampVolume(RoundVolume(res.RawVolume, in.Precision), in.VolumeMin, in.VolumeMax)
	return res
}

// RoundVolume rounds to precision decimals, half away from zero.
func RoundVolume(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	r, _ := decimal.NewFromFloat(v).Round(int32(precision)).Float64()
	return r
}

func clampVolume(v, lo, hi float64) float64 {
	if hi > 0 && v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// PlannedRisk is the account-currency loss if the stop is hit.
func PlannedRisk(volume, stopPoints, pipValue float64) float64 {
	return volume * stopPoints * pipValue
}

// RR is reward divided by risk; zero when there is no risk.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}
