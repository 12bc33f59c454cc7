// Package position manages protective stops on open positions.
package position

import (
	"math"

	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/market"
)

const (
	DefaultTrigger = 50.0 // points of open profit before trailing starts
	DefaultRatio   = 0.5  // share of open profit locked in
)

// Manager trails stops behind open profit. It holds no state between
// calls; the broker's positions are the only record.
type Manager struct {
	Trigger float64 `json:"trigger_points" yaml:"trigger_points"`
	Ratio   float64 `json:"ratio" yaml:"ratio"`
}

func NewManager() Manager {
	return Manager{Trigger: DefaultTrigger, Ratio: DefaultRatio}
}

// Manage returns the stop modifications due for positions. Positions
// without a quote or limits for their instrument are skipped. Calling it
// again with the modifications applied returns nothing.
func (m Manager) Manage(
	positions []broker.Position,
	quotes map[string]market.Quote,
	limits map[string]broker.SymbolLimits,
) []broker.ModifyRequest {
	var out []broker.ModifyRequest
	for _, p := range positions {
		q, ok := quotes[p.Instrument]
		if !ok {
			continue
		}
		lim, ok := limits[p.Instrument]
		if !ok {
			continue
		}
		sl, ok := m.Trail(p, q, lim.PointSize)
		if !ok {
			continue
		}
		out = append(out, broker.ModifyRequest{
			Ticket:     p.Ticket,
			Instrument: p.Instrument,
			StopLoss:   sl,
			TakeProfit: p.TakeProfit,
		})
	}
	return out
}

// Trail computes the new stop for one position and reports whether it
// tightens the current one by at least a point.
func (m Manager) Trail(p broker.Position, q market.Quote, point float64) (float64, bool) {
	if point <= 0 || p.Side == market.Flat {
		return 0, false
	}

	dir := p.Side.Sign()
	profit := ProfitPoints(p, q, point)
	if !(profit > m.Trigger) {
		return 0, false
	}

	candidate := snap(p.EntryPrice+dir*profit*m.Ratio*point, point)
	if p.StopLoss == 0 {
		return candidate, true
	}

	if dir*(candidate-p.StopLoss) < point*(1-1e-6) {
		return 0, false
	}
	return candidate, true
}

// ProfitPoints is the open profit in points, marked at the price the
// position would close at.
func ProfitPoints(p broker.Position, q market.Quote, point float64) float64 {
	mark := q.MarkPrice(p.Side)
	return p.Side.Sign() * (mark - p.EntryPrice) / point
}

func snap(price, point float64) float64 {
	return math.Round(price/point) * point
}
