package paper

import (
	"github.com/rustyeddy/trendbot/broker"
	"github.com/shopspring/decimal"
)

func hitStopLoss(p broker.Position, mark float64) bool {
	if p.StopLoss == 0 {
		return false
	}
	return p.Side.Sign()*(mark-p.StopLoss) <= 0
}

func hitTakeProfit(p broker.Position, mark float64) bool {
	if p.TakeProfit == 0 {
		return false
	}
	return p.Side.Sign()*(mark-p.TakeProfit) >= 0
}

// realizedPL is the account-currency result of closing p, in cents.
func realizedPL(p *position, closePrice float64) decimal.Decimal {
	if p.point <= 0 {
		return decimal.Zero
	}
	points := p.Side.Sign() * (closePrice - p.EntryPrice) / p.point
	return decimal.NewFromFloat(points * p.pipValue * p.Volume).Round(2)
}
