package oanda

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/market"
)

type apiTrade struct {
	ID              string       `json:"id"`
	Instrument      string       `json:"instrument"`
	Price           string       `json:"price"`
	CurrentUnits    string       `json:"currentUnits"`
	StopLossOrder   *priceBucket `json:"stopLossOrder"`
	TakeProfitOrder *priceBucket `json:"takeProfitOrder"`
}

type openTradesResponse struct {
	Trades []apiTrade `json:"trades"`
}

type priceBucket struct {
	Price string `json:"price"`
}

type apiPrice struct {
	Instrument string        `json:"instrument"`
	Time       string        `json:"time"`
	Tradeable  bool          `json:"tradeable"`
	Bids       []priceBucket `json:"bids"`
	Asks       []priceBucket `json:"asks"`
}

type pricingResponse struct {
	Prices []apiPrice `json:"prices"`
}

func (c *Client) OpenPositions(ctx context.Context) ([]broker.Position, error) {
	var resp openTradesResponse
	if err := c.do(ctx, "GET", c.accountPath("/openTrades"), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("open trades: %w", err)
	}

	out := make([]broker.Position, 0, len(resp.Trades))
	for _, tr := range resp.Trades {
		units, err := parseFloat(tr.CurrentUnits)
		if err != nil {
			return nil, fmt.Errorf("trade %s units: %w", tr.ID, err)
		}
		entry, err := parseFloat(tr.Price)
		if err != nil {
			return nil, fmt.Errorf("trade %s price: %w", tr.ID, err)
		}

		p := broker.Position{
			Ticket:     tr.ID,
			Instrument: tr.Instrument,
			Side:       market.Long,
			Volume:     math.Abs(units) / c.unitsPerLot,
			EntryPrice: entry,
		}
		if units < 0 {
			p.Side = market.Short
		}
		if tr.StopLossOrder != nil {
			p.StopLoss, _ = parseFloat(tr.StopLossOrder.Price)
		}
		if tr.TakeProfitOrder != nil {
			p.TakeProfit, _ = parseFloat(tr.TakeProfitOrder.Price)
		}
		out = append(out, p)
	}
	return out, nil
}

// Quote returns the best bid and ask.
func (c *Client) Quote(ctx context.Context, instrument string) (market.Quote, error) {
	q := url.Values{}
	q.Set("instruments", instrument)

	var resp pricingResponse
	if err := c.do(ctx, "GET", c.accountPath("/pricing"), q, nil, &resp); err != nil {
		return market.Quote{}, fmt.Errorf("pricing %s: %w", instrument, err)
	}

	for _, p := range resp.Prices {
		if p.Instrument != instrument || len(p.Bids) == 0 || len(p.Asks) == 0 {
			continue
		}
		bid, err := parseFloat(p.Bids[0].Price)
		if err != nil {
			return market.Quote{}, fmt.Errorf("pricing %s bid: %w", instrument, err)
		}
		ask, err := parseFloat(p.Asks[0].Price)
		if err != nil {
			return market.Quote{}, fmt.Errorf("pricing %s ask: %w", instrument, err)
		}
		ts, _ := time.Parse(time.RFC3339, p.Time)
		return market.Quote{Instrument: instrument, Time: ts.UTC(), Bid: bid, Ask: ask}, nil
	}
	return market.Quote{}, fmt.Errorf("pricing %s: %w", instrument, broker.ErrDataUnavailable)
}
