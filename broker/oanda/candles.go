package oanda

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/market"
)

// candleData represents the OHLC data in the API response
type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type apiCandle struct {
	Complete bool        `json:"complete"`
	Volume   int64       `json:"volume"`
	Time     string      `json:"time"`
	Mid      *candleData `json:"mid,omitempty"`
}

type candlesResponse struct {
	Instrument  string      `json:"instrument"`
	Granularity string      `json:"granularity"`
	Candles     []apiCandle `json:"candles"`
}

// Granularity maps a timeframe to OANDA notation.
func Granularity(tf market.Timeframe) string {
	if tf == market.D1 {
		return "D"
	}
	return string(tf)
}

// Bars fetches the last count complete mid-price candles. The forming
// candle is requested too and dropped, so fewer than count may return.
func (c *Client) Bars(ctx context.Context, instrument string, tf market.Timeframe, count int) ([]market.Bar, error) {
	if count <= 0 || count > 4999 {
		return nil, fmt.Errorf("oanda: count %d out of range", count)
	}

	q := url.Values{}
	q.Set("price", "M")
	q.Set("granularity", Granularity(tf))
	q.Set("count", strconv.Itoa(count+1))

	var resp candlesResponse
	if err := c.do(ctx, "GET", "/v3/instruments/"+url.PathEscape(instrument)+"/candles", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("candles %s %s: %w", instrument, tf, err)
	}

	bars := make([]market.Bar, 0, len(resp.Candles))
	for _, ac := range resp.Candles {
		if !ac.Complete || ac.Mid == nil {
			continue
		}
		b, err := toBar(ac)
		if err != nil {
			return nil, fmt.Errorf("candles %s %s: %w", instrument, tf, err)
		}
		bars = append(bars, b)
	}
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("candles %s %s: %w", instrument, tf, broker.ErrDataUnavailable)
	}
	return bars, nil
}

func toBar(ac apiCandle) (market.Bar, error) {
	t, err := time.Parse(time.RFC3339, ac.Time)
	if err != nil {
		return market.Bar{}, fmt.Errorf("parse time %s: %w", ac.Time, err)
	}

	var vals [4]float64
	for i, s := range []string{ac.Mid.O, ac.Mid.H, ac.Mid.L, ac.Mid.C} {
		v, err := parseFloat(s)
		if err != nil {
			return market.Bar{}, fmt.Errorf("parse price %q: %w", s, err)
		}
		vals[i] = v
	}

	return market.Bar{
		Time:       t.UTC(),
		Open:       vals[0],
		High:       vals[1],
		Low:        vals[2],
		Close:      vals[3],
		TickVolume: ac.Volume,
	}, nil
}
