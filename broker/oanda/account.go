package oanda

import (
	"context"
	"fmt"
	"math"
	"net/url"

	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/market"
)

type summaryResponse struct {
	Account struct {
		Balance  string `json:"balance"`
		Currency string `json:"currency"`
		NAV      string `json:"NAV"`
	} `json:"account"`
}

type apiInstrument struct {
	Name              string `json:"name"`
	DisplayPrecision  int    `json:"displayPrecision"`
	PipLocation       int    `json:"pipLocation"`
	MinimumTradeSize  string `json:"minimumTradeSize"`
	MaximumOrderUnits string `json:"maximumOrderUnits"`
}

type instrumentsResponse struct {
	Instruments []apiInstrument `json:"instruments"`
}

// Balance returns the account balance and remembers the account currency.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	var resp summaryResponse
	if err := c.do(ctx, "GET", c.accountPath("/summary"), nil, nil, &resp); err != nil {
		return 0, fmt.Errorf("account summary: %w", err)
	}
	bal, err := parseFloat(resp.Account.Balance)
	if err != nil {
		return 0, fmt.Errorf("account balance %q: %w", resp.Account.Balance, err)
	}

	c.mu.Lock()
	c.currency = resp.Account.Currency
	c.mu.Unlock()
	return bal, nil
}

func (c *Client) accountCurrency(ctx context.Context) (string, error) {
	c.mu.Lock()
	cur := c.currency
	c.mu.Unlock()
	if cur != "" {
		return cur, nil
	}
	if _, err := c.Balance(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currency, nil
}

// SymbolLimits derives point size from the display precision and volume
// bounds in lots from the unit limits. PipValue is for one lot, in the
// account currency.
func (c *Client) SymbolLimits(ctx context.Context, instrument string) (broker.SymbolLimits, error) {
	q := url.Values{}
	q.Set("instruments", instrument)

	var resp instrumentsResponse
	if err := c.do(ctx, "GET", c.accountPath("/instruments"), q, nil, &resp); err != nil {
		return broker.SymbolLimits{}, fmt.Errorf("instrument %s: %w", instrument, err)
	}

	var inst *apiInstrument
	for i := range resp.Instruments {
		if resp.Instruments[i].Name == instrument {
			inst = &resp.Instruments[i]
		}
	}
	if inst == nil {
		return broker.SymbolLimits{}, fmt.Errorf("instrument %s: %w", instrument, broker.ErrDataUnavailable)
	}

	c.mu.Lock()
	c.precision[instrument] = inst.DisplayPrecision
	c.mu.Unlock()

	minUnits, err := parseFloat(inst.MinimumTradeSize)
	if err != nil {
		return broker.SymbolLimits{}, fmt.Errorf("instrument %s minimumTradeSize: %w", instrument, err)
	}
	maxUnits, err := parseFloat(inst.MaximumOrderUnits)
	if err != nil {
		return broker.SymbolLimits{}, fmt.Errorf("instrument %s maximumOrderUnits: %w", instrument, err)
	}

	cur, err := c.accountCurrency(ctx)
	if err != nil {
		return broker.SymbolLimits{}, err
	}
	rate, err := market.QuoteToAccountRate(ctx, instrument, cur, c)
	if err != nil {
		return broker.SymbolLimits{}, fmt.Errorf("pip value %s: %w", instrument, err)
	}

	point := math.Pow10(-inst.DisplayPrecision)
	return broker.SymbolLimits{
		PointSize: point,
		PipValue:  c.unitsPerLot * point * rate,
		VolumeMin: minUnits / c.unitsPerLot,
		VolumeMax: maxUnits / c.unitsPerLot,
	}, nil
}
