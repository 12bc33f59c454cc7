// Package paper is an in-memory broker that fills market orders at the
// current quote and closes positions when their stop or target is
// touched. Bars come from any broker.MarketData, normally a barstore.
package paper

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/market"
	"github.com/rustyeddy/trendbot/pkg/id"
	"github.com/shopspring/decimal"
)

const UnitsPerLot = 100000

type Config struct {
	Currency     string
	Balance      float64
	SpreadPoints float64
	VolumeMin    float64
	VolumeMax    float64

	// QuoteTimeframe is the bar series quotes are derived from when no
	// quote was pushed with UpdateQuote.
	QuoteTimeframe market.Timeframe
}

// Closed is a position the broker closed on a stop or target.
type Closed struct {
	Position   broker.Position
	ClosePrice float64
	Reason     string // "StopLoss" or "TakeProfit"
	PL         float64
	Time       time.Time
}

type position struct {
	broker.Position
	point    float64
	pipValue float64
}

type Broker struct {
	mu        sync.Mutex
	cfg       Config
	balance   decimal.Decimal
	bars      broker.MarketData
	limits    map[string]broker.SymbolLimits
	quotes    map[string]market.Quote
	positions map[string]*position
	closed    []Closed
	ids       *id.Generator
}

var _ broker.Broker = (*Broker)(nil)

// New returns a paper broker. bars may be nil when quotes and limits are
// pushed explicitly.
func New(cfg Config, bars broker.MarketData) *Broker {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.QuoteTimeframe == "" {
		cfg.QuoteTimeframe = market.M5
	}
	return &Broker{
		cfg:       cfg,
		balance:   decimal.NewFromFloat(cfg.Balance),
		bars:      bars,
		limits:    make(map[string]broker.SymbolLimits),
		quotes:    make(map[string]market.Quote),
		positions: make(map[string]*position),
		ids:       id.NewGenerator(nil),
	}
}

func (b *Broker) Bars(ctx context.Context, instrument string, tf market.Timeframe, count int) ([]market.Bar, error) {
	if b.bars == nil {
		return nil, fmt.Errorf("%s %s: %w", instrument, tf, broker.ErrDataUnavailable)
	}
	return b.bars.Bars(ctx, instrument, tf, count)
}

func (b *Broker) Balance(ctx context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance.InexactFloat64(), nil
}

// SetLimits overrides the derived limits of an instrument.
func (b *Broker) SetLimits(instrument string, lim broker.SymbolLimits) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.limits[instrument] = lim
}

// SymbolLimits returns pushed limits, or derives them from the
// instrument's pip location: fractional-pip points, a standard lot and
// the configured volume bounds.
func (b *Broker) SymbolLimits(ctx context.Context, instrument string) (broker.SymbolLimits, error) {
	b.mu.Lock()
	lim, ok := b.limits[instrument]
	b.mu.Unlock()
	if ok {
		return lim, nil
	}

	meta, err := market.LookupInstrument(instrument)
	if err != nil {
		return broker.SymbolLimits{}, err
	}
	point := math.Pow10(meta.PipLocation - 1)
	rate, err := market.QuoteToAccountRate(ctx, instrument, b.cfg.Currency, b)
	if err != nil {
		return broker.SymbolLimits{}, fmt.Errorf("pip value %s: %w", instrument, err)
	}
	return broker.SymbolLimits{
		PointSize: point,
		PipValue:  UnitsPerLot * point * rate,
		VolumeMin: b.cfg.VolumeMin,
		VolumeMax: b.cfg.VolumeMax,
	}, nil
}

// Quote returns the last pushed quote, or one built from the close of the
// latest QuoteTimeframe bar with the configured spread. A built quote is
// not kept, but positions it stops out or takes profit on are closed.
func (b *Broker) Quote(ctx context.Context, instrument string) (market.Quote, error) {
	b.mu.Lock()
	q, ok := b.quotes[instrument]
	b.mu.Unlock()
	if ok {
		return q, nil
	}

	bars, err := b.Bars(ctx, instrument, b.cfg.QuoteTimeframe, 1)
	if err != nil {
		return market.Quote{}, err
	}
	last := bars[len(bars)-1]

	meta, err := market.LookupInstrument(instrument)
	if err != nil {
		return market.Quote{}, err
	}
	spread := b.cfg.SpreadPoints * math.Pow10(meta.PipLocation-1)
	q = market.Quote{
		Instrument: instrument,
		Time:       last.Time.Add(b.cfg.QuoteTimeframe.Duration()),
		Bid:        last.Close,
		Ask:        last.Close + spread,
	}

	b.mu.Lock()
	b.settle(q)
	b.mu.Unlock()
	return q, nil
}

func (b *Broker) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	if req.Side == market.Flat {
		return broker.OrderResult{}, broker.Reject("order has no side")
	}
	lim, err := b.SymbolLimits(ctx, req.Instrument)
	if err != nil {
		return broker.OrderResult{}, err
	}
	if req.Volume < lim.VolumeMin || (lim.VolumeMax > 0 && req.Volume > lim.VolumeMax) {
		return broker.OrderResult{}, broker.Reject("volume %.2f outside [%.2f, %.2f]",
			req.Volume, lim.VolumeMin, lim.VolumeMax)
	}
	q, err := b.Quote(ctx, req.Instrument)
	if err != nil {
		return broker.OrderResult{}, err
	}

	fill := q.EntryPrice(req.Side)
	dir := req.Side.Sign()
	if req.StopLoss != 0 && dir*(fill-req.StopLoss) <= 0 {
		return broker.OrderResult{}, broker.Reject("stop %.5f on the wrong side of fill %.5f", req.StopLoss, fill)
	}
	if req.TakeProfit != 0 && dir*(req.TakeProfit-fill) <= 0 {
		return broker.OrderResult{}, broker.Reject("target %.5f on the wrong side of fill %.5f", req.TakeProfit, fill)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ticket := b.ids.Next()
	b.positions[ticket] = &position{
		Position: broker.Position{
			Ticket:     ticket,
			Instrument: req.Instrument,
			Side:       req.Side,
			Volume:     req.Volume,
			EntryPrice: fill,
			StopLoss:   req.StopLoss,
			TakeProfit: req.TakeProfit,
		},
		point:    lim.PointSize,
		pipValue: lim.PipValue,
	}
	return broker.OrderResult{Ticket: ticket, FillPrice: fill, Volume: req.Volume}, nil
}

func (b *Broker) ModifyStop(ctx context.Context, req broker.ModifyRequest) error {
	b.mu.Lock()
	p, ok := b.positions[req.Ticket]
	b.mu.Unlock()
	if !ok {
		return broker.Reject("ticket %s not open", req.Ticket)
	}

	q, err := b.Quote(ctx, p.Instrument)
	if err != nil {
		return err
	}
	mark := q.MarkPrice(p.Side)
	if req.StopLoss != 0 && p.Side.Sign()*(mark-req.StopLoss) <= 0 {
		return broker.Reject("stop %.5f on the wrong side of market %.5f", req.StopLoss, mark)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.positions[req.Ticket]; !ok {
		return broker.Reject("ticket %s closed", req.Ticket)
	}
	p.StopLoss = req.StopLoss
	if req.TakeProfit != 0 {
		p.TakeProfit = req.TakeProfit
	}
	return nil
}

// OpenPositions returns open positions ordered by ticket, oldest first.
func (b *Broker) OpenPositions(ctx context.Context) ([]broker.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]broker.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p.Position)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticket < out[j].Ticket })
	return out, nil
}

// UpdateQuote pushes a quote and closes every position on the instrument
// whose stop or target it reaches. Realized P/L is booked to the balance.
func (b *Broker) UpdateQuote(q market.Quote) []Closed {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.quotes[q.Instrument] = q
	return b.settle(q)
}

// settle closes positions on q's instrument whose stop or target q
// reaches. b.mu must be held.
func (b *Broker) settle(q market.Quote) []Closed {
	var closed []Closed
	for ticket, p := range b.positions {
		if p.Instrument != q.Instrument {
			continue
		}
		mark := q.MarkPrice(p.Side)
		reason := ""
		switch {
		case hitStopLoss(p.Position, mark):
			reason = "StopLoss"
		case hitTakeProfit(p.Position, mark):
			reason = "TakeProfit"
		default:
			continue
		}

		pl := realizedPL(p, mark)
		c := Closed{
			Position:   p.Position,
			ClosePrice: mark,
			Reason:     reason,
			PL:         pl.InexactFloat64(),
			Time:       q.Time,
		}
		b.balance = b.balance.Add(pl)
		delete(b.positions, ticket)
		closed = append(closed, c)
	}
	sort.Slice(closed, func(i, j int) bool { return closed[i].Position.Ticket < closed[j].Position.Ticket })
	b.closed = append(b.closed, closed...)
	return closed
}

// ClosedPositions returns everything closed so far, in close order.
func (b *Broker) ClosedPositions() []Closed {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Closed(nil), b.closed...)
}
