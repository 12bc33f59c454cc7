package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/trendbot/analysis"
	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/indicators"
	"github.com/rustyeddy/trendbot/internal/retry"
	"github.com/rustyeddy/trendbot/market"
	"github.com/rustyeddy/trendbot/risk"
	"github.com/rustyeddy/trendbot/strategies"
)

// Report is what one cycle saw and did.
type Report struct {
	ID         string
	Started    time.Time
	Conditions map[string][]analysis.Condition
	Skipped    map[string]string // instrument -> reason
	Signals    []strategies.Signal
	Modified   []broker.ModifyRequest
	Orders     []broker.OrderRequest
	Results    []broker.OrderResult
	Rejected   []string
}

// cycle holds per-cycle caches; limits and quotes are fetched at most
// once per instrument.
type cycle struct {
	*Bot
	ctx    context.Context
	report *Report
	log    zerolog.Logger
	limits map[string]broker.SymbolLimits
	quotes map[string]market.Quote
}

// Cycle runs one pass: conditions for every instrument, stop management,
// then signals and entries. Data problems skip an instrument; any other
// collaborator failure aborts the cycle with an error.
func (b *Bot) Cycle(ctx context.Context) (*Report, error) {
	r := &Report{
		ID:         b.ids.Next(),
		Started:    b.opts.Now(),
		Conditions: make(map[string][]analysis.Condition),
		Skipped:    make(map[string]string),
	}
	c := &cycle{
		Bot:    b,
		ctx:    ctx,
		report: r,
		log:    b.log.With().Str("cycle", r.ID).Logger(),
		limits: make(map[string]broker.SymbolLimits),
		quotes: make(map[string]market.Quote),
	}

	for _, inst := range b.cfg.Trading.Instruments {
		conds, err := c.conditions(inst)
		if err != nil {
			if !skippable(err) {
				return r, fmt.Errorf("conditions %s: %w", inst, err)
			}
			r.Skipped[inst] = err.Error()
			c.log.Warn().Err(err).Str("instrument", inst).Msg("instrument skipped")
			continue
		}
		r.Conditions[inst] = conds
	}

	positions, err := retry.Value(ctx, b.calls, b.broker.OpenPositions)
	if err != nil {
		return r, fmt.Errorf("open positions: %w", err)
	}
	if err := c.manage(positions); err != nil {
		return r, err
	}

	for _, inst := range b.cfg.Trading.Instruments {
		conds, ok := r.Conditions[inst]
		if !ok {
			continue
		}
		sig := b.policy.Decide(inst, conds)
		if !sig.Active() {
			c.log.Debug().Str("instrument", inst).Str("reason", sig.Reason).Msg("no signal")
			continue
		}
		r.Signals = append(r.Signals, sig)
		c.log.Info().
			Str("instrument", inst).
			Str("side", sig.Side.String()).
			Float64("rsi", sig.Fast.RSI).
			Float64("atr", sig.Fast.ATR).
			Str("reason", sig.Reason).
			Msg("signal emitted")
	}

	exp := exposure(positions)
	for _, sig := range r.Signals {
		if err := c.enter(sig, exp); err != nil {
			return r, err
		}
	}
	return r, nil
}

// conditions classifies one instrument on every timeframe, fastest first.
func (c *cycle) conditions(inst string) ([]analysis.Condition, error) {
	out := make([]analysis.Condition, 0, len(c.timeframes))
	for _, tf := range c.timeframes {
		bars, err := retry.Value(c.ctx, c.calls, func(ctx context.Context) ([]market.Bar, error) {
			return c.broker.Bars(ctx, inst, tf, c.cfg.Trading.BarCount)
		})
		if err != nil {
			return nil, err
		}
		row, err := indicators.Latest(bars, c.cfg.Indicators)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tf, err)
		}
		cond := analysis.Classify(tf, row)
		if !cond.Valid {
			return nil, fmt.Errorf("%s: %w: %d bars do not cover indicator warm-up",
				tf, indicators.ErrInsufficientData, len(bars))
		}
		out = append(out, cond)
	}
	return out, nil
}

// manage trails stops on every open position it can price.
func (c *cycle) manage(positions []broker.Position) error {
	if len(positions) == 0 {
		return nil
	}

	for _, p := range positions {
		if _, ok := c.quotes[p.Instrument]; ok {
			continue
		}
		if _, err := c.quote(p.Instrument); err != nil {
			if !skippable(err) {
				return fmt.Errorf("quote %s: %w", p.Instrument, err)
			}
			c.log.Warn().Err(err).Str("instrument", p.Instrument).Msg("position not managed")
			continue
		}
		if _, err := c.symbolLimits(p.Instrument); err != nil {
			if !skippable(err) {
				return fmt.Errorf("limits %s: %w", p.Instrument, err)
			}
			c.log.Warn().Err(err).Str("instrument", p.Instrument).Msg("position not managed")
		}
	}

	for _, m := range c.trailing.Manage(positions, c.quotes, c.limits) {
		c.report.Modified = append(c.report.Modified, m)
		var err error
		if !c.opts.DryRun {
			err = c.calls.Do(c.ctx, func(ctx context.Context) error {
				return c.broker.ModifyStop(ctx, m)
			})
		}
		switch {
		case err == nil:
			c.log.Info().
				Str("ticket", m.Ticket).
				Str("instrument", m.Instrument).
				Float64("stop_loss", m.StopLoss).
				Bool("dry_run", c.opts.DryRun).
				Msg("stop-loss modified")
		case errors.Is(err, broker.ErrOrderRejected):
			c.log.Warn().Err(err).Str("ticket", m.Ticket).Msg("stop-loss modification rejected")
		default:
			return fmt.Errorf("modify %s: %w", m.Ticket, err)
		}
	}
	return nil
}

// enter sizes and places one signal. Checks that fail skip the signal;
// only transport failures abort the cycle.
func (c *cycle) enter(sig strategies.Signal, exp map[string]int) error {
	inst := sig.Instrument
	log := c.log.With().Str("instrument", inst).Str("side", sig.Side.String()).Logger()

	q, err := c.quote(inst)
	if err != nil {
		if skippable(err) {
			log.Warn().Err(err).Msg("trade skipped")
			return nil
		}
		return fmt.Errorf("quote %s: %w", inst, err)
	}
	lim, err := c.symbolLimits(inst)
	if err != nil {
		if skippable(err) {
			log.Warn().Err(err).Msg("trade skipped")
			return nil
		}
		return fmt.Errorf("limits %s: %w", inst, err)
	}

	entry := q.EntryPrice(sig.Side)
	exits, err := risk.ComputeExits(sig.Side, entry, sig.Fast.ATR)
	if err != nil {
		log.Warn().Err(err).Msg("trade skipped")
		return nil
	}

	balance, err := retry.Value(c.ctx, c.calls, c.broker.Balance)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}

	size := risk.SizePosition(risk.Inputs{
		Balance:      balance,
		RiskPercent:  c.cfg.Risk.RiskPercent,
		StopDistance: math.Abs(entry - exits.StopLoss),
		PointSize:    lim.PointSize,
		PipValue:     lim.PipValue,
		VolumeMin:    lim.VolumeMin,
		VolumeMax:    lim.VolumeMax,
		Precision:    c.cfg.Risk.LotPrecision,
	})
	if size.FellBack {
		log.Warn().Float64("volume", size.Volume).Msg("sizing fell back to minimum volume")
	}

	decision := risk.Evaluate(c.cfg.Risk, risk.TradeIntent{
		Instrument: inst,
		Volume:     size.Volume,
		Entry:      entry,
		Stop:       exits.StopLoss,
		TakeProfit: exits.TakeProfit,
	}, risk.Exposure{OpenPositions: total(exp), OnInstrument: exp[inst]})
	if !decision.Allowed {
		log.Info().Str("violations", decision.String()).Msg("trade skipped")
		return nil
	}

	req := broker.OrderRequest{
		Instrument: inst,
		Side:       sig.Side,
		Volume:     size.Volume,
		Price:      entry,
		StopLoss:   exits.StopLoss,
		TakeProfit: exits.TakeProfit,
		ClientTag:  c.cfg.Trading.ClientTag,
	}
	c.report.Orders = append(c.report.Orders, req)

	if c.opts.DryRun {
		log.Info().Str("order", req.String()).Bool("dry_run", true).Msg("order accepted")
		exp[inst]++
		return nil
	}

	res, err := retry.Value(c.ctx, c.calls, func(ctx context.Context) (broker.OrderResult, error) {
		return c.broker.SubmitOrder(ctx, req)
	})
	switch {
	case err == nil:
		c.report.Results = append(c.report.Results, res)
		exp[inst]++
		log.Info().
			Str("ticket", res.Ticket).
			Float64("volume", res.Volume).
			Float64("price", res.FillPrice).
			Float64("stop_loss", req.StopLoss).
			Float64("take_profit", req.TakeProfit).
			Float64("risk_amount", size.RiskAmount).
			Msg("order accepted")
		return nil
	case errors.Is(err, broker.ErrOrderRejected):
		c.report.Rejected = append(c.report.Rejected, inst)
		log.Warn().Err(err).Str("order", req.String()).Msg("order rejected")
		return nil
	default:
		return fmt.Errorf("submit %s: %w", inst, err)
	}
}

func (c *cycle) quote(inst string) (market.Quote, error) {
	if q, ok := c.quotes[inst]; ok {
		return q, nil
	}
	q, err := retry.Value(c.ctx, c.calls, func(ctx context.Context) (market.Quote, error) {
		return c.broker.Quote(ctx, inst)
	})
	if err != nil {
		return market.Quote{}, err
	}
	c.quotes[inst] = q
	return q, nil
}

func (c *cycle) symbolLimits(inst string) (broker.SymbolLimits, error) {
	if lim, ok := c.limits[inst]; ok {
		return lim, nil
	}
	lim, err := retry.Value(c.ctx, c.calls, func(ctx context.Context) (broker.SymbolLimits, error) {
		return c.broker.SymbolLimits(ctx, inst)
	})
	if err != nil {
		return broker.SymbolLimits{}, err
	}
	c.limits[inst] = lim
	return lim, nil
}

// skippable errors cost one instrument its turn this cycle.
func skippable(err error) bool {
	return errors.Is(err, broker.ErrDataUnavailable) || errors.Is(err, indicators.ErrInsufficientData)
}

func exposure(positions []broker.Position) map[string]int {
	out := make(map[string]int, len(positions))
	for _, p := range positions {
		out[p.Instrument]++
	}
	return out
}

func total(exp map[string]int) int {
	n := 0
	for _, v := range exp {
		n += v
	}
	return n
}
