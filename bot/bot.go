// Package bot runs the decision loop: classify every instrument, trail
// stops on open positions, then turn signals into sized orders.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/config"
	"github.com/rustyeddy/trendbot/internal/retry"
	"github.com/rustyeddy/trendbot/market"
	"github.com/rustyeddy/trendbot/pkg/id"
	"github.com/rustyeddy/trendbot/position"
	"github.com/rustyeddy/trendbot/strategies"
)

type State int32

const (
	Idle State = iota
	Evaluating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Evaluating:
		return "evaluating"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

type Options struct {
	// DryRun evaluates and logs but never submits orders or modifies stops.
	DryRun bool

	// Now is the clock used for scheduling; time.Now when nil.
	Now func() time.Time
}

type Bot struct {
	cfg        *config.Config
	broker     broker.Broker
	policy     strategies.Policy
	trailing   position.Manager
	timeframes []market.Timeframe
	schedule   cron.Schedule
	calls      retry.Policy
	backoff    time.Duration
	log        zerolog.Logger
	ids        *id.Generator
	opts       Options

	state atomic.Int32
}

// New wires a bot. cfg must not be modified afterwards.
func New(cfg *config.Config, b broker.Broker, log zerolog.Logger, opts Options) (*Bot, error) {
	if cfg == nil || b == nil {
		return nil, errors.New("bot needs a config and a broker")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tfs, err := cfg.Timeframes()
	if err != nil {
		return nil, err
	}
	policy, err := strategies.PolicyByName(cfg.Trading.Policy)
	if err != nil {
		return nil, err
	}
	sched, err := NewSchedule(cfg.Schedule, tfs[0])
	if err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	calls := cfg.Retry()
	calls.Permanent = func(err error) bool {
		return errors.Is(err, broker.ErrOrderRejected) || errors.Is(err, broker.ErrConnection)
	}

	return &Bot{
		cfg:        cfg,
		broker:     b,
		policy:     policy,
		trailing:   cfg.Trailing,
		timeframes: tfs,
		schedule:   sched,
		calls:      calls,
		backoff:    cfg.Schedule.FaultBackoffDuration(),
		log:        log,
		ids:        id.NewGenerator(opts.Now),
		opts:       opts,
	}, nil
}

func (b *Bot) State() State {
	return State(b.state.Load())
}

// Connect probes the account. Failure is broker.ErrConnection.
func (b *Bot) Connect(ctx context.Context) (float64, error) {
	bal, err := retry.Value(ctx, b.calls, b.broker.Balance)
	if err != nil {
		b.log.Error().Err(err).Msg("connection failed")
		if !errors.Is(err, broker.ErrConnection) {
			err = fmt.Errorf("%w: %w", broker.ErrConnection, err)
		}
		return 0, err
	}
	b.log.Info().
		Float64("balance", bal).
		Strs("instruments", b.cfg.Trading.Instruments).
		Str("policy", b.policy.Name()).
		Bool("dry_run", b.opts.DryRun).
		Msg("connection established")
	return bal, nil
}

// Run verifies the connection, then cycles until ctx is cancelled. A
// failed cycle is logged and followed by the fault backoff; only the
// initial connection check ends Run with an error. Cancellation is
// observed between cycles, never inside one.
func (b *Bot) Run(ctx context.Context) error {
	if _, err := b.Connect(ctx); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			b.log.Info().Msg("decision loop stopped")
			return nil
		}

		_, err := b.runCycle(ctx)
		now := b.opts.Now()
		wait := b.schedule.Next(now).Sub(now)
		if err != nil {
			wait = b.backoff
			b.log.Error().Err(err).Dur("retry_in", wait).Msg("cycle fault")
		}

		if !sleep(ctx, wait) {
			b.log.Info().Msg("decision loop stopped")
			return nil
		}
	}
}

func (b *Bot) runCycle(ctx context.Context) (*Report, error) {
	b.state.Store(int32(Evaluating))
	defer b.state.Store(int32(Idle))
	return b.Cycle(context.WithoutCancel(ctx))
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
