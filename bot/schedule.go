package bot

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rustyeddy/trendbot/config"
	"github.com/rustyeddy/trendbot/market"
)

// intervalSchedule fires a fixed period after the previous cycle ended.
// cron.Every rounds to whole seconds, which is too coarse for tests and
// sub-second polling.
type intervalSchedule struct {
	period time.Duration
}

func (s intervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.period)
}

// NewSchedule builds the cycle cadence. Bar-close mode fires on every
// close of the fast timeframe unless an explicit cron expression is set.
func NewSchedule(sc config.ScheduleConfig, fast market.Timeframe) (cron.Schedule, error) {
	switch sc.Mode {
	case config.ModeInterval, "":
		return intervalSchedule{period: sc.IntervalDuration()}, nil
	case config.ModeBarClose:
		spec := sc.Cron
		if spec == "" {
			s, err := fast.CronSpec()
			if err != nil {
				return nil, err
			}
			spec = s
		}
		sched, err := config.CronParser.Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", spec, err)
		}
		return sched, nil
	default:
		return nil, fmt.Errorf("unknown schedule mode %q", sc.Mode)
	}
}
