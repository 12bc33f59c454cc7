package strategies

import "github.com/rustyeddy/trendbot/analysis"

// Noop never enters. Useful to run the bot in manage-only mode.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Decide(instrument string, _ []analysis.Condition) Signal {
	return flat(instrument, "noop policy")
}
