package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rustyeddy/trendbot/indicators"
	"github.com/rustyeddy/trendbot/internal/logging"
	"github.com/rustyeddy/trendbot/internal/retry"
	"github.com/rustyeddy/trendbot/market"
	"github.com/rustyeddy/trendbot/position"
	"github.com/rustyeddy/trendbot/risk"
	"github.com/rustyeddy/trendbot/strategies"
	"gopkg.in/yaml.v3"
)

// Config is the complete bot configuration. It is not modified after
// Validate succeeds.
type Config struct {
	Broker     BrokerConfig       `json:"broker" yaml:"broker"`
	Trading    TradingConfig      `json:"trading" yaml:"trading"`
	Indicators indicators.Periods `json:"indicators" yaml:"indicators"`
	Risk       risk.Policy        `json:"risk" yaml:"risk"`
	Trailing   position.Manager   `json:"trailing" yaml:"trailing"`
	Schedule   ScheduleConfig     `json:"schedule" yaml:"schedule"`
	Log        logging.Config     `json:"log" yaml:"log"`
}

// BrokerConfig selects and configures the broker adapter.
type BrokerConfig struct {
	Kind  string      `json:"kind" yaml:"kind"` // "oanda" or "paper"
	OANDA OANDAConfig `json:"oanda" yaml:"oanda"`
	Paper PaperConfig `json:"paper" yaml:"paper"`
}

type OANDAConfig struct {
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	Token       string  `json:"token,omitempty" yaml:"token,omitempty"`
	AccountID   string  `json:"account_id" yaml:"account_id"`
	UnitsPerLot float64 `json:"units_per_lot" yaml:"units_per_lot"`
}

type PaperConfig struct {
	Currency     string  `json:"currency" yaml:"currency"`
	Balance      float64 `json:"balance" yaml:"balance"`
	BarsDB       string  `json:"bars_db" yaml:"bars_db"`
	SpreadPoints float64 `json:"spread_points" yaml:"spread_points"`
	VolumeMin    float64 `json:"volume_min" yaml:"volume_min"`
	VolumeMax    float64 `json:"volume_max" yaml:"volume_max"`
}

// TradingConfig lists what is traded. Timeframes are ordered fastest
// first; the first one drives RSI filtering and ATR exits.
type TradingConfig struct {
	Instruments []string `json:"instruments" yaml:"instruments"`
	Timeframes  []string `json:"timeframes" yaml:"timeframes"`
	BarCount    int      `json:"bar_count" yaml:"bar_count"`
	Policy      string   `json:"policy" yaml:"policy"`
	ClientTag   string   `json:"client_tag" yaml:"client_tag"`
}

// ScheduleConfig controls the decision loop cadence. Durations are Go
// duration strings, e.g. "5s", "1m".
type ScheduleConfig struct {
	Mode         string `json:"mode" yaml:"mode"` // "interval" or "bar-close"
	Interval     string `json:"interval" yaml:"interval"`
	Cron         string `json:"cron,omitempty" yaml:"cron,omitempty"`
	FaultBackoff string `json:"fault_backoff" yaml:"fault_backoff"`
	CallTimeout  string `json:"call_timeout" yaml:"call_timeout"`
	RetryBackoff string `json:"retry_backoff" yaml:"retry_backoff"`
}

const (
	ModeInterval = "interval"
	ModeBarClose = "bar-close"

	BrokerOANDA = "oanda"
	BrokerPaper = "paper"

	OANDAPracticeURL = "https://api-fxpractice.oanda.com"
)

// CronParser accepts an optional seconds field and descriptors such as
// @every or @hourly.
var CronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// LoadFromFile loads configuration from a file (JSON or YAML), on top of
// the defaults, then applies environment overrides and validates.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides broker secrets from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("OANDA_TOKEN"); ok && v != "" {
		c.Broker.OANDA.Token = v
	}
	if v, ok := lookup("OANDA_ACCOUNT_ID"); ok && v != "" {
		c.Broker.OANDA.AccountID = v
	}
	if v, ok := lookup("TRENDBOT_BROKER"); ok && v != "" {
		c.Broker.Kind = v
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
// The OANDA token is never written.
func (c *Config) SaveToFile(path string) error {
	out := *c
	out.Broker.OANDA.Token = ""

	var data []byte
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(&out)
	} else {
		data, err = json.MarshalIndent(&out, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch c.Broker.Kind {
	case BrokerOANDA:
		if c.Broker.OANDA.Token == "" {
			errs = append(errs, errors.New("broker.oanda.token is required (or set OANDA_TOKEN)"))
		}
		if c.Broker.OANDA.AccountID == "" {
			errs = append(errs, errors.New("broker.oanda.account_id is required (or set OANDA_ACCOUNT_ID)"))
		}
		if c.Broker.OANDA.UnitsPerLot <= 0 {
			errs = append(errs, errors.New("broker.oanda.units_per_lot must be positive"))
		}
	case BrokerPaper:
		if c.Broker.Paper.Balance <= 0 {
			errs = append(errs, errors.New("broker.paper.balance must be positive"))
		}
		if c.Broker.Paper.Currency == "" {
			errs = append(errs, errors.New("broker.paper.currency is required"))
		}
		if c.Broker.Paper.BarsDB == "" {
			errs = append(errs, errors.New("broker.paper.bars_db is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("broker.kind must be %q or %q", BrokerOANDA, BrokerPaper))
	}

	if len(c.Trading.Instruments) == 0 {
		errs = append(errs, errors.New("trading.instruments is required"))
	}
	for _, inst := range c.Trading.Instruments {
		if _, err := market.LookupInstrument(inst); err != nil {
			errs = append(errs, fmt.Errorf("trading.instruments: %w", err))
		}
	}
	if _, err := c.Timeframes(); err != nil {
		errs = append(errs, err)
	}
	if _, err := strategies.PolicyByName(c.Trading.Policy); err != nil {
		errs = append(errs, fmt.Errorf("trading.policy: %w", err))
	}

	if err := c.Indicators.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("indicators: %w", err))
	} else if c.Trading.BarCount < c.Indicators.Warmup() {
		errs = append(errs, fmt.Errorf("trading.bar_count %d is below the %d bars indicators need",
			c.Trading.BarCount, c.Indicators.Warmup()))
	}

	if c.Risk.RiskPercent <= 0 || c.Risk.RiskPercent > 100 {
		errs = append(errs, errors.New("risk.risk_percent must be in (0, 100]"))
	}
	if c.Risk.MaxPositions < 0 {
		errs = append(errs, errors.New("risk.max_positions must not be negative"))
	}
	if c.Risk.LotPrecision < 0 {
		errs = append(errs, errors.New("risk.lot_precision must not be negative"))
	}

	if c.Trailing.Trigger <= 0 {
		errs = append(errs, errors.New("trailing.trigger_points must be positive"))
	}
	if c.Trailing.Ratio <= 0 || c.Trailing.Ratio >= 1 {
		errs = append(errs, errors.New("trailing.ratio must be in (0, 1)"))
	}

	switch c.Schedule.Mode {
	case ModeInterval:
		if d, err := parsePositive("schedule.interval", c.Schedule.Interval); err != nil {
			errs = append(errs, err)
		} else if d < 10*time.Millisecond {
			errs = append(errs, errors.New("schedule.interval must be at least 10ms"))
		}
	case ModeBarClose:
		if c.Schedule.Cron != "" {
			if _, err := CronParser.Parse(c.Schedule.Cron); err != nil {
				errs = append(errs, fmt.Errorf("schedule.cron: %w", err))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("schedule.mode must be %q or %q", ModeInterval, ModeBarClose))
	}
	for name, v := range map[string]string{
		"schedule.fault_backoff": c.Schedule.FaultBackoff,
		"schedule.call_timeout":  c.Schedule.CallTimeout,
		"schedule.retry_backoff": c.Schedule.RetryBackoff,
	} {
		if _, err := parsePositive(name, v); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Timeframes parses the configured timeframes and checks they are ordered
// fastest first.
func (c *Config) Timeframes() ([]market.Timeframe, error) {
	if len(c.Trading.Timeframes) == 0 {
		return nil, errors.New("trading.timeframes is required")
	}
	out := make([]market.Timeframe, 0, len(c.Trading.Timeframes))
	for i, s := range c.Trading.Timeframes {
		tf, err := market.ParseTimeframe(s)
		if err != nil {
			return nil, fmt.Errorf("trading.timeframes: %w", err)
		}
		if i > 0 && tf.Duration() <= out[i-1].Duration() {
			return nil, fmt.Errorf("trading.timeframes must be ordered fastest first: %s after %s", tf, out[i-1])
		}
		out = append(out, tf)
	}
	return out, nil
}

// Retry is the call policy every broker request runs under.
func (c *Config) Retry() retry.Policy {
	p := retry.Default()
	if d, err := time.ParseDuration(c.Schedule.CallTimeout); err == nil {
		p.Timeout = d
	}
	if d, err := time.ParseDuration(c.Schedule.RetryBackoff); err == nil {
		p.Backoff = d
	}
	return p
}

// FaultBackoffDuration is the pause after a failed cycle.
func (s ScheduleConfig) FaultBackoffDuration() time.Duration {
	d, err := time.ParseDuration(s.FaultBackoff)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

func (s ScheduleConfig) IntervalDuration() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

func parsePositive(name, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}

// Default returns a configuration with sensible defaults: three majors on
// M5/M15/H1, 1% risk and at most three open positions, traded on the
// paper broker.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			Kind: BrokerPaper,
			OANDA: OANDAConfig{
				BaseURL:     OANDAPracticeURL,
				UnitsPerLot: 100000,
			},
			Paper: PaperConfig{
				Currency:     "USD",
				Balance:      10000,
				BarsDB:       "./bars.db",
				SpreadPoints: 10,
				VolumeMin:    0.01,
				VolumeMax:    100,
			},
		},
		Trading: TradingConfig{
			Instruments: []string{"EUR_USD", "GBP_USD", "USD_JPY"},
			Timeframes:  []string{"M5", "M15", "H1"},
			BarCount:    500,
			Policy:      "alignment",
			ClientTag:   "trendbot",
		},
		Indicators: indicators.DefaultPeriods(),
		Risk:       risk.DefaultPolicy(),
		Trailing:   position.NewManager(),
		Schedule: ScheduleConfig{
			Mode:         ModeInterval,
			Interval:     "5s",
			FaultBackoff: "60s",
			CallTimeout:  "10s",
			RetryBackoff: "1s",
		},
		Log: logging.DefaultConfig(),
	}
}
