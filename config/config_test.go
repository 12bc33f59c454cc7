package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/trendbot/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, BrokerPaper, cfg.Broker.Kind)
	assert.Equal(t, 1.0, cfg.Risk.RiskPercent)
	assert.Equal(t, 3, cfg.Risk.MaxPositions)
	assert.False(t, cfg.Risk.AllowStacking)
	assert.Equal(t, 500, cfg.Trading.BarCount)
	assert.Equal(t, 50.0, cfg.Trailing.Trigger)
	assert.Equal(t, 0.5, cfg.Trailing.Ratio)
	assert.Equal(t, 5*time.Second, cfg.Schedule.IntervalDuration())
	assert.Equal(t, time.Minute, cfg.Schedule.FaultBackoffDuration())
	assert.NoError(t, cfg.Validate())

	tfs, err := cfg.Timeframes()
	require.NoError(t, err)
	assert.Equal(t, []market.Timeframe{market.M5, market.M15, market.H1}, tfs)

	r := cfg.Retry()
	assert.Equal(t, 10*time.Second, r.Timeout)
	assert.Equal(t, time.Second, r.Backoff)
	assert.Equal(t, 1, r.Retries)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mod    func(*Config)
		errMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"unknown broker", func(c *Config) { c.Broker.Kind = "mt5" }, "broker.kind"},
		{"oanda without token", func(c *Config) {
			c.Broker.Kind = BrokerOANDA
			c.Broker.OANDA.AccountID = "101-001-1-001"
		}, "broker.oanda.token is required"},
		{"oanda complete", func(c *Config) {
			c.Broker.Kind = BrokerOANDA
			c.Broker.OANDA.AccountID = "101-001-1-001"
			c.Broker.OANDA.Token = "secret"
		}, ""},
		{"paper without balance", func(c *Config) { c.Broker.Paper.Balance = 0 }, "broker.paper.balance must be positive"},
		{"no instruments", func(c *Config) { c.Trading.Instruments = nil }, "trading.instruments is required"},
		{"bad instrument", func(c *Config) { c.Trading.Instruments = []string{"EURUSD"} }, "unknown instrument"},
		{"bad timeframe", func(c *Config) { c.Trading.Timeframes = []string{"M5", "W1"} }, "unsupported timeframe"},
		{"timeframes out of order", func(c *Config) { c.Trading.Timeframes = []string{"H1", "M5"} }, "fastest first"},
		{"unknown policy", func(c *Config) { c.Trading.Policy = "martingale" }, "trading.policy"},
		{"too few bars", func(c *Config) { c.Trading.BarCount = 150 }, "bar_count 150"},
		{"zero period", func(c *Config) { c.Indicators.RSI = 0 }, "period rsi"},
		{"risk too high", func(c *Config) { c.Risk.RiskPercent = 150 }, "risk.risk_percent"},
		{"zero risk", func(c *Config) { c.Risk.RiskPercent = 0 }, "risk.risk_percent"},
		{"negative max positions", func(c *Config) { c.Risk.MaxPositions = -1 }, "risk.max_positions"},
		{"ratio of one", func(c *Config) { c.Trailing.Ratio = 1 }, "trailing.ratio"},
		{"bad mode", func(c *Config) { c.Schedule.Mode = "tick" }, "schedule.mode"},
		{"bad interval", func(c *Config) { c.Schedule.Interval = "soon" }, "schedule.interval"},
		{"bar close cron", func(c *Config) {
			c.Schedule.Mode = ModeBarClose
			c.Schedule.Cron = "5 */5 * * * *"
		}, ""},
		{"bad cron", func(c *Config) {
			c.Schedule.Mode = ModeBarClose
			c.Schedule.Cron = "every five minutes"
		}, "schedule.cron"},
		{"negative fault backoff", func(c *Config) { c.Schedule.FaultBackoff = "-1s" }, "schedule.fault_backoff must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Trading.Instruments = []string{"AUD_USD"}
			cfg.Risk.RiskPercent = 0.5
			cfg.Broker.OANDA.Token = "do-not-save"
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotContains(t, string(data), "do-not-save")

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg.Trading.Instruments, loaded.Trading.Instruments)
			assert.Equal(t, 0.5, loaded.Risk.RiskPercent)
			assert.Equal(t, cfg.Indicators, loaded.Indicators)
			assert.Equal(t, cfg.Schedule, loaded.Schedule)
			assert.Equal(t, cfg.Trailing, loaded.Trailing)
		})
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
trading:
  instruments: [USD_CAD]
risk:
  risk_percent: 2
  max_positions: 1
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"USD_CAD"}, cfg.Trading.Instruments)
	assert.Equal(t, []string{"M5", "M15", "H1"}, cfg.Trading.Timeframes)
	assert.Equal(t, 2.0, cfg.Risk.RiskPercent)
	assert.Equal(t, 1, cfg.Risk.MaxPositions)
	assert.Equal(t, 200, cfg.Indicators.SMASlow)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("risk:\n  risk_percent: -3\n"), 0o644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "invalid config")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OANDA_TOKEN":      "tok",
		"OANDA_ACCOUNT_ID": "101-001-1-001",
		"TRENDBOT_BROKER":  "oanda",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, "tok", cfg.Broker.OANDA.Token)
	assert.Equal(t, "101-001-1-001", cfg.Broker.OANDA.AccountID)
	assert.Equal(t, BrokerOANDA, cfg.Broker.Kind)
	assert.NoError(t, cfg.Validate())
}
