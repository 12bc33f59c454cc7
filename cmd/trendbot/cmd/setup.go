package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rustyeddy/trendbot/barstore"
	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/broker/oanda"
	"github.com/rustyeddy/trendbot/broker/paper"
	"github.com/rustyeddy/trendbot/config"
	"github.com/rustyeddy/trendbot/internal/logging"
)

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	cfg := config.Default()
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	return logging.New(cfg.Log, w)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newOANDA(cfg *config.Config) *oanda.Client {
	return oanda.NewClient(oanda.Config{
		BaseURL:     cfg.Broker.OANDA.BaseURL,
		Token:       cfg.Broker.OANDA.Token,
		AccountID:   cfg.Broker.OANDA.AccountID,
		UnitsPerLot: cfg.Broker.OANDA.UnitsPerLot,
	})
}

// openBroker returns the configured broker and whatever must be closed
// with it.
func openBroker(cfg *config.Config) (broker.Broker, io.Closer, error) {
	switch cfg.Broker.Kind {
	case config.BrokerOANDA:
		return newOANDA(cfg), nopCloser{}, nil

	case config.BrokerPaper:
		tfs, err := cfg.Timeframes()
		if err != nil {
			return nil, nil, err
		}
		store, err := barstore.NewSQLite(cfg.Broker.Paper.BarsDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open bar store: %w", err)
		}
		pb := paper.New(paper.Config{
			Currency:       cfg.Broker.Paper.Currency,
			Balance:        cfg.Broker.Paper.Balance,
			SpreadPoints:   cfg.Broker.Paper.SpreadPoints,
			VolumeMin:      cfg.Broker.Paper.VolumeMin,
			VolumeMax:      cfg.Broker.Paper.VolumeMax,
			QuoteTimeframe: tfs[0],
		}, store)
		return pb, store, nil

	default:
		return nil, nil, fmt.Errorf("unknown broker kind %q", cfg.Broker.Kind)
	}
}
