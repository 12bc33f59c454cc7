package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/trendbot/barstore"
	"github.com/rustyeddy/trendbot/market"
	"github.com/spf13/cobra"
)

var barsCmd = &cobra.Command{
	Use:   "bars",
	Short: "Manage the local bar store used by the paper broker",
	Long: `Load and inspect historical bars in the SQLite bar store.

Subcommands:
  import    - Import bars from a CSV file
  dukascopy - Download Dukascopy ticks and aggregate them into bars
  oanda     - Copy recent candles from OANDA
  list      - Show stored series

Examples:
  trendbot bars import -i EUR_USD -t M5 -f eurusd-m5.csv
  trendbot bars dukascopy -i EUR_USD --from 2024-03-04 --to 2024-03-05
  trendbot bars list`,
}

var barsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import bars from a CSV file",
	Long: `Import bars from a CSV file of time,open,high,low,close[,volume].
Times are RFC3339 or unix seconds; an optional header row is skipped.`,
	RunE: runBarsImport,
}

var barsDukascopyCmd = &cobra.Command{
	Use:   "dukascopy",
	Short: "Download Dukascopy ticks and aggregate them into bars",
	RunE:  runBarsDukascopy,
}

var barsOANDACmd = &cobra.Command{
	Use:   "oanda",
	Short: "Copy recent completed candles from OANDA",
	RunE:  runBarsOANDA,
}

var barsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show stored series",
	RunE:  runBarsList,
}

var (
	barsInstrument string
	barsTimeframe  string
	barsFile       string
	barsFrom       string
	barsTo         string
	barsTimeframes []string
	barsCount      int
	barsBaseURL    string
)

func init() {
	rootCmd.AddCommand(barsCmd)
	barsCmd.AddCommand(barsImportCmd)
	barsCmd.AddCommand(barsDukascopyCmd)
	barsCmd.AddCommand(barsOANDACmd)
	barsCmd.AddCommand(barsListCmd)

	barsImportCmd.Flags().StringVarP(&barsInstrument, "instrument", "i", "", "instrument, e.g. EUR_USD (required)")
	barsImportCmd.Flags().StringVarP(&barsTimeframe, "timeframe", "t", "", "bar timeframe, e.g. M5 (required)")
	barsImportCmd.Flags().StringVarP(&barsFile, "file", "f", "", "CSV file (required)")
	barsImportCmd.MarkFlagRequired("instrument")
	barsImportCmd.MarkFlagRequired("timeframe")
	barsImportCmd.MarkFlagRequired("file")

	barsDukascopyCmd.Flags().StringVarP(&barsInstrument, "instrument", "i", "", "instrument, e.g. EUR_USD (required)")
	barsDukascopyCmd.Flags().StringVar(&barsFrom, "from", "", "start date, YYYY-MM-DD or RFC3339 (required)")
	barsDukascopyCmd.Flags().StringVar(&barsTo, "to", "", "end date, exclusive (required)")
	barsDukascopyCmd.Flags().StringSliceVar(&barsTimeframes, "timeframes", nil, "timeframes to build; defaults to the configured ones")
	barsDukascopyCmd.Flags().StringVar(&barsBaseURL, "url", barstore.DukascopyURL, "datafeed base URL")
	barsDukascopyCmd.MarkFlagRequired("instrument")
	barsDukascopyCmd.MarkFlagRequired("from")
	barsDukascopyCmd.MarkFlagRequired("to")

	barsOANDACmd.Flags().StringVarP(&barsInstrument, "instrument", "i", "", "instrument; defaults to all configured")
	barsOANDACmd.Flags().IntVarP(&barsCount, "count", "n", 500, "candles per timeframe")
}

func openStore() (*barstore.SQLite, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return barstore.NewSQLite(cfg.Broker.Paper.BarsDB)
}

func runBarsImport(cmd *cobra.Command, args []string) error {
	tf, err := market.ParseTimeframe(barsTimeframe)
	if err != nil {
		return err
	}
	f, err := os.Open(barsFile)
	if err != nil {
		return err
	}
	defer f.Close()

	bars, err := barstore.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", barsFile, err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InsertBars(cmd.Context(), barsInstrument, tf, bars); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d %s %s bars\n", len(bars), barsInstrument, tf)
	return nil
}

func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

func runBarsDukascopy(cmd *cobra.Command, args []string) error {
	from, err := parseDay(barsFrom)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parseDay(barsTo)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if !to.After(from) {
		return fmt.Errorf("--to must be after --from")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	names := barsTimeframes
	if len(names) == 0 {
		names = cfg.Trading.Timeframes
	}
	tfs := make([]market.Timeframe, 0, len(names))
	for _, n := range names {
		tf, err := market.ParseTimeframe(n)
		if err != nil {
			return err
		}
		tfs = append(tfs, tf)
	}

	store, err := barstore.NewSQLite(cfg.Broker.Paper.BarsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	client := &http.Client{Timeout: 30 * time.Second}
	symbol := strings.ToUpper(strings.ReplaceAll(barsInstrument, "_", ""))

	var ticks []barstore.Tick
	for h := from.Truncate(time.Hour); h.Before(to); h = h.Add(time.Hour) {
		got, err := barstore.FetchHour(ctx, client, barsBaseURL, symbol, h)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", h.Format(time.RFC3339), err)
		}
		ticks = append(ticks, got...)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Downloaded %d ticks for %s\n", len(ticks), barsInstrument)
	for _, tf := range tfs {
		bars := barstore.AggregateTicks(ticks, tf)
		if err := store.InsertBars(ctx, barsInstrument, tf, bars); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Stored %d %s bars\n", len(bars), tf)
	}
	return nil
}

func runBarsOANDA(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tfs, err := cfg.Timeframes()
	if err != nil {
		return err
	}
	insts := cfg.Trading.Instruments
	if barsInstrument != "" {
		insts = []string{barsInstrument}
	}

	store, err := barstore.NewSQLite(cfg.Broker.Paper.BarsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	client := newOANDA(cfg)
	out := cmd.OutOrStdout()
	for _, inst := range insts {
		for _, tf := range tfs {
			bars, err := client.Bars(ctx, inst, tf, barsCount)
			if err != nil {
				return fmt.Errorf("%s %s: %w", inst, tf, err)
			}
			if err := store.InsertBars(ctx, inst, tf, bars); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Stored %d %s %s bars\n", len(bars), inst, tf)
		}
	}
	return nil
}

func runBarsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	ranges, err := store.Ranges(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(ranges) == 0 {
		fmt.Fprintln(out, "No bars stored")
		return nil
	}
	for _, r := range ranges {
		fmt.Fprintf(out, "%-8s %-4s %6d  %s .. %s\n",
			r.Instrument, r.Timeframe, r.Count,
			r.First.Format(time.RFC3339), r.Last.Format(time.RFC3339))
	}
	return nil
}
