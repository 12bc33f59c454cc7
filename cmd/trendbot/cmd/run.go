package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rustyeddy/trendbot/bot"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the decision loop until interrupted",
	Long: `Connect to the configured broker and run the decision loop.

The loop stops cleanly on SIGINT or SIGTERM once the current cycle has
finished. A failed connection check at startup exits non-zero.

Example:
  OANDA_TOKEN=... trendbot run -c trendbot.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Close()

	b, closer, err := openBroker(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	bt, err := bot.New(cfg, b, log.Logger, bot.Options{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return bt.Run(ctx)
}
