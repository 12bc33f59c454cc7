package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/rustyeddy/trendbot/bot"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one dry-run cycle and print what it would do",
	Long: `Evaluate every instrument once without submitting orders or moving
stops, then print conditions, signals and the orders that would be sent.

Example:
  trendbot evaluate -c trendbot.yaml`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
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

	bt, err := bot.New(cfg, b, log.Logger, bot.Options{DryRun: true})
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := bt.Connect(ctx); err != nil {
		return err
	}
	r, err := bt.Cycle(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cycle %s\n", r.ID)

	insts := make([]string, 0, len(r.Conditions))
	for inst := range r.Conditions {
		insts = append(insts, inst)
	}
	sort.Strings(insts)
	for _, inst := range insts {
		fmt.Fprintf(out, "  %s\n", inst)
		for _, c := range r.Conditions[inst] {
			fmt.Fprintf(out, "    %s\n", c)
		}
	}
	skipped := make([]string, 0, len(r.Skipped))
	for inst := range r.Skipped {
		skipped = append(skipped, inst)
	}
	sort.Strings(skipped)
	for _, inst := range skipped {
		fmt.Fprintf(out, "  %s skipped: %s\n", inst, r.Skipped[inst])
	}

	fmt.Fprintf(out, "\nSignals: %d\n", len(r.Signals))
	for _, s := range r.Signals {
		fmt.Fprintf(out, "  %s %s (%s)\n", s.Side, s.Instrument, s.Reason)
	}
	fmt.Fprintf(out, "Orders: %d\n", len(r.Orders))
	for _, o := range r.Orders {
		fmt.Fprintf(out, "  %s\n", o)
	}
	fmt.Fprintf(out, "Stop changes: %d\n", len(r.Modified))
	for _, m := range r.Modified {
		fmt.Fprintf(out, "  %s %s sl=%.5f\n", m.Ticket, m.Instrument, m.StopLoss)
	}
	return nil
}
