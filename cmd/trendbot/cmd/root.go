package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trendbot",
	Short: "Multi-timeframe FX trend trading bot",
	Long: `Trendbot trades FX trends that agree across timeframes.

Every cycle it:
  - classifies each instrument on the configured timeframes
  - trails stops on open positions as profit builds
  - enters aligned trends with ATR-based stops and risk-sized volume

It trades through OANDA or a paper broker fed from a local bar store.`,
	SilenceUsage: true,
}

var configPath string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (YAML or JSON); defaults apply when empty")
}
