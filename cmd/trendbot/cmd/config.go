package cmd

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/trendbot/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage trendbot configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  trendbot config init -o trendbot.yaml
  trendbot config validate -f trendbot.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings. The OANDA
token is never written; supply it through OANDA_TOKEN.

Example:
  trendbot config init -o trendbot.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check that a configuration file loads and passes validation.

Example:
  trendbot config validate -f trendbot.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "trendbot.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  trendbot run -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Broker: %s\n", cfg.Broker.Kind)
	fmt.Fprintf(out, "  Instruments: %s\n", strings.Join(cfg.Trading.Instruments, ", "))
	fmt.Fprintf(out, "  Timeframes: %s (%s)\n", strings.Join(cfg.Trading.Timeframes, ", "), cfg.Trading.Policy)
	fmt.Fprintf(out, "  Risk: %.2f%% per trade, max %d positions\n", cfg.Risk.RiskPercent, cfg.Risk.MaxPositions)
	fmt.Fprintf(out, "  Schedule: %s\n", cfg.Schedule.Mode)
	return nil
}
