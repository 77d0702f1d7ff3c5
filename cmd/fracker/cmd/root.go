// Package cmd provides the command-line interface of fracker.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"

	"github.com/fracker/fracker/config"
	"github.com/fracker/fracker/logging"
)

var (
	cfg    = config.Default()
	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fracker",
	Short: "Fracker streams trace events of a running program to a collector.",
	Long: `Fracker streams trace events of a running program to a collector ` +
		`as line-delimited JSON. It can run a reference collector and send ` +
		`a probe trace through any of the trace backends.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringSlice("env", nil,
		"Load settings from these .env files (default .env)")
}

// setup loads the configuration and builds the logger shared by the
// subcommands.
func setup(cmd *cobra.Command, _ []string) error {
	files, _ := cmd.Flags().GetStringSlice("env")

	loaded, err := config.Load(files...)
	if err != nil {
		return err
	}

	cfg = loaded

	l, err := logging.New(cfg.LogConfig())
	if err != nil {
		return err
	}

	logger = l

	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Outputs registered for closing at exit are closed before
// the process ends.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()

	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
