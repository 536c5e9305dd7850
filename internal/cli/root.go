package cli

import (
	"os"

	"github.com/dhruvbantval/3128-odyssey/internal/config"
	"github.com/dhruvbantval/3128-odyssey/internal/logger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	verbose    bool
	cfg        *config.Config
}

// NewRootCmd builds the narpit command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "narpit",
		Short: "Pit dashboard for battery telemetry and live FRC event data",
		Long: `narpit tracks robot battery readings and keeps a live view of the
current FRC event (matches, rankings, EPA and queueing status).

Run "narpit serve" for the HTTP API, or use the battery commands to
manage the battery log from a terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.App.LogLevel = "debug"
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Config file (yaml, json or toml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd(opts), newBatteryCmd(opts))
	return cmd
}

// Execute runs the CLI and reports a failure on stderr.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		return err
	}
	return nil
}

// logToStderr keeps stdout free for command output.
func logToStderr(cfg *config.Config) error {
	return logger.SetOutput(os.Stderr, cfg.App.LogLevel)
}
