package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/export"
	"github.com/dhruvbantval/3128-odyssey/internal/models"

	"github.com/spf13/cobra"
)

func newBatteryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "battery",
		Aliases: []string{"b", "batteries"},
		Short:   "Manage the battery log",
		Long:    `Commands for reading and editing the battery record file.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return logToStderr(opts.cfg)
		},
	}

	cmd.AddCommand(
		newBatteryListCmd(opts),
		newBatterySummaryCmd(opts),
		newBatteryAddCmd(opts),
		newBatteryStatusCmd(opts),
		newBatteryClearCmd(opts),
		newBatteryExportCmd(opts),
	)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func newBatteryListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every battery record as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := newBatteryService(opts.cfg).ListRecords(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), records)
		},
	}
}

func newBatterySummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [battery_id]",
		Short: "Print health summaries, for all batteries or one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newBatteryService(opts.cfg)
			if len(args) == 1 {
				summary, err := svc.Summary(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			}

			summaries, err := svc.Summaries(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summaries)
		},
	}
}

func newBatteryAddCmd(opts *rootOptions) *cobra.Command {
	var (
		in          models.NewBatteryRecord
		status      string
		voltage     float64
		current     float64
		temperature float64
	)

	cmd := &cobra.Command{
		Use:   "add <battery_id>",
		Short: "Append a battery reading",
		Long: `Append a battery reading to the log.

Examples:
  narpit battery add B-07 --voltage 12.6 --temperature 31
  narpit battery add B-07 --voltage 12.1 --status charging --location cart`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.BatteryID = args[0]
			in.Status = models.BatteryState(status)
			if cmd.Flags().Changed("voltage") {
				in.Voltage = models.Float(voltage)
			}
			if cmd.Flags().Changed("current") {
				in.Current = models.Float(current)
			}
			if cmd.Flags().Changed("temperature") {
				in.Temperature = models.Float(temperature)
			}

			record, err := newBatteryService(opts.cfg).AddRecord(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), record)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&voltage, "voltage", 0, "Voltage in volts (required)")
	flags.Float64Var(&current, "current", 0, "Current in amps")
	flags.Float64VarP(&temperature, "temperature", "t", 0, "Temperature in °C")
	flags.StringVarP(&status, "status", "s", "", "charging, discharging or idle (default idle)")
	flags.StringVar(&in.Location, "location", "", "Where the battery is")
	flags.StringVar(&in.Grade, "grade", "", "Battery grade")
	flags.StringVar(&in.Tag, "tag", "", "Free-form tag")
	flags.StringVar(&in.Notes, "notes", "", "Notes")
	return cmd
}

func newBatteryStatusCmd(opts *rootOptions) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "status <battery_id> <charging|discharging|idle>",
		Short: "Change the state of a battery's latest record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := models.BatteryStatusUpdate{
				BatteryID: args[0],
				Status:    models.BatteryState(args[1]),
			}
			if cmd.Flags().Changed("notes") {
				update.Notes = &notes
			}

			record, err := newBatteryService(opts.cfg).UpdateStatus(cmd.Context(), update)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), record)
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Replace the record's notes")
	return cmd
}

func newBatteryClearCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every battery record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newBatteryService(opts.cfg).ClearRecords(cmd.Context(), yes); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All battery records deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return cmd
}

func newBatteryExportCmd(opts *rootOptions) *cobra.Command {
	var (
		formatName string
		out        string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the battery log to a csv, xlsx or json file",
		Long: `Write the battery log and per-battery summaries to a file.

Without --out the file is created in the configured export directory.
Use --out - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			svc := newBatteryService(opts.cfg)

			if out == "-" {
				return svc.Export(cmd.Context(), cmd.OutOrStdout(), format)
			}
			if out == "" {
				out = filepath.Join(opts.cfg.Export.OutputDir, format.FileName(time.Now()))
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := svc.Export(cmd.Context(), f, format); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "csv", "csv, xlsx or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path, - for stdout")
	return cmd
}
