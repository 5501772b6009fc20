package commands

import (
	"github.com/agrospai/fastrag/internal/app"
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch and parse the sources, then run every experiment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			verbose, _ := cmd.Flags().GetBool("verbose")
			outputMode, _ := cmd.Flags().GetString("output")
			ci, _ := cmd.Flags().GetBool("ci")
			watch, _ := cmd.Flags().GetBool("watch")
			traceFile, _ := cmd.Flags().GetString("trace")
			metricsFile, _ := cmd.Flags().GetString("metrics-file")

			// If --ci is set, override output to "linear"
			if ci {
				outputMode = "linear"
			}

			return c.app.Run(cmd.Context(), app.RunOptions{
				ConfigPath:  configPath,
				Verbose:     verbose,
				OutputMode:  outputMode,
				Watch:       watch,
				TraceFile:   traceFile,
				MetricsFile: metricsFile,
			})
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to the configuration file (default: discovered from the working directory)")
	cmd.Flags().BoolP("verbose", "v", false, "Show progress events")
	cmd.Flags().StringP("output", "o", "auto", "Output mode: auto, tui, or linear")
	cmd.Flags().Bool("ci", false, "Use linear output mode (shorthand for --output=linear)")
	cmd.Flags().BoolP("watch", "w", false, "Re-run when the configuration or local sources change")
	cmd.Flags().String("trace", "", "Write OpenTelemetry spans as JSON to this file")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file when the run ends")
	return cmd
}
