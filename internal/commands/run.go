// internal/commands/run.go
package enginemark

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/enginemark/internal/bench"
	"github.com/mwiater/enginemark/internal/chart"
	"github.com/mwiater/enginemark/internal/logging"
	"github.com/mwiater/enginemark/internal/report"
	"github.com/mwiater/enginemark/internal/tui"
)

// runCmd executes the full benchmark: warmup and every concurrency level
// against engine A, then engine B, followed by the report and chart.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Benchmark both engines and report the comparison",
	Long: `Run sends warmup traffic and then every configured concurrency level against
engine A, repeats the sequence against engine B, prints a per-level comparison,
and exports the raw tables as JSON plus a PNG chart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		var (
			comparison *bench.Comparison
			err        error
		)
		if cfg.Progress {
			comparison, err = tui.Run(cmd.Context(), cfg)
		} else {
			comparison, err = bench.Run(cmd.Context(), cfg, nil)
		}
		if err != nil {
			return err
		}

		report.PrintComparison(cmd.OutOrStdout(), comparison)

		// Export failures do not invalidate a finished run.
		if path, err := report.WriteResults(comparison, cfg.ResultsDirPath()); err != nil {
			logging.LogEvent("results export failed: %v", err)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "results written to %s\n", path)
		}

		if err := chart.WriteComparison(comparison, cfg.ChartFilePath()); err != nil {
			logging.LogEvent("chart rendering failed: %v", err)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "chart written to %s\n", cfg.ChartFilePath())
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
