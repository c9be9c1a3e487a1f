// internal/report/report.go
// Package report renders benchmark comparisons for the terminal and exports
// the raw result tables as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/mwiater/enginemark/internal/bench"
	"github.com/mwiater/enginemark/internal/logging"
	"github.com/mwiater/enginemark/internal/metrics"
	"github.com/mwiater/enginemark/internal/util"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	footerStyle = lipgloss.NewStyle().Faint(true)

	engineHeading = color.New(color.FgCyan, color.Bold).SprintFunc()
	winnerMark    = color.New(color.FgGreen).SprintFunc()
)

const tableHeader = "Concurrency   Avg TTFT     Avg Latency   Req/s     Tokens/s   Success"

// PrintComparison writes a per-level summary table for each engine, followed
// by a per-level throughput verdict.
func PrintComparison(w io.Writer, c *bench.Comparison) {
	fmt.Fprintln(w, titleStyle.Render("Benchmark Results"))
	fmt.Fprintln(w)

	printEngineTable(w, c.EngineA.Name, c.ResultsA)
	printEngineTable(w, c.EngineB.Name, c.ResultsB)
	printVerdict(w, c)
}

func printEngineTable(w io.Writer, name string, results metrics.ResultTable) {
	fmt.Fprintln(w, engineHeading(name))
	fmt.Fprintln(w, headerStyle.Render(tableHeader))
	for _, level := range results.Levels() {
		agg := results[level]
		fmt.Fprintf(w, "%-13d %-12s %-13s %-9.2f %-10.2f %.1f%%\n",
			level,
			agg.AvgTTFT.Round(time.Millisecond),
			agg.AvgLatency.Round(time.Millisecond),
			agg.Throughput,
			agg.TokenThroughput,
			agg.SuccessRate)
	}
	fmt.Fprintln(w)
}

func printVerdict(w io.Writer, c *bench.Comparison) {
	for _, level := range c.ResultsA.Levels() {
		aggA := c.ResultsA[level]
		aggB, ok := c.ResultsB[level]
		if !ok {
			continue
		}

		switch {
		case aggA.Throughput > aggB.Throughput:
			fmt.Fprintf(w, "concurrency %d: %s ahead by %.2f req/s\n",
				level, winnerMark(c.EngineA.Name), aggA.Throughput-aggB.Throughput)
		case aggB.Throughput > aggA.Throughput:
			fmt.Fprintf(w, "concurrency %d: %s ahead by %.2f req/s\n",
				level, winnerMark(c.EngineB.Name), aggB.Throughput-aggA.Throughput)
		default:
			fmt.Fprintf(w, "concurrency %d: tied\n", level)
		}
	}
	fmt.Fprintln(w, footerStyle.Render(fmt.Sprintf("generated %s", c.GeneratedAt.Format(time.RFC3339))))
}

// WriteResults exports the comparison as an indented JSON file under dir and
// returns the path it wrote.
func WriteResults(c *bench.Comparison, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating results directory: %w", err)
	}

	name := fmt.Sprintf("%s-vs-%s-%s.json",
		util.Slugify(c.EngineA.Name),
		util.Slugify(c.EngineB.Name),
		c.GeneratedAt.Format("20060102-150405"))
	fileName := filepath.Join(dir, name)

	file, err := os.Create(fileName)
	if err != nil {
		return "", fmt.Errorf("error creating result file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return "", fmt.Errorf("error writing results to file: %w", err)
	}

	logging.LogEvent("Benchmark results written to %s", fileName)

	return fileName, nil
}
