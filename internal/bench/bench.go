// internal/bench/bench.go
// Package bench orchestrates the full two-engine benchmark: warmup, then
// every configured concurrency level, engine A first and engine B second.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/mwiater/enginemark/internal/appconfig"
	"github.com/mwiater/enginemark/internal/harness"
	"github.com/mwiater/enginemark/internal/logging"
	"github.com/mwiater/enginemark/internal/metrics"
	"github.com/mwiater/enginemark/internal/util"
)

// Stage identifies what the driver is currently doing.
type Stage int

const (
	StageWarmup Stage = iota
	StageLevelStart
	StageLevelDone
	StageEngineDone
)

// Event describes one step of driver progress for an optional observer.
type Event struct {
	Engine string
	Stage  Stage
	Level  int
	Result *metrics.AggregatedMetrics // set on StageLevelDone
}

// ProgressFunc receives driver progress events. It may be nil.
type ProgressFunc func(Event)

// Comparison holds the fully populated result tables for both engines.
type Comparison struct {
	EngineA  appconfig.Engine    `json:"engineA"`
	EngineB  appconfig.Engine    `json:"engineB"`
	ResultsA metrics.ResultTable `json:"resultsA"`
	ResultsB metrics.ResultTable `json:"resultsB"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Run validates the configuration, benchmarks engine A and then engine B,
// and returns both result tables. The two engines are never benchmarked
// concurrently so that neither run contends with the other for client-side
// resources.
func Run(ctx context.Context, cfg *appconfig.Config, progress ProgressFunc) (*Comparison, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}

	resultsA, err := BenchmarkEngine(ctx, cfg, cfg.EngineA, progress)
	if err != nil {
		return nil, fmt.Errorf("bench: engine %s: %w", cfg.EngineA.Name, err)
	}

	resultsB, err := BenchmarkEngine(ctx, cfg, cfg.EngineB, progress)
	if err != nil {
		return nil, fmt.Errorf("bench: engine %s: %w", cfg.EngineB.Name, err)
	}

	return &Comparison{
		EngineA:     cfg.EngineA,
		EngineB:     cfg.EngineB,
		ResultsA:    resultsA,
		ResultsB:    resultsB,
		GeneratedAt: time.Now(),
	}, nil
}

// BenchmarkEngine runs the warmup phase and every configured concurrency
// level against a single engine. Warmup requests run at concurrency 1 and
// their metrics are discarded; they exist only to prime connections and
// caches on the target.
func BenchmarkEngine(ctx context.Context, cfg *appconfig.Config, engine appconfig.Engine, progress ProgressFunc) (metrics.ResultTable, error) {
	emit(progress, Event{Engine: engine.Name, Stage: StageWarmup})
	logging.LogEvent("[%s] warmup: sending %d requests", engine.Name, cfg.WarmupRequests)

	if _, err := harness.RunConcurrentRequests(ctx, engine.URL, cfg.Model, cfg.Prompts, cfg.GenerationConfig, 1, cfg.WarmupRequests, cfg.RequestTimeout()); err != nil {
		return nil, fmt.Errorf("warmup: %w", err)
	}

	table := make(metrics.ResultTable, len(cfg.ConcurrencyLevels))
	for _, level := range cfg.ConcurrencyLevels {
		emit(progress, Event{Engine: engine.Name, Stage: StageLevelStart, Level: level})
		logging.LogEvent("[%s] testing concurrency=%d (%d requests)", engine.Name, level, cfg.RequestsPerLevel)

		start := time.Now()
		records, err := harness.RunConcurrentRequests(ctx, engine.URL, cfg.Model, cfg.Prompts, cfg.GenerationConfig, level, cfg.RequestsPerLevel, cfg.RequestTimeout())
		if err != nil {
			return nil, fmt.Errorf("concurrency %d: %w", level, err)
		}
		elapsed := time.Since(start)

		agg, err := metrics.Aggregate(records, level, elapsed)
		if err != nil {
			return nil, fmt.Errorf("concurrency %d: %w", level, err)
		}
		table[level] = agg

		logLevelSummary(engine.Name, records, agg)
		emit(progress, Event{Engine: engine.Name, Stage: StageLevelDone, Level: level, Result: &agg})
	}

	emit(progress, Event{Engine: engine.Name, Stage: StageEngineDone})
	return table, nil
}

func emit(progress ProgressFunc, ev Event) {
	if progress != nil {
		progress(ev)
	}
}

func logLevelSummary(engine string, records []metrics.RequestMetrics, agg metrics.AggregatedMetrics) {
	logging.LogEvent("[%s] concurrency=%d avg_ttft=%s avg_latency=%s throughput=%.2f req/s tokens/s=%.2f success=%.1f%%",
		engine, agg.Concurrency, agg.AvgTTFT.Round(time.Millisecond), agg.AvgLatency.Round(time.Millisecond),
		agg.Throughput, agg.TokenThroughput, agg.SuccessRate)

	for _, r := range records {
		if !r.Success {
			logging.LogEvent("[%s] request failed: %s", engine, util.TruncateRunes(r.Error, 200))
			break
		}
	}
}
