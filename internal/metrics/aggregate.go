// internal/metrics/aggregate.go
// Package metrics defines the per-request and per-level benchmark records and
// the reduction from one to the other.
package metrics

import (
	"fmt"
	"time"
)

// Aggregate reduces the per-request metrics of one concurrency level into a
// single summary. elapsed is the wall-clock duration of the whole batch as
// measured by the caller and must be positive; a non-positive value is a
// configuration error, not a runtime condition.
//
// Averages are taken over successful requests only. When no request
// succeeded, every averaged and throughput field is zero and only
// Concurrency and NumRequests are populated.
func Aggregate(records []RequestMetrics, concurrency int, elapsed time.Duration) (AggregatedMetrics, error) {
	if elapsed <= 0 {
		return AggregatedMetrics{}, fmt.Errorf("metrics: elapsed duration must be positive, got %s", elapsed)
	}

	agg := AggregatedMetrics{
		Concurrency: concurrency,
		NumRequests: len(records),
	}

	var (
		successes  int
		ttftSum    time.Duration
		latencySum time.Duration
	)
	for _, r := range records {
		if !r.Success {
			continue
		}
		successes++
		ttftSum += r.TTFT
		latencySum += r.Latency
		agg.TotalTokens += r.TokensGenerated
	}

	if successes == 0 {
		return agg, nil
	}

	seconds := elapsed.Seconds()
	agg.AvgTTFT = ttftSum / time.Duration(successes)
	agg.AvgLatency = latencySum / time.Duration(successes)
	agg.Throughput = float64(successes) / seconds
	agg.TokenThroughput = float64(agg.TotalTokens) / seconds
	agg.SuccessRate = float64(successes) / float64(len(records)) * 100

	return agg, nil
}
