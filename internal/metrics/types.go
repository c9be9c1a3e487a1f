// internal/metrics/types.go
package metrics

import (
	"sort"
	"time"
)

// RequestMetrics captures the outcome of a single streamed generation request.
// A failed request carries zero timings, zero tokens, and the failure detail
// in Error.
type RequestMetrics struct {
	TTFT            time.Duration `json:"ttft"`
	Latency         time.Duration `json:"latency"`
	TokensGenerated int           `json:"tokens_generated"`
	Success         bool          `json:"success"`
	Error           string        `json:"error,omitempty"`
}

// AggregatedMetrics summarizes every request issued at one concurrency level.
type AggregatedMetrics struct {
	Concurrency     int           `json:"concurrency"`
	AvgTTFT         time.Duration `json:"avg_ttft"`
	AvgLatency      time.Duration `json:"avg_latency"`
	Throughput      float64       `json:"throughput"`       // successful requests per second
	TotalTokens     int           `json:"total_tokens"`     // summed over successes
	TokenThroughput float64       `json:"token_throughput"` // tokens per second
	SuccessRate     float64       `json:"success_rate"`     // 0..100
	NumRequests     int           `json:"num_requests"`
}

// ResultTable maps a concurrency level to the metrics measured at that level.
type ResultTable map[int]AggregatedMetrics

// Levels returns the table's concurrency levels in ascending order.
func (rt ResultTable) Levels() []int {
	levels := make([]int, 0, len(rt))
	for level := range rt {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}
