// internal/harness/scheduler.go
package harness

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/mwiater/enginemark/internal/metrics"
)

// RunConcurrentRequests sends numRequests requests against endpoint in
// sequential waves of at most concurrency in-flight requests each; a wave
// must fully resolve before the next one launches, so concurrency is bounded
// exactly rather than burstily. Each request picks a prompt uniformly at
// random from the corpus. The whole run shares one HTTP client whose
// connection pool is capped at the concurrency level.
//
// The returned slice always holds exactly numRequests records; failures are
// embedded in the records, never returned as errors. The error return covers
// configuration misuse only.
func RunConcurrentRequests(ctx context.Context, endpoint, model string, prompts []string, genConfig map[string]any, concurrency, numRequests int, timeout time.Duration) ([]metrics.RequestMetrics, error) {
	if concurrency <= 0 {
		return nil, fmt.Errorf("harness: concurrency must be positive, got %d", concurrency)
	}
	if numRequests < 0 {
		return nil, fmt.Errorf("harness: request count must be non-negative, got %d", numRequests)
	}
	if len(prompts) == 0 {
		return nil, errors.New("harness: prompt corpus is empty")
	}

	client := newPooledClient(concurrency, timeout)
	defer client.CloseIdleConnections()

	all := make([]metrics.RequestMetrics, 0, numRequests)
	for issued := 0; issued < numRequests; issued += concurrency {
		waveSize := min(concurrency, numRequests-issued)
		wave := make([]metrics.RequestMetrics, waveSize)

		var wg sync.WaitGroup
		for i := 0; i < waveSize; i++ {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				prompt := prompts[rand.IntN(len(prompts))]
				wave[slot] = SendRequest(ctx, client, endpoint, model, prompt, genConfig)
			}(i)
		}
		wg.Wait()

		all = append(all, wave...)
	}

	return all, nil
}
