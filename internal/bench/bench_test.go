package bench

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mwiater/enginemark/internal/appconfig"
)

func newEngineServer(t *testing.T, chunks int, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		for i := 0; i < chunks; i++ {
			io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n")
		}
		io.WriteString(w, "data: [DONE]\n")
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, urlA, urlB string) *appconfig.Config {
	t.Helper()
	cfg := &appconfig.Config{}
	cfg.EngineA.Name = "engine-a"
	cfg.EngineA.URL = urlA
	cfg.EngineB.Name = "engine-b"
	cfg.EngineB.URL = urlB
	cfg.Model = "test-model"
	cfg.ConcurrencyLevels = []int{1, 2}
	cfg.RequestsPerLevel = 4
	cfg.WarmupRequests = 0
	cfg.Prompts = []string{"p1", "p2"}
	cfg.TimeoutSeconds = 5
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	var hitsA, hitsB atomic.Int64
	serverA := newEngineServer(t, 2, &hitsA)
	serverB := newEngineServer(t, 2, &hitsB)

	cfg := testConfig(t, serverA.URL, serverB.URL)

	comparison, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for name, table := range map[string]map[int]bool{
		"A": {1: false, 2: false},
		"B": {1: false, 2: false},
	} {
		results := comparison.ResultsA
		if name == "B" {
			results = comparison.ResultsB
		}
		if len(results) != 2 {
			t.Fatalf("engine %s: %d levels, want 2", name, len(results))
		}
		for level := range table {
			agg, ok := results[level]
			if !ok {
				t.Fatalf("engine %s missing level %d", name, level)
			}
			if agg.SuccessRate != 100.0 {
				t.Fatalf("engine %s level %d success rate = %v, want 100", name, level, agg.SuccessRate)
			}
			if agg.TotalTokens != 8 {
				t.Fatalf("engine %s level %d total tokens = %d, want 8", name, level, agg.TotalTokens)
			}
			if agg.NumRequests != 4 {
				t.Fatalf("engine %s level %d requests = %d, want 4", name, level, agg.NumRequests)
			}
		}
	}

	// Two levels of four requests each, no warmup.
	if hitsA.Load() != 8 || hitsB.Load() != 8 {
		t.Fatalf("request counts = %d / %d, want 8 / 8", hitsA.Load(), hitsB.Load())
	}
}

func TestRunWarmupIsDiscarded(t *testing.T) {
	var hits atomic.Int64
	server := newEngineServer(t, 1, &hits)

	cfg := testConfig(t, server.URL, server.URL)
	cfg.ConcurrencyLevels = []int{2}
	cfg.WarmupRequests = 3

	comparison, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 3 warmup + 4 measured, per engine.
	if hits.Load() != 14 {
		t.Fatalf("request count = %d, want 14", hits.Load())
	}
	if comparison.ResultsA[2].NumRequests != 4 {
		t.Fatalf("measured requests = %d, want 4", comparison.ResultsA[2].NumRequests)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "http://a", "http://b")
	cfg.ConcurrencyLevels = []int{8} // exceeds requestsPerLevel=4

	if _, err := Run(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected configuration error")
	}

	cfg = testConfig(t, "http://a", "http://b")
	cfg.Prompts = nil
	if _, err := Run(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for empty prompt corpus")
	}
}

func TestRunFailuresDegradeSuccessRate(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "down for maintenance")
	}))
	t.Cleanup(failing.Close)
	healthy := newEngineServer(t, 2, nil)

	cfg := testConfig(t, failing.URL, healthy.URL)
	cfg.ConcurrencyLevels = []int{2}

	comparison, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	aggA := comparison.ResultsA[2]
	if aggA.SuccessRate != 0 {
		t.Fatalf("failing engine success rate = %v, want 0", aggA.SuccessRate)
	}
	if aggA.NumRequests != 4 {
		t.Fatalf("failing engine requests = %d, want 4", aggA.NumRequests)
	}
	if comparison.ResultsB[2].SuccessRate != 100.0 {
		t.Fatalf("healthy engine success rate = %v, want 100", comparison.ResultsB[2].SuccessRate)
	}
}

func TestRunEmitsProgressEvents(t *testing.T) {
	server := newEngineServer(t, 1, nil)
	cfg := testConfig(t, server.URL, server.URL)

	var events []Event
	_, err := Run(context.Background(), cfg, func(ev Event) { events = append(events, ev) })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var warmups, levelsDone, enginesDone int
	for _, ev := range events {
		switch ev.Stage {
		case StageWarmup:
			warmups++
		case StageLevelDone:
			levelsDone++
			if ev.Result == nil {
				t.Fatal("StageLevelDone event missing result")
			}
		case StageEngineDone:
			enginesDone++
		}
	}
	if warmups != 2 || levelsDone != 4 || enginesDone != 2 {
		t.Fatalf("events = %d warmups, %d levels, %d engines", warmups, levelsDone, enginesDone)
	}
}
