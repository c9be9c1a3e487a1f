package harness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// trackingServer streams a fixed two-chunk response while recording how many
// requests were in flight simultaneously.
type trackingServer struct {
	*httptest.Server

	mu       sync.Mutex
	inFlight int
	peak     int
	total    atomic.Int64
}

func newTrackingServer(t *testing.T) *trackingServer {
	t.Helper()
	ts := &trackingServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.inFlight++
		if ts.inFlight > ts.peak {
			ts.peak = ts.inFlight
		}
		ts.mu.Unlock()
		ts.total.Add(1)

		// Hold the request open briefly so wave members overlap.
		time.Sleep(20 * time.Millisecond)
		io.WriteString(w, "data: {}\ndata: {}\ndata: [DONE]\n")

		ts.mu.Lock()
		ts.inFlight--
		ts.mu.Unlock()
	}))
	t.Cleanup(ts.Server.Close)
	return ts
}

func (ts *trackingServer) peakInFlight() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.peak
}

func TestRunConcurrentRequestsExactWaves(t *testing.T) {
	server := newTrackingServer(t)

	records, err := RunConcurrentRequests(context.Background(), server.URL, "m", []string{"p1", "p2"}, nil, 4, 20, 5*time.Second)
	if err != nil {
		t.Fatalf("RunConcurrentRequests: %v", err)
	}

	if len(records) != 20 {
		t.Fatalf("records = %d, want 20", len(records))
	}
	if got := server.total.Load(); got != 20 {
		t.Fatalf("server saw %d requests, want 20", got)
	}
	if peak := server.peakInFlight(); peak > 4 {
		t.Fatalf("peak in-flight = %d, exceeds concurrency 4", peak)
	}
	for i, r := range records {
		if !r.Success {
			t.Fatalf("record %d failed: %s", i, r.Error)
		}
		if r.TokensGenerated != 2 {
			t.Fatalf("record %d tokens = %d, want 2", i, r.TokensGenerated)
		}
	}
}

func TestRunConcurrentRequestsPartialFinalWave(t *testing.T) {
	server := newTrackingServer(t)

	records, err := RunConcurrentRequests(context.Background(), server.URL, "m", []string{"p"}, nil, 3, 7, 5*time.Second)
	if err != nil {
		t.Fatalf("RunConcurrentRequests: %v", err)
	}

	if len(records) != 7 {
		t.Fatalf("records = %d, want 7", len(records))
	}
	if peak := server.peakInFlight(); peak > 3 {
		t.Fatalf("peak in-flight = %d, exceeds concurrency 3", peak)
	}
}

func TestRunConcurrentRequestsFailuresStillYieldRecords(t *testing.T) {
	var count atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if count.Add(1)%2 == 0 {
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, "bad gateway")
			return
		}
		io.WriteString(w, "data: {}\ndata: [DONE]\n")
	}))
	defer server.Close()

	records, err := RunConcurrentRequests(context.Background(), server.URL, "m", []string{"p"}, nil, 2, 6, 5*time.Second)
	if err != nil {
		t.Fatalf("RunConcurrentRequests: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("records = %d, want 6", len(records))
	}

	var failures int
	for _, r := range records {
		if !r.Success {
			failures++
		}
	}
	if failures == 0 {
		t.Fatal("expected at least one recorded failure")
	}
}

func TestRunConcurrentRequestsZeroRequests(t *testing.T) {
	server := newTrackingServer(t)

	records, err := RunConcurrentRequests(context.Background(), server.URL, "m", []string{"p"}, nil, 2, 0, time.Second)
	if err != nil {
		t.Fatalf("RunConcurrentRequests: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}
}

func TestRunConcurrentRequestsContractViolations(t *testing.T) {
	cases := []struct {
		name        string
		prompts     []string
		concurrency int
		requests    int
	}{
		{"zero concurrency", []string{"p"}, 0, 4},
		{"negative concurrency", []string{"p"}, -1, 4},
		{"empty prompts", nil, 2, 4},
		{"negative requests", []string{"p"}, 2, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RunConcurrentRequests(context.Background(), "http://127.0.0.1:0", "m", tc.prompts, nil, tc.concurrency, tc.requests, time.Second)
			if err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}

func TestRunConcurrentRequestsSamplesPrompts(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen[string(body)] = true
		mu.Unlock()
		io.WriteString(w, "data: [DONE]\n")
	}))
	defer server.Close()

	prompts := make([]string, 8)
	for i := range prompts {
		prompts[i] = fmt.Sprintf("prompt-%d", i)
	}

	if _, err := RunConcurrentRequests(context.Background(), server.URL, "m", prompts, nil, 4, 64, 5*time.Second); err != nil {
		t.Fatalf("RunConcurrentRequests: %v", err)
	}

	mu.Lock()
	distinct := len(seen)
	mu.Unlock()
	if distinct < 2 {
		t.Fatalf("expected multiple distinct prompts across 64 requests, saw %d", distinct)
	}
}
