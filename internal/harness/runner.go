// internal/harness/runner.go
// Package harness issues streamed chat-completion requests against an
// OpenAI-compatible endpoint and measures client-side timings under
// controlled concurrency.
package harness

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/enginemark/internal/metrics"
)

const (
	streamDataPrefix = "data:"
	streamDoneMarker = "[DONE]"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SendRequest issues one streamed chat-completion request and measures
// time-to-first-token, total latency, and the number of streamed chunks.
// Every failure mode (transport error, non-200 status, timeout, broken
// stream) is recorded in the returned metrics rather than surfaced as an
// error, so one misbehaving request can never abort a batch.
func SendRequest(ctx context.Context, client *http.Client, endpoint, model, prompt string, genConfig map[string]any) metrics.RequestMetrics {
	payload := map[string]any{
		"model":    model,
		"messages": []chatMessage{{Role: "user", Content: prompt}},
		"stream":   true,
	}
	for key, value := range genConfig {
		payload[key] = value
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return failedRequest(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return failedRequest(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return failedRequest(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return failedRequest(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var (
		firstChunk time.Time
		tokens     int
	)

	reader := bufio.NewReader(resp.Body)
	for {
		line, readErr := reader.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, ":") && strings.HasPrefix(trimmed, streamDataPrefix) {
			data := strings.TrimSpace(strings.TrimPrefix(trimmed, streamDataPrefix))
			if data == streamDoneMarker {
				break
			}
			if firstChunk.IsZero() {
				firstChunk = time.Now()
			}
			tokens++
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return failedRequest(readErr.Error())
		}
	}
	end := time.Now()

	result := metrics.RequestMetrics{
		Latency:         end.Sub(start),
		TokensGenerated: tokens,
		Success:         true,
	}
	if !firstChunk.IsZero() {
		result.TTFT = firstChunk.Sub(start)
	}
	return result
}

func failedRequest(detail string) metrics.RequestMetrics {
	return metrics.RequestMetrics{Error: detail}
}
