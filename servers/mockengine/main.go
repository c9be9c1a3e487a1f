// main.go
// mockengine is a stand-in OpenAI-compatible chat-completions endpoint for
// exercising enginemark without a GPU. It streams a configurable number of
// SSE chunks per request with a configurable inter-chunk delay.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/mwiater/enginemark/internal/validate"
)

type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	MaxTokens int           `json:"max_tokens"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ErrResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type Server struct {
	cfg         *Config
	modelChunks map[string]int
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	modelChunks, err := validateModels(cfg.Models)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	s := &Server{cfg: cfg, modelChunks: modelChunks}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /v1/chat/completions", s.handleChat)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("mockengine config: host=%s port=%d chunks=%d delay_ms=%d models=%d", cfg.Host, cfg.Port, cfg.Chunks, cfg.ChunkDelayMS, len(modelChunks))
	log.Printf("listening on %s", srv.Addr)
	log.Fatal(srv.ListenAndServe())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req, 1<<20 /* 1 MiB */); err != nil {
		log.Printf("chat decode error: %v", err)
		writeJSON(w, http.StatusBadRequest, ErrResp{OK: false, Error: "invalid JSON: " + err.Error()})
		return
	}

	if req.Model == "" {
		writeJSON(w, http.StatusBadRequest, ErrResp{OK: false, Error: "model is required"})
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrResp{OK: false, Error: "messages must not be empty"})
		return
	}

	chunks := s.cfg.Chunks
	if perModel, ok := s.modelChunks[req.Model]; ok {
		chunks = perModel
	} else if len(s.modelChunks) > 0 {
		writeJSON(w, http.StatusNotFound, ErrResp{OK: false, Error: "unknown model: " + req.Model})
		return
	}
	if req.MaxTokens > 0 && req.MaxTokens < chunks {
		chunks = req.MaxTokens
	}

	if !req.Stream {
		writeJSON(w, http.StatusBadRequest, ErrResp{OK: false, Error: "only streaming requests are supported"})
		return
	}

	s.streamChunks(w, r, req.Model, chunks)
}

func (s *Server) streamChunks(w http.ResponseWriter, r *http.Request, model string, chunks int) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrResp{OK: false, Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	delay := time.Duration(s.cfg.ChunkDelayMS) * time.Millisecond
	for i := 0; i < chunks; i++ {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		chunk := map[string]any{
			"id":     fmt.Sprintf("chatcmpl-mock-%d", i),
			"object": "chat.completion.chunk",
			"model":  model,
			"choices": []map[string]any{
				{"index": 0, "delta": map[string]string{"content": fmt.Sprintf("token%d ", i)}},
			},
		}
		payload, err := json.Marshal(chunk)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()

		if delay > 0 && i < chunks-1 {
			time.Sleep(delay)
		}
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

type Config struct {
	Host         string         `yaml:"host"`
	Port         int            `yaml:"port"`
	Chunks       int            `yaml:"chunks"`
	ChunkDelayMS int            `yaml:"chunk_delay_ms"`
	Models       map[string]any `yaml:"models"`
}

var (
	configOnce sync.Once
	configVal  *Config
	configErr  error
)

func loadConfig() (*Config, error) {
	configOnce.Do(func() {
		path := filepath.Join("servers", "mockengine", "mockengine.yml")
		data, err := os.ReadFile(path)
		if err != nil {
			configErr = err
			return
		}

		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			configErr = err
			return
		}

		if cfg.Port <= 0 {
			cfg.Port = 8000
		}
		if cfg.Chunks <= 0 {
			cfg.Chunks = 32
		}
		if cfg.ChunkDelayMS < 0 {
			configErr = fmt.Errorf("chunk_delay_ms must be non-negative, got %d", cfg.ChunkDelayMS)
			return
		}

		configVal = &cfg
	})

	return configVal, configErr
}

// validateModels checks that the per-model chunk table is a map of model
// names to positive integer chunk counts.
func validateModels(models map[string]any) (map[string]int, error) {
	if models == nil {
		return map[string]int{}, nil
	}
	chunks, err := validate.IntMap("models", models)
	if err != nil {
		return nil, err
	}
	for name, n := range chunks {
		if n <= 0 {
			return nil, fmt.Errorf("models[%s] must be positive, got %d", name, n)
		}
	}
	return chunks, nil
}

// decodeJSON bounds the request body. Unknown fields are accepted so clients
// may send arbitrary sampler parameters; only the fields above are honored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
