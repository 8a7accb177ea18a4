// Package api provides the REST API server for the broadcast pipeline.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/newsninja/newsninja/internal/aggregator"
	"github.com/newsninja/newsninja/internal/broadcast"
	"github.com/newsninja/newsninja/internal/history"
	"github.com/newsninja/newsninja/internal/tts"
)

// Server holds the dependencies for the API.
type Server struct {
	agg      *aggregator.Aggregator
	sum      *broadcast.Summarizer
	renderer *tts.Renderer
	store    *history.Store // optional
	logger   *slog.Logger
}

// NewServer creates a new API Server instance. store may be nil to disable
// broadcast history.
func NewServer(agg *aggregator.Aggregator, sum *broadcast.Summarizer, renderer *tts.Renderer, store *history.Store) *Server {
	return &Server{
		agg:      agg,
		sum:      sum,
		renderer: renderer,
		store:    store,
		logger:   slog.Default(),
	}
}

// Routes returns the configured http.Handler (ServeMux) for the API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /generate-news-audio", s.handleGenerate())
	mux.HandleFunc("GET /health", s.handleHealth())
	mux.HandleFunc("GET /broadcasts/latest", s.handleLatestBroadcast())

	return mux
}

// --- Helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
