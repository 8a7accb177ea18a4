package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/newsninja/newsninja/internal/aggregator"
	"github.com/newsninja/newsninja/internal/history"
	"github.com/newsninja/newsninja/internal/sources"
	"github.com/newsninja/newsninja/internal/tts"
)

// maxTopics bounds one request; each topic costs provider and LLM quota.
const maxTopics = 10

// GenerateRequest is the body of POST /generate-news-audio.
type GenerateRequest struct {
	Topics     []string `json:"topics"`
	SourceType string   `json:"source_type"`
}

func (s *Server) handleGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		topics, err := cleanTopics(req.Topics)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode, err := aggregator.ParseMode(req.SourceType)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		ctx := r.Context()
		s.logger.Info("generating broadcast", "topics", topics, "mode", mode)

		ds, err := s.agg.Collect(ctx, topics, mode)
		if err != nil {
			if errors.Is(err, aggregator.ErrNoData) {
				respondError(w, http.StatusServiceUnavailable, "unable to collect any data from configured sources")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		script := s.sum.Script(ctx, ds)

		artifact, err := s.renderer.Render(ctx, script)
		if err != nil {
			s.logger.Error("audio rendering failed", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to generate audio: "+err.Error())
			return
		}

		s.saveHistory(r, topics, mode, script, artifact)

		w.Header().Set("Content-Type", artifact.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename=news-summary.mp3`)
		w.WriteHeader(http.StatusOK)
		w.Write(artifact.Data)
	}
}

func (s *Server) saveHistory(r *http.Request, topics []string, mode aggregator.Mode, script string, artifact *tts.Artifact) {
	if s.store == nil {
		return
	}
	b := &history.Broadcast{
		Topics:      topics,
		Mode:        string(mode),
		Script:      script,
		AudioPath:   artifact.Path,
		ContentType: artifact.ContentType,
		Backend:     artifact.Backend,
	}
	if err := s.store.Save(r.Context(), b); err != nil {
		s.logger.Warn("failed to save broadcast history", "error", err)
	}
}

func cleanTopics(raw []string) ([]string, error) {
	var topics []string
	seen := make(map[string]bool)
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		topics = append(topics, t)
	}
	if len(topics) == 0 {
		return nil, errors.New("at least one non-empty topic is required")
	}
	if len(topics) > maxTopics {
		return nil, errors.New("too many topics (max 10)")
	}
	return topics, nil
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers := s.agg.Providers()

		newsEligible := false
		discussionEligible := false
		for _, p := range providers {
			if !p.Eligible {
				continue
			}
			switch p.Category {
			case sources.CategoryNews:
				newsEligible = true
			case sources.CategoryDiscussion:
				discussionEligible = true
			}
		}

		status := "healthy"
		message := "broadcast pipeline is running"
		if !newsEligible && !discussionEligible {
			status = "degraded"
			message = "no content or discussion sources configured"
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"status":     status,
			"message":    message,
			"providers":  providers,
			"speech":     s.renderer.Backends(),
			"news":       newsEligible,
			"discussion": discussionEligible,
		})
	}
}

func (s *Server) handleLatestBroadcast() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			respondError(w, http.StatusNotFound, "broadcast history is disabled")
			return
		}
		latest, err := s.store.Latest(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if latest == nil {
			respondError(w, http.StatusNotFound, "no broadcasts generated yet")
			return
		}
		respondJSON(w, http.StatusOK, latest)
	}
}
