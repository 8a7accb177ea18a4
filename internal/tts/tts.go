// Package tts converts broadcast scripts into synthesized speech through
// whichever configured backend is available.
package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ErrAllBackendsFailed is returned when no speech backend could render the
// script. Unlike source fallback, this is fatal to the request.
var ErrAllBackendsFailed = errors.New("all speech backends failed")

// Artifact is the rendered audio output.
type Artifact struct {
	Path        string `json:"path"`
	Data        []byte `json:"-"`
	ContentType string `json:"content_type"`
	Backend     string `json:"backend"`
}

// Synthesizer converts text to speech bytes. Concrete implementations wrap
// one external speech service each and never fall back internally.
type Synthesizer interface {
	// Name returns the backend name.
	Name() string

	// Eligible reports whether required configuration is present.
	Eligible() bool

	// Synthesize returns audio bytes and their content type.
	Synthesize(ctx context.Context, text string) ([]byte, string, error)
}

// Renderer tries speech backends in priority order and writes the winning
// audio to a uniquely named file.
type Renderer struct {
	backends  []Synthesizer
	outputDir string
	logger    *slog.Logger
	now       func() time.Time
}

// NewRenderer creates a Renderer over the ordered backends.
func NewRenderer(outputDir string, backends ...Synthesizer) *Renderer {
	if outputDir == "" {
		outputDir = "audio"
	}
	return &Renderer{
		backends:  backends,
		outputDir: outputDir,
		logger:    slog.Default(),
		now:       time.Now,
	}
}

// Render synthesizes the script with the first backend that works and
// persists the artifact. A script that cannot be rendered is an error, never
// silently swallowed.
func (r *Renderer) Render(ctx context.Context, script string) (*Artifact, error) {
	if script == "" {
		return nil, fmt.Errorf("empty script")
	}

	for _, backend := range r.backends {
		if !backend.Eligible() {
			r.logger.Info("speech backend not configured, skipping", "backend", backend.Name())
			continue
		}

		data, contentType, err := backend.Synthesize(ctx, script)
		if err != nil {
			r.logger.Warn("speech backend failed, falling back", "backend", backend.Name(), "error", err)
			continue
		}
		if len(data) == 0 {
			r.logger.Warn("speech backend returned no audio, falling back", "backend", backend.Name())
			continue
		}

		path, err := r.writeArtifact(data)
		if err != nil {
			return nil, fmt.Errorf("write audio artifact: %w", err)
		}

		r.logger.Info("audio rendered", "backend", backend.Name(), "bytes", len(data), "path", path)
		return &Artifact{
			Path:        path,
			Data:        data,
			ContentType: contentType,
			Backend:     backend.Name(),
		}, nil
	}

	return nil, ErrAllBackendsFailed
}

// Backends reports configured backends and their eligibility.
func (r *Renderer) Backends() map[string]bool {
	out := make(map[string]bool, len(r.backends))
	for _, b := range r.backends {
		out[b.Name()] = b.Eligible()
	}
	return out
}

// writeArtifact saves audio under a timestamp-based name to avoid collisions.
func (r *Renderer) writeArtifact(data []byte) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("tts_%s.mp3", r.now().Format("20060102_150405"))
	path := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
