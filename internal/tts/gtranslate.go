package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
)

const (
	defaultTranslateBase = "https://translate.google.com"

	// The translate endpoint rejects long inputs, so the script is split
	// into chunks and the MP3 frames are concatenated.
	maxChunkLen = 200
)

// GTranslateConfig configures the free speech backend.
type GTranslateConfig struct {
	Enabled  bool          `yaml:"enabled" env:"GTRANSLATE_TTS_ENABLED"`
	Language string        `yaml:"language"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// GTranslate synthesizes speech through the unofficial Google Translate TTS
// endpoint. Keyless, best-effort, last in the backend chain.
type GTranslate struct {
	cfg    GTranslateConfig
	client *http.Client
}

// NewGTranslate creates the free speech backend.
func NewGTranslate(cfg GTranslateConfig) *GTranslate {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTranslateBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GTranslate{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (g *GTranslate) Name() string   { return "gtranslate" }
func (g *GTranslate) Eligible() bool { return g.cfg.Enabled }

func (g *GTranslate) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	var audio bytes.Buffer

	for _, chunk := range splitChunks(text, maxChunkLen) {
		params := url.Values{}
		params.Set("ie", "UTF-8")
		params.Set("client", "tw-ob")
		params.Set("tl", g.cfg.Language)
		params.Set("q", chunk)

		req, err := http.NewRequestWithContext(ctx, "GET", g.cfg.BaseURL+"/translate_tts?"+params.Encode(), nil)
		if err != nil {
			return nil, "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; newsninja/1.0)")

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("send request: %w", err)
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, "", fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("translate TTS error (%d)", resp.StatusCode)
		}

		audio.Write(data)
	}

	if audio.Len() == 0 {
		return nil, "", fmt.Errorf("no audio produced")
	}
	return audio.Bytes(), "audio/mpeg", nil
}

// splitChunks breaks text into pieces of at most limit runes, preferring
// sentence and word boundaries so speech stays natural across chunk seams.
func splitChunks(text string, limit int) []string {
	words := strings.FieldsFunc(text, unicode.IsSpace)

	var chunks []string
	var cur strings.Builder
	for _, word := range words {
		if cur.Len() > 0 && cur.Len()+1+len(word) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
