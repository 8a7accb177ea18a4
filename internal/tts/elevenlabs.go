package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultElevenLabsBase = "https://api.elevenlabs.io/v1"

// ElevenLabsConfig configures the premium speech backend.
type ElevenLabsConfig struct {
	APIKey       string        `yaml:"api_key" env:"ELEVEN_API_KEY"`
	VoiceID      string        `yaml:"voice_id" env:"ELEVEN_VOICE_ID"`
	ModelID      string        `yaml:"model_id"`
	OutputFormat string        `yaml:"output_format"`
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ElevenLabs synthesizes speech through the ElevenLabs API.
type ElevenLabs struct {
	cfg    ElevenLabsConfig
	client *http.Client
}

// NewElevenLabs creates the premium speech backend.
func NewElevenLabs(cfg ElevenLabsConfig) *ElevenLabs {
	if cfg.VoiceID == "" {
		cfg.VoiceID = "JBFqnCBsd6RMkjVDRZzb"
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_multilingual_v2"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "mp3_44100_128"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultElevenLabsBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &ElevenLabs{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (e *ElevenLabs) Name() string   { return "elevenlabs" }
func (e *ElevenLabs) Eligible() bool { return e.cfg.APIKey != "" }

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	body, err := json.Marshal(elevenLabsRequest{Text: text, ModelID: e.cfg.ModelID})
	if err != nil {
		return nil, "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", e.cfg.BaseURL, e.cfg.VoiceID, e.cfg.OutputFormat)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return nil, "", fmt.Errorf("ElevenLabs authentication failed, check the API key (status %d)", resp.StatusCode)
		default:
			return nil, "", fmt.Errorf("ElevenLabs error (%d): %s", resp.StatusCode, truncate(data, 200))
		}
	}

	return data, "audio/mpeg", nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
