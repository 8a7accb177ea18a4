package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/newsninja/newsninja/internal/aggregator"
	"github.com/newsninja/newsninja/internal/broadcast"
	"github.com/newsninja/newsninja/internal/history"
	"github.com/newsninja/newsninja/internal/sources"
	"github.com/newsninja/newsninja/internal/tts"
	"github.com/newsninja/newsninja/pkg/config"
	"github.com/newsninja/newsninja/pkg/llm"
)

// Config holds all configuration for the broadcast service.
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"API_PORT"`
	} `yaml:"server"`

	History struct {
		Enabled bool   `yaml:"enabled" env:"HISTORY_ENABLED"`
		DBPath  string `yaml:"db_path" env:"NEWSNINJA_DB"`
	} `yaml:"history"`

	OutputDir string `yaml:"output_dir" env:"AUDIO_OUTPUT_DIR"`

	Sources struct {
		BrightData sources.BrightDataConfig `yaml:"brightdata"`
		NewsAPI    sources.NewsAPIConfig    `yaml:"newsapi"`
		RSS        sources.RSSNewsConfig    `yaml:"rss"`
		Reddit     sources.RedditConfig     `yaml:"reddit"`
	} `yaml:"sources"`

	LLM    llm.Config   `yaml:"llm"`
	Ollama OllamaConfig `yaml:"ollama"`

	Speech struct {
		ElevenLabs tts.ElevenLabsConfig `yaml:"elevenlabs"`
		GTranslate tts.GTranslateConfig `yaml:"gtranslate"`
	} `yaml:"speech"`
}

// OllamaConfig configures the optional local summarization fallback.
// It has its own env names so overrides never collide with the primary LLM.
type OllamaConfig struct {
	Enabled bool   `yaml:"enabled" env:"OLLAMA_ENABLED"`
	Model   string `yaml:"model" env:"OLLAMA_MODEL"`
	BaseURL string `yaml:"base_url" env:"OLLAMA_BASE_URL"`
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.History.Enabled = true
	cfg.History.DBPath = "data/newsninja.db"
	cfg.OutputDir = "audio"
	cfg.LLM = llm.DefaultConfig()
	cfg.Sources.Reddit.PublicOK = true
	cfg.Speech.GTranslate.Enabled = true

	if err := config.LoadOrDefault(path, cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildAggregator wires the provider chains in priority order. Premium
// providers come first so free tiers are only used when credentials are
// missing or the paid call fails.
func buildAggregator(cfg *Config) *aggregator.Aggregator {
	news := []sources.Provider{
		sources.NewBrightDataSource(cfg.Sources.BrightData),
		sources.NewNewsAPISource(cfg.Sources.NewsAPI),
		sources.NewRSSNewsSource(cfg.Sources.RSS),
	}
	discussion := []sources.Provider{
		sources.NewRedditUnlockerSource(cfg.Sources.Reddit),
		sources.NewRedditPublicSource(cfg.Sources.Reddit),
	}
	return aggregator.New(news, discussion)
}

// buildSummarizer creates the LLM-backed script writer. A missing API key
// is not fatal; the summarizer falls through to its canned script.
func buildSummarizer(cfg *Config) *broadcast.Summarizer {
	var primary, fallback llm.Client

	if cfg.LLM.APIKey != "" {
		c, err := llm.NewClient(cfg.LLM)
		if err != nil {
			slog.Warn("primary LLM unavailable", "provider", cfg.LLM.Provider, "error", err)
		} else {
			primary = c
		}
	} else {
		slog.Warn("no LLM API key set, broadcasts will use the fallback script")
	}

	if cfg.Ollama.Enabled {
		ollamaCfg := llm.DefaultConfig()
		ollamaCfg.Provider = llm.Ollama
		ollamaCfg.APIKey = ""
		if cfg.Ollama.Model != "" {
			ollamaCfg.Model = cfg.Ollama.Model
		}
		if cfg.Ollama.BaseURL != "" {
			ollamaCfg.BaseURL = cfg.Ollama.BaseURL
		}
		c, err := llm.NewClient(ollamaCfg)
		if err != nil {
			slog.Warn("ollama fallback unavailable", "error", err)
		} else {
			fallback = c
		}
	}

	return broadcast.NewSummarizer(primary, fallback)
}

func buildRenderer(cfg *Config) *tts.Renderer {
	return tts.NewRenderer(cfg.OutputDir,
		tts.NewElevenLabs(cfg.Speech.ElevenLabs),
		tts.NewGTranslate(cfg.Speech.GTranslate),
	)
}

// buildStore returns nil when history is disabled.
func buildStore(cfg *Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	if dir := filepath.Dir(cfg.History.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return history.New(cfg.History.DBPath)
}
