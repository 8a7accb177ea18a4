package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newsninja/newsninja/internal/normalize"
)

const (
	defaultUnlockerAPI = "https://api.brightdata.com/request"
	defaultNewsBase    = "https://news.google.com"
)

// BrightDataConfig configures the premium web-unlocker news provider.
type BrightDataConfig struct {
	APIKey   string        `yaml:"api_key" env:"BRIGHTDATA_API_KEY"`
	Zone     string        `yaml:"zone" env:"BRIGHTDATA_WEB_UNLOCKER_ZONE"`
	BaseURL  string        `yaml:"base_url"`  // unlocker endpoint override
	NewsBase string        `yaml:"news_base"` // news site override
	Timeout  time.Duration `yaml:"timeout"`
}

// BrightDataSource scrapes a news search page for each topic through the
// BrightData web unlocker and reduces it to headline text.
type BrightDataSource struct {
	cfg    BrightDataConfig
	client *http.Client
}

// NewBrightDataSource creates the premium news provider.
func NewBrightDataSource(cfg BrightDataConfig) *BrightDataSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultUnlockerAPI
	}
	if cfg.NewsBase == "" {
		cfg.NewsBase = defaultNewsBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &BrightDataSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (b *BrightDataSource) Name() string       { return "brightdata" }
func (b *BrightDataSource) Category() Category { return CategoryNews }

// Eligible requires both the API key and an unlocker zone.
func (b *BrightDataSource) Eligible() bool {
	return b.cfg.APIKey != "" && b.cfg.Zone != ""
}

type unlockerRequest struct {
	Zone   string `json:"zone"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

func (b *BrightDataSource) Fetch(ctx context.Context, topic string) (string, error) {
	payload, err := json.Marshal(unlockerRequest{
		Zone:   b.cfg.Zone,
		URL:    newsSearchURL(b.cfg.NewsBase, topic),
		Format: "raw",
	})
	if err != nil {
		return "", fmt.Errorf("marshal unlocker request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: b.Name(), Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: b.Name(), Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Provider: b.Name(), Status: resp.StatusCode, Message: string(truncate(body, 200))}
	}

	headlines := normalize.ExtractHeadlines(normalize.CleanHTML(string(body)))
	if headlines == "" {
		return "", ErrNoResults
	}
	return headlines, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
