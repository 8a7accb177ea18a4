package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultNewsAPIBase = "https://newsapi.org/v2"

// NewsAPIConfig configures the free NewsAPI.org provider (100 requests/day).
type NewsAPIConfig struct {
	APIKey       string        `yaml:"api_key" env:"NEWSAPI_KEY"`
	BaseURL      string        `yaml:"base_url"`
	PageSize     int           `yaml:"page_size"`
	LookbackDays int           `yaml:"lookback_days"`
	Timeout      time.Duration `yaml:"timeout"`
}

// NewsAPISource fetches recent articles per topic from NewsAPI.org and
// joins their titles and descriptions into headline text.
type NewsAPISource struct {
	cfg    NewsAPIConfig
	client *http.Client
	now    func() time.Time
}

// NewNewsAPISource creates the free news provider.
func NewNewsAPISource(cfg NewsAPIConfig) *NewsAPISource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultNewsAPIBase
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 7
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &NewsAPISource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
}

func (n *NewsAPISource) Name() string       { return "newsapi" }
func (n *NewsAPISource) Category() Category { return CategoryNews }
func (n *NewsAPISource) Eligible() bool     { return n.cfg.APIKey != "" }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"articles"`
}

func (n *NewsAPISource) Fetch(ctx context.Context, topic string) (string, error) {
	from := n.now().AddDate(0, 0, -n.cfg.LookbackDays).Format("2006-01-02")

	params := url.Values{}
	params.Set("q", topic)
	params.Set("from", from)
	params.Set("sortBy", "popularity")
	params.Set("pageSize", fmt.Sprintf("%d", n.cfg.PageSize))
	params.Set("language", "en")
	params.Set("apiKey", n.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, "GET", n.cfg.BaseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: n.Name(), Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: n.Name(), Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Provider: n.Name(), Status: resp.StatusCode, Message: string(truncate(body, 200))}
	}

	var parsed newsAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &ProviderError{Provider: n.Name(), Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if len(parsed.Articles) == 0 {
		return "", ErrNoResults
	}

	lines := make([]string, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if a.Title == "" {
			continue
		}
		if a.Description != "" {
			lines = append(lines, a.Title+". "+a.Description)
		} else {
			lines = append(lines, a.Title)
		}
	}
	if len(lines) == 0 {
		return "", ErrNoResults
	}
	return strings.Join(lines, "\n"), nil
}
