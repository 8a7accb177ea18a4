package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const defaultRSSBase = "https://news.google.com/rss"

// RSSNewsConfig configures the keyless RSS news provider, the last resort
// of the news chain.
type RSSNewsConfig struct {
	Enabled  bool          `yaml:"enabled" env:"RSS_NEWS_ENABLED"`
	BaseURL  string        `yaml:"base_url"`
	MaxItems int           `yaml:"max_items"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RSSNewsSource pulls a public news RSS search feed per topic. It needs no
// credentials, only an explicit enable switch.
type RSSNewsSource struct {
	cfg    RSSNewsConfig
	parser *gofeed.Parser
}

// NewRSSNewsSource creates the RSS news provider.
func NewRSSNewsSource(cfg RSSNewsConfig) *RSSNewsSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultRSSBase
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10
	}
	return &RSSNewsSource{cfg: cfg, parser: gofeed.NewParser()}
}

func (r *RSSNewsSource) Name() string       { return "rss" }
func (r *RSSNewsSource) Category() Category { return CategoryNews }
func (r *RSSNewsSource) Eligible() bool     { return r.cfg.Enabled }

func (r *RSSNewsSource) Fetch(ctx context.Context, topic string) (string, error) {
	feedURL := fmt.Sprintf("%s/search?q=%s&hl=en-US", r.cfg.BaseURL, url.QueryEscape(topic))

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return "", &ProviderError{Provider: r.Name(), Status: 0, Message: err.Error()}
	}
	if len(feed.Items) == 0 {
		return "", ErrNoResults
	}

	lines := make([]string, 0, r.cfg.MaxItems)
	for i, item := range feed.Items {
		if i >= r.cfg.MaxItems {
			break
		}
		if item.Title != "" {
			lines = append(lines, item.Title)
		}
	}
	if len(lines) == 0 {
		return "", ErrNoResults
	}
	return strings.Join(lines, "\n"), nil
}
