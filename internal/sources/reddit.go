package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultRedditBase = "https://old.reddit.com"

// RedditConfig configures the discussion providers. The unlocker variant
// needs both credentials; the public variant only needs the enable switch.
type RedditConfig struct {
	APIKey    string        `yaml:"api_key" env:"REDDIT_API_TOKEN"`
	Zone      string        `yaml:"zone" env:"REDDIT_UNLOCKER_ZONE"`
	PublicOK  bool          `yaml:"public_ok" env:"REDDIT_PUBLIC_ENABLED"`
	BaseURL   string        `yaml:"base_url"`     // reddit endpoint override
	Unlocker  string        `yaml:"unlocker_url"` // unlocker endpoint override
	MaxPosts  int           `yaml:"max_posts"`
	TimeRange string        `yaml:"time_range"` // hour, day, week, month
	Timeout   time.Duration `yaml:"timeout"`
}

func (c *RedditConfig) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultRedditBase
	}
	if c.Unlocker == "" {
		c.Unlocker = defaultUnlockerAPI
	}
	if c.MaxPosts <= 0 {
		c.MaxPosts = 8
	}
	if c.TimeRange == "" {
		c.TimeRange = "week"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Subreddit   string  `json:"subreddit"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				Upvotes     float64 `json:"upvote_ratio"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// redditSearchURL builds the JSON search endpoint for a topic.
func redditSearchURL(base, topic, timeRange string, limit int) string {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("sort", "top")
	params.Set("t", timeRange)
	params.Set("limit", fmt.Sprintf("%d", limit))
	return base + "/search.json?" + params.Encode()
}

// redditDiscussionText reduces a search listing to spoken-friendly text:
// one line per post with community, title and a short excerpt.
func redditDiscussionText(body []byte, maxPosts int) (string, error) {
	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return "", fmt.Errorf("malformed listing: %w", err)
	}
	if len(listing.Data.Children) == 0 {
		return "", ErrNoResults
	}

	var lines []string
	for i, child := range listing.Data.Children {
		if i >= maxPosts {
			break
		}
		post := child.Data
		if post.Title == "" {
			continue
		}
		line := fmt.Sprintf("In r/%s, users discuss: %s", post.Subreddit, post.Title)
		if excerpt := excerptOf(post.Selftext, 280); excerpt != "" {
			line += fmt.Sprintf(". One post reads: \"%s\"", excerpt)
		}
		line += fmt.Sprintf(" (%d points, %d comments)", post.Score, post.NumComments)
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", ErrNoResults
	}
	return strings.Join(lines, "\n"), nil
}

func excerptOf(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > limit {
		text = text[:limit] + "..."
	}
	return text
}

// RedditUnlockerSource is the premium discussion provider: it reaches the
// reddit search endpoint through the BrightData web unlocker.
type RedditUnlockerSource struct {
	cfg    RedditConfig
	client *http.Client
}

// NewRedditUnlockerSource creates the premium discussion provider.
func NewRedditUnlockerSource(cfg RedditConfig) *RedditUnlockerSource {
	cfg.fillDefaults()
	return &RedditUnlockerSource{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (r *RedditUnlockerSource) Name() string       { return "reddit-unlocker" }
func (r *RedditUnlockerSource) Category() Category { return CategoryDiscussion }
func (r *RedditUnlockerSource) Eligible() bool {
	return r.cfg.APIKey != "" && r.cfg.Zone != ""
}

func (r *RedditUnlockerSource) Fetch(ctx context.Context, topic string) (string, error) {
	payload, err := json.Marshal(unlockerRequest{
		Zone:   r.cfg.Zone,
		URL:    redditSearchURL(r.cfg.BaseURL, topic, r.cfg.TimeRange, r.cfg.MaxPosts),
		Format: "raw",
	})
	if err != nil {
		return "", fmt.Errorf("marshal unlocker request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.cfg.Unlocker, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: r.Name(), Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: r.Name(), Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Provider: r.Name(), Status: resp.StatusCode, Message: string(truncate(body, 200))}
	}

	text, err := redditDiscussionText(body, r.cfg.MaxPosts)
	if err != nil && err != ErrNoResults {
		return "", &ProviderError{Provider: r.Name(), Status: resp.StatusCode, Message: err.Error()}
	}
	return text, err
}

// RedditPublicSource is the free discussion provider: it hits the public
// reddit JSON API directly. Rate limits make it a best-effort fallback.
type RedditPublicSource struct {
	cfg    RedditConfig
	client *http.Client
}

// NewRedditPublicSource creates the free discussion provider.
func NewRedditPublicSource(cfg RedditConfig) *RedditPublicSource {
	cfg.fillDefaults()
	return &RedditPublicSource{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (r *RedditPublicSource) Name() string       { return "reddit-public" }
func (r *RedditPublicSource) Category() Category { return CategoryDiscussion }
func (r *RedditPublicSource) Eligible() bool     { return r.cfg.PublicOK }

func (r *RedditPublicSource) Fetch(ctx context.Context, topic string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", redditSearchURL(r.cfg.BaseURL, topic, r.cfg.TimeRange, r.cfg.MaxPosts), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "newsninja/1.0 (news broadcast generator)")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: r.Name(), Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: r.Name(), Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Provider: r.Name(), Status: resp.StatusCode, Message: string(truncate(body, 200))}
	}

	text, err := redditDiscussionText(body, r.cfg.MaxPosts)
	if err != nil && err != ErrNoResults {
		return "", &ProviderError{Provider: r.Name(), Status: resp.StatusCode, Message: err.Error()}
	}
	return text, err
}
