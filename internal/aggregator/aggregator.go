// Package aggregator implements the multi-source fallback and merge
// pipeline: providers are tried in priority order per category, failures are
// absorbed, and partial results from unreliable providers are merged into a
// single per-topic dataset.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/newsninja/newsninja/internal/sources"
)

// Mode selects which categories a request draws from.
type Mode string

const (
	ModeNews       Mode = "news"
	ModeDiscussion Mode = "reddit"
	ModeBoth       Mode = "both"
)

// ParseMode validates a caller-supplied source selection.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNews, ModeDiscussion, ModeBoth:
		return Mode(s), nil
	case "":
		return ModeBoth, nil
	default:
		return "", fmt.Errorf("invalid source_type %q (want news, reddit or both)", s)
	}
}

// ErrNoData is returned when every applicable category produced no data for
// any topic. It is the only aggregation failure surfaced to the caller.
var ErrNoData = errors.New("no configured source produced any data")

// errorMarkerPrefix flags a per-topic stub that records a fetch failure.
// Marked stubs keep the topic entry present but are excluded from the
// broadcast context.
const errorMarkerPrefix = "Error:"

// IsErrorMarker reports whether a per-topic text is a failure stub rather
// than genuine content.
func IsErrorMarker(text string) bool {
	return strings.HasPrefix(text, errorMarkerPrefix)
}

// TopicData holds the normalized text of both categories for one topic.
// Either field may be empty, meaning the category contributed nothing.
type TopicData struct {
	News       string `json:"news"`
	Discussion string `json:"discussion"`
}

// Dataset is the unified per-topic result of one aggregation run. Every
// requested topic has an entry, whatever the provider outcomes were.
type Dataset struct {
	Topics             []string             `json:"topics"` // request order
	Data               map[string]TopicData `json:"data"`
	NewsProvider       string               `json:"news_provider,omitempty"`       // winning provider, "" if none
	DiscussionProvider string               `json:"discussion_provider,omitempty"` // winning provider, "" if none
}

// HasContent reports whether any topic carries genuine text (not a failure
// marker) in either category.
func (d *Dataset) HasContent() bool {
	for _, td := range d.Data {
		if realText(td.News) || realText(td.Discussion) {
			return true
		}
	}
	return false
}

func realText(s string) bool {
	return s != "" && !IsErrorMarker(s)
}

// ProviderStatus describes one provider for the status query.
type ProviderStatus struct {
	Name     string           `json:"name"`
	Category sources.Category `json:"category"`
	Eligible bool             `json:"eligible"`
}

// Aggregator owns the two fallback chains. Provider order within a chain is
// priority order and is fixed at construction.
type Aggregator struct {
	news          []sources.Provider
	discussion    []sources.Provider
	logger        *slog.Logger
	maxConcurrent int
}

// New creates an Aggregator from the ordered provider chains.
func New(news, discussion []sources.Provider) *Aggregator {
	return &Aggregator{
		news:          news,
		discussion:    discussion,
		logger:        slog.Default(),
		maxConcurrent: 4,
	}
}

// Providers reports every registered provider and its current eligibility,
// in chain priority order.
func (a *Aggregator) Providers() []ProviderStatus {
	var out []ProviderStatus
	for _, p := range a.news {
		out = append(out, ProviderStatus{Name: p.Name(), Category: p.Category(), Eligible: p.Eligible()})
	}
	for _, p := range a.discussion {
		out = append(out, ProviderStatus{Name: p.Name(), Category: p.Category(), Eligible: p.Eligible()})
	}
	return out
}

// Collect runs the applicable chains for the requested topics and merges
// their results. Provider and configuration failures are absorbed here;
// the only error returned is ErrNoData.
func (a *Aggregator) Collect(ctx context.Context, topics []string, mode Mode) (*Dataset, error) {
	ds := &Dataset{
		Topics: topics,
		Data:   make(map[string]TopicData, len(topics)),
	}
	for _, t := range topics {
		ds.Data[t] = TopicData{}
	}

	if mode == ModeNews || mode == ModeBoth {
		results, winner := a.collectCategory(ctx, a.news, topics, "No recent news found for %s")
		ds.NewsProvider = winner
		for topic, text := range results {
			td := ds.Data[topic]
			td.News = text
			ds.Data[topic] = td
		}
	}

	if mode == ModeDiscussion || mode == ModeBoth {
		results, winner := a.collectCategory(ctx, a.discussion, topics, "No recent discussion found for %s")
		ds.DiscussionProvider = winner
		for topic, text := range results {
			td := ds.Data[topic]
			td.Discussion = text
			ds.Data[topic] = td
		}
	}

	if !ds.HasContent() {
		return nil, ErrNoData
	}
	return ds, nil
}

// collectCategory walks one chain in priority order. It returns the
// per-topic results of the first provider that yields genuine text for at
// least one topic, along with that provider's name. An exhausted chain
// returns (nil, ""): no data, not an error.
func (a *Aggregator) collectCategory(ctx context.Context, chain []sources.Provider, topics []string, emptyStub string) (map[string]string, string) {
	for _, p := range chain {
		if !p.Eligible() {
			a.logger.Info("provider not configured, skipping", "provider", p.Name(), "category", p.Category())
			continue
		}

		a.logger.Info("attempting provider", "provider", p.Name(), "category", p.Category())
		results := a.fetchTopics(ctx, p, topics)

		succeeded := false
		for _, r := range results {
			if r.err == nil && r.text != "" {
				succeeded = true
				break
			}
		}
		if !succeeded {
			a.logger.Warn("provider produced no data, falling back", "provider", p.Name())
			continue
		}

		// Winner: per-topic failures become stubs, never request errors.
		out := make(map[string]string, len(topics))
		for topic, r := range results {
			switch {
			case r.err == nil && r.text != "":
				out[topic] = r.text
			case errors.Is(r.err, sources.ErrNoResults):
				out[topic] = fmt.Sprintf(emptyStub, topic)
			default:
				a.logger.Warn("topic fetch failed", "provider", p.Name(), "topic", topic, "error", r.err)
				out[topic] = fmt.Sprintf("%s %s data unavailable for %s", errorMarkerPrefix, p.Name(), topic)
			}
		}
		return out, p.Name()
	}
	return nil, ""
}

type fetchResult struct {
	text string
	err  error
}

// fetchTopics runs one provider over all topics with bounded concurrency.
// Topics are independent; one failing does not affect the others.
func (a *Aggregator) fetchTopics(ctx context.Context, p sources.Provider, topics []string) map[string]fetchResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		sem     = make(chan struct{}, a.maxConcurrent)
		results = make(map[string]fetchResult, len(topics))
	)

	for _, topic := range topics {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			text, err := p.Fetch(ctx, topic)
			mu.Lock()
			results[topic] = fetchResult{text: text, err: err}
			mu.Unlock()
		}(topic)
	}
	wg.Wait()

	return results
}
