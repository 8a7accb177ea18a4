// Package sources defines the provider interface and implementations for
// fetching topic-relevant news and discussion text from external services.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Category identifies which fallback chain a provider belongs to.
type Category string

const (
	CategoryNews       Category = "news"
	CategoryDiscussion Category = "discussion"
)

// Provider is the uniform contract every source adapter implements.
// A provider wraps exactly one external service, never falls back
// internally, and must be safe to call concurrently for distinct topics.
type Provider interface {
	// Name returns the human-readable name of the provider.
	Name() string

	// Category returns the chain this provider serves.
	Category() Category

	// Eligible reports whether the provider's required configuration is
	// present. An ineligible provider is skipped, not failed.
	Eligible() bool

	// Fetch returns normalized plain text for one topic, ErrNoResults when
	// the upstream answered but had nothing, or a *ProviderError.
	Fetch(ctx context.Context, topic string) (string, error)
}

// ErrNoResults means the provider call succeeded but the topic turned up
// empty. Distinct from a provider failure: it does not trigger fallback.
var ErrNoResults = errors.New("no results for topic")

// ProviderError reports a failed adapter call, carrying the provider name
// and the upstream HTTP-style status. It triggers fallback to the next
// provider in the chain.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: upstream status %d: %s", e.Provider, e.Status, e.Message)
}

// newsSearchURL builds the news search page URL for a topic, sorted by date.
func newsSearchURL(base, topic string) string {
	return fmt.Sprintf("%s/search?q=%s&tbs=sbd:1", base, url.QueryEscape(topic))
}
