// Package broadcast turns an aggregated per-topic dataset into a
// TTS-ready spoken news script.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/newsninja/newsninja/internal/aggregator"
	"github.com/newsninja/newsninja/pkg/llm"
)

const systemPrompt = `You are broadcast_news_writer, a professional virtual news reporter. Generate natural, TTS-ready news reports using available sources.

For each topic, STRUCTURE BASED ON AVAILABLE DATA:
1. If news exists: "According to official reports..." followed by a summary
2. If online discussion exists: "Online discussions reveal..." followed by a summary
3. If both exist: Present news first, then community reactions
4. If neither exists: Create a general introduction about the topic and mention that current data is limited

Formatting rules:
- ALWAYS start directly with the content, NO INTRODUCTIONS
- Keep audio length 60-120 seconds per topic
- Use natural speech transitions like "Meanwhile, online discussions..."
- Incorporate 1-2 short quotes from discussions when available
- Maintain neutral tone but highlight key sentiments
- End with a "To wrap up this segment..." summary

Write in full paragraphs optimized for speech synthesis. No markdown, no special symbols, no preamble.`

const topicSeparator = "\n\n--- NEW TOPIC ---\n\n"

// Summarizer merges per-topic news and discussion text into a single spoken
// script via an LLM, with an optional local fallback model and a
// deterministic last-resort script. Script never fails.
type Summarizer struct {
	primary  llm.Client
	fallback llm.Client // optional, may be nil
	logger   *slog.Logger
}

// NewSummarizer creates a Summarizer. fallback may be nil.
func NewSummarizer(primary, fallback llm.Client) *Summarizer {
	return &Summarizer{
		primary:  primary,
		fallback: fallback,
		logger:   slog.Default(),
	}
}

// Script builds the broadcast script for the dataset. It always returns a
// usable non-empty string: LLM failures degrade to the fallback model and
// finally to a deterministic script naming every topic.
func (s *Summarizer) Script(ctx context.Context, ds *aggregator.Dataset) string {
	prompt := buildPrompt(ds)

	for _, client := range []llm.Client{s.primary, s.fallback} {
		if client == nil {
			continue
		}
		resp, err := client.Generate(ctx, &llm.Request{
			System: systemPrompt,
			Prompt: prompt,
		})
		if err != nil {
			s.logger.Warn("script generation failed", "provider", client.Provider(), "error", err)
			continue
		}
		if script := strings.TrimSpace(resp.Content); script != "" {
			s.logger.Info("script generated",
				"provider", client.Provider(),
				"chars", len(script),
				"tokens", resp.TokensIn+resp.TokensOut,
				"cost", resp.Cost,
			)
			return script
		}
	}

	s.logger.Warn("all LLM backends failed, using deterministic fallback script")
	return FallbackScript(ds.Topics)
}

// buildPrompt assembles one context block per topic, labeled by category,
// joined by a distinct separator.
func buildPrompt(ds *aggregator.Dataset) string {
	blocks := make([]string, 0, len(ds.Topics))
	for _, topic := range ds.Topics {
		td := ds.Data[topic]

		var context []string
		if usable(td.News) {
			context = append(context, "OFFICIAL NEWS CONTENT:\n"+td.News)
		}
		if usable(td.Discussion) {
			context = append(context, "ONLINE DISCUSSION CONTENT:\n"+td.Discussion)
		}

		block := "TOPIC: " + topic + "\n\n"
		if len(context) > 0 {
			block += strings.Join(context, "\n\n")
		} else {
			block += "LIMITED DATA: No current news or discussion data available for this topic."
		}
		blocks = append(blocks, block)
	}

	return "Create broadcast segments for these topics using available sources:\n\n" +
		strings.Join(blocks, topicSeparator)
}

// usable excludes absent text and per-topic failure markers from the
// broadcast context.
func usable(text string) bool {
	return text != "" && !aggregator.IsErrorMarker(text)
}

// FallbackScript deterministically synthesizes a script that names the
// requested topics and states that current data is unavailable.
func FallbackScript(topics []string) string {
	list := strings.Join(topics, ", ")
	return fmt.Sprintf("Welcome to your news update. Today we're covering %s. "+
		"Unfortunately, we're experiencing technical difficulties accessing current news data. "+
		"Please check back later for updated information on these important topics.", list)
}
