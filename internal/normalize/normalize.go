// Package normalize turns raw provider payloads into per-topic plain text.
// It strips HTML markup and segments cleaned news-page text into headlines.
package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

// Sentinel is the literal line emitted by the news page's "show more" UI
// artifact. It marks the boundary between headline blocks in cleaned text.
const Sentinel = "More"

// CleanHTML converts an HTML document into newline-separated plain text,
// removing scripts, styles and page chrome. Each text node becomes its own
// line, which is the shape ExtractHeadlines expects.
func CleanHTML(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return strings.TrimSpace(htmlContent)
	}

	var sb strings.Builder
	writeTextLines(doc, &sb, map[string]bool{
		"script": true, "style": true, "nav": true, "footer": true,
		"noscript": true, "svg": true, "iframe": true,
	})
	return strings.TrimSpace(sb.String())
}

func writeTextLines(n *html.Node, sb *strings.Builder, skipTags map[string]bool) {
	if n.Type == html.ElementNode && skipTags[n.Data] {
		return
	}

	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeTextLines(c, sb, skipTags)
	}
}

// blockState tracks the headline extraction state machine.
type blockState int

const (
	justFlushed blockState = iota // no lines accumulated since the last flush
	accumulating
)

// ExtractHeadlines scans cleaned page text line by line and returns the
// headlines it finds, joined with newlines. Lines accumulate into a block;
// each sentinel line flushes the first line of the current block as a
// headline. A trailing block at end of input is also flushed. A sentinel
// arriving while no block is open emits nothing.
//
// The function is pure: identical input always yields identical output.
func ExtractHeadlines(cleanedText string) string {
	var headlines []string
	var first string

	state := justFlushed
	for _, raw := range strings.Split(cleanedText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if line == Sentinel {
			if state == accumulating {
				headlines = append(headlines, first)
				state = justFlushed
			}
			// Sentinel with an empty block: nothing to emit.
			continue
		}

		if state == justFlushed {
			first = line
			state = accumulating
		}
	}

	if state == accumulating {
		headlines = append(headlines, first)
	}

	return strings.Join(headlines, "\n")
}
