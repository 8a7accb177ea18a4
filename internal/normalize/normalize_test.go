package normalize

import (
	"strings"
	"testing"
)

func TestExtractHeadlines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "two blocks with trailing flush",
			input: "H1\nH1b\nMore\nH2\nMore\nMore",
			want:  "H1\nH2",
		},
		{
			name:  "sentinel on empty block emits nothing",
			input: "More\nMore\nH1\nMore",
			want:  "H1",
		},
		{
			name:  "trailing block without sentinel",
			input: "Only headline\nsubtext",
			want:  "Only headline",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "only sentinels",
			input: "More\nMore\nMore",
			want:  "",
		},
		{
			name:  "blank lines are skipped",
			input: "H1\n\n  \nH1b\nMore\n\nH2\nMore",
			want:  "H1\nH2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractHeadlines(tt.input)
			if got != tt.want {
				t.Errorf("ExtractHeadlines(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractHeadlines_Idempotent(t *testing.T) {
	input := "H1\nH1b\nMore\nH2\nMore\nMore"
	first := ExtractHeadlines(input)
	second := ExtractHeadlines(input)
	if first != second {
		t.Errorf("expected identical output on repeated calls, got %q then %q", first, second)
	}
}

func TestCleanHTML_StripsMarkup(t *testing.T) {
	html := `<html><body><h3>Headline one</h3><div>Summary text</div><a>More</a></body></html>`
	text := CleanHTML(html)
	for _, want := range []string{"Headline one", "Summary text", "More"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in output, got: %s", want, text)
		}
	}
	if strings.Contains(text, "<") {
		t.Errorf("expected no markup in output, got: %s", text)
	}
}

func TestCleanHTML_RemovesScriptsAndChrome(t *testing.T) {
	html := `<html><body><script>alert('x')</script><nav>Home</nav><p>Content</p><style>.a{}</style><footer>Foot</footer></body></html>`
	text := CleanHTML(html)
	for _, banned := range []string{"alert", "Home", ".a{}", "Foot"} {
		if strings.Contains(text, banned) {
			t.Errorf("expected %q to be removed, got: %s", banned, text)
		}
	}
	if !strings.Contains(text, "Content") {
		t.Errorf("expected 'Content' in output, got: %s", text)
	}
}

func TestCleanHTML_LinePerTextNode(t *testing.T) {
	html := `<div><a>First headline</a><span>Source</span><a>More</a></div>`
	text := CleanHTML(html)
	lines := strings.Split(text, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), text)
	}
	if lines[0] != "First headline" || lines[2] != "More" {
		t.Errorf("unexpected lines: %q", lines)
	}
}

// Cleaning then extracting mirrors the real provider path.
func TestCleanHTMLThenExtract(t *testing.T) {
	html := `<div><a>Big story</a><span>Outlet</span><a>More</a><a>Second story</a><a>More</a></div>`
	got := ExtractHeadlines(CleanHTML(html))
	if got != "Big story\nSecond story" {
		t.Errorf("got %q, want %q", got, "Big story\nSecond story")
	}
}
