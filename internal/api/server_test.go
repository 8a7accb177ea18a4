package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newsninja/newsninja/internal/aggregator"
	"github.com/newsninja/newsninja/internal/broadcast"
	"github.com/newsninja/newsninja/internal/history"
	"github.com/newsninja/newsninja/internal/sources"
	"github.com/newsninja/newsninja/internal/tts"
	"github.com/newsninja/newsninja/pkg/llm"
)

type fakeProvider struct {
	name     string
	category sources.Category
	eligible bool
	fetch    func(topic string) (string, error)
}

func (f *fakeProvider) Name() string               { return f.name }
func (f *fakeProvider) Category() sources.Category { return f.category }
func (f *fakeProvider) Eligible() bool             { return f.eligible }
func (f *fakeProvider) Fetch(ctx context.Context, topic string) (string, error) {
	return f.fetch(topic)
}

type fakeLLM struct {
	fn func(req *llm.Request) (*llm.Response, error)
}

func (f *fakeLLM) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return f.fn(req)
}
func (f *fakeLLM) Provider() llm.Provider { return "fake" }
func (f *fakeLLM) Close() error           { return nil }

type fakeSynth struct {
	name string
	data []byte
	err  error
}

func (f *fakeSynth) Name() string   { return f.name }
func (f *fakeSynth) Eligible() bool { return true }
func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.data, "audio/mpeg", nil
}

type serverOptions struct {
	news       []sources.Provider
	discussion []sources.Provider
	llmFn      func(req *llm.Request) (*llm.Response, error)
	synth      tts.Synthesizer
	store      *history.Store
}

func newTestServer(t *testing.T, opts serverOptions) *httptest.Server {
	t.Helper()
	if opts.llmFn == nil {
		opts.llmFn = func(req *llm.Request) (*llm.Response, error) {
			return &llm.Response{Content: "Broadcast script covering " + req.Prompt[:min(40, len(req.Prompt))]}, nil
		}
	}
	if opts.synth == nil {
		opts.synth = &fakeSynth{name: "fake-tts", data: []byte("mp3-audio-bytes")}
	}

	agg := aggregator.New(opts.news, opts.discussion)
	sum := broadcast.NewSummarizer(&fakeLLM{fn: opts.llmFn}, nil)
	renderer := tts.NewRenderer(t.TempDir(), opts.synth)

	srv := httptest.NewServer(NewServer(agg, sum, renderer, opts.store).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func generate(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/generate-news-audio", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// End-to-end: premium provider ineligible, free provider delivers one
// article, news-only mode. The request must come back as audio.
func TestGenerate_ContentOnlyFallbackScenario(t *testing.T) {
	premium := &fakeProvider{name: "brightdata", category: sources.CategoryNews, eligible: false,
		fetch: func(string) (string, error) { t.Fatal("ineligible provider must not be called"); return "", nil }}
	free := &fakeProvider{name: "newsapi", category: sources.CategoryNews, eligible: true,
		fetch: func(topic string) (string, error) {
			return "New model sets records. Research labs react.", nil
		}}

	var prompt string
	srv := newTestServer(t, serverOptions{
		news: []sources.Provider{premium, free},
		llmFn: func(req *llm.Request) (*llm.Response, error) {
			prompt = req.Prompt
			return &llm.Response{Content: "Tonight in AI news, records were set."}, nil
		},
	})

	resp := generate(t, srv, `{"topics":["AI"],"source_type":"news"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "audio/") {
		t.Errorf("expected audio content type, got %s", ct)
	}
	var audio bytes.Buffer
	audio.ReadFrom(resp.Body)
	if audio.Len() == 0 {
		t.Error("expected non-empty audio bytes")
	}
	if !strings.Contains(prompt, "TOPIC: AI") || !strings.Contains(prompt, "New model sets records") {
		t.Errorf("expected article content in LLM prompt, got:\n%s", prompt)
	}
	// news-only: no discussion block beyond the topic stub
	if strings.Contains(prompt, "ONLINE DISCUSSION CONTENT") {
		t.Errorf("discussion content must be absent in news mode:\n%s", prompt)
	}
}

func TestGenerate_MalformedRequests(t *testing.T) {
	srv := newTestServer(t, serverOptions{
		news: []sources.Provider{&fakeProvider{name: "n", category: sources.CategoryNews, eligible: true,
			fetch: func(topic string) (string, error) { return "text", nil }}},
	})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"topics":`},
		{"no topics", `{"topics":[],"source_type":"news"}`},
		{"blank topics", `{"topics":["  ",""],"source_type":"news"}`},
		{"bad mode", `{"topics":["AI"],"source_type":"podcast"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := generate(t, srv, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestGenerate_NoDataAnywhere(t *testing.T) {
	srv := newTestServer(t, serverOptions{
		news: []sources.Provider{&fakeProvider{name: "n", category: sources.CategoryNews, eligible: true,
			fetch: func(string) (string, error) {
				return "", &sources.ProviderError{Provider: "n", Status: 500, Message: "down"}
			}}},
	})

	resp := generate(t, srv, `{"topics":["AI"],"source_type":"both"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] == "" {
		t.Error("expected an explanatory error message")
	}
}

func TestGenerate_RenderFailureIsFatal(t *testing.T) {
	srv := newTestServer(t, serverOptions{
		news: []sources.Provider{&fakeProvider{name: "n", category: sources.CategoryNews, eligible: true,
			fetch: func(topic string) (string, error) { return "headline", nil }}},
		synth: &fakeSynth{name: "broken", err: errors.New("synthesis down")},
	})

	resp := generate(t, srv, `{"topics":["AI"],"source_type":"news"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("script without audio must be an error, got %d", resp.StatusCode)
	}
}

// LLM failure is absorbed: the fallback script still renders to audio.
func TestGenerate_LLMFailureStillProducesAudio(t *testing.T) {
	srv := newTestServer(t, serverOptions{
		news: []sources.Provider{&fakeProvider{name: "n", category: sources.CategoryNews, eligible: true,
			fetch: func(topic string) (string, error) { return "headline", nil }}},
		llmFn: func(req *llm.Request) (*llm.Response, error) {
			return nil, errors.New("model overloaded")
		},
	})

	resp := generate(t, srv, `{"topics":["AI"],"source_type":"news"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summarization failure must not surface, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, serverOptions{
		news: []sources.Provider{
			&fakeProvider{name: "brightdata", category: sources.CategoryNews, eligible: false},
			&fakeProvider{name: "newsapi", category: sources.CategoryNews, eligible: true},
		},
	})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Status    string `json:"status"`
		News      bool   `json:"news"`
		Providers []struct {
			Name     string `json:"name"`
			Eligible bool   `json:"eligible"`
		} `json:"providers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "healthy" || !body.News {
		t.Errorf("expected healthy with news eligible, got %+v", body)
	}
	if len(body.Providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(body.Providers))
	}
	if body.Providers[0].Name != "brightdata" || body.Providers[0].Eligible {
		t.Errorf("expected ineligible brightdata first, got %+v", body.Providers[0])
	}
}

func TestHealth_DegradedWithoutSources(t *testing.T) {
	srv := newTestServer(t, serverOptions{
		news: []sources.Provider{&fakeProvider{name: "brightdata", category: sources.CategoryNews, eligible: false}},
	})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "degraded" {
		t.Errorf("expected degraded, got %v", body["status"])
	}
}

func TestBroadcastHistoryRoundtrip(t *testing.T) {
	store, err := history.New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	srv := newTestServer(t, serverOptions{
		news: []sources.Provider{&fakeProvider{name: "n", category: sources.CategoryNews, eligible: true,
			fetch: func(topic string) (string, error) { return "headline", nil }}},
		store: store,
	})

	resp := generate(t, srv, `{"topics":["AI"],"source_type":"news"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	latestResp, err := http.Get(srv.URL + "/broadcasts/latest")
	if err != nil {
		t.Fatal(err)
	}
	defer latestResp.Body.Close()
	if latestResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", latestResp.StatusCode)
	}

	var b history.Broadcast
	if err := json.NewDecoder(latestResp.Body).Decode(&b); err != nil {
		t.Fatal(err)
	}
	if len(b.Topics) != 1 || b.Topics[0] != "AI" || b.Script == "" {
		t.Errorf("unexpected stored broadcast: %+v", b)
	}
}

func TestBroadcastLatest_EmptyHistory(t *testing.T) {
	store, err := history.New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	srv := newTestServer(t, serverOptions{store: store})
	resp, err := http.Get(srv.URL + "/broadcasts/latest")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
