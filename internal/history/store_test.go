package history

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	latest, err := s.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Fatalf("expected no broadcasts yet, got %+v", latest)
	}

	b := &Broadcast{
		Topics:      []string{"AI", "Space"},
		Mode:        "both",
		Script:      "Tonight's top story.",
		AudioPath:   "audio/tts_20250825_093000.mp3",
		ContentType: "audio/mpeg",
		Backend:     "elevenlabs",
	}
	if err := s.Save(ctx, b); err != nil {
		t.Fatal(err)
	}
	if b.ID == 0 {
		t.Error("expected ID to be filled in")
	}

	latest, err = s.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil {
		t.Fatal("expected a broadcast")
	}
	if latest.Script != b.Script || latest.Mode != "both" {
		t.Errorf("roundtrip mismatch: %+v", latest)
	}
	if len(latest.Topics) != 2 || latest.Topics[0] != "AI" {
		t.Errorf("topics mismatch: %v", latest.Topics)
	}
}

func TestRecentOrderAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, script := range []string{"first", "second", "third"} {
		if err := s.Save(ctx, &Broadcast{Topics: []string{"AI"}, Mode: "news", Script: script}); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2, got %d", len(recent))
	}
	if recent[0].Script != "third" || recent[1].Script != "second" {
		t.Errorf("expected newest first, got %q then %q", recent[0].Script, recent[1].Script)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("expected 3, got %d", count)
	}
}
