package parse

import (
	"os"
	"testing"
)

func mustReadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(data)
}

func TestParseResultsSuppressesFeaturedBlockAndDetectsForfeit(t *testing.T) {
	html := mustReadFixture(t, "results.html")

	entries, err := ParseResults(html)
	if err != nil {
		t.Fatalf("ParseResults: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 timestamped entries (featured block suppressed), got %d", len(entries))
	}
	if entries[0].MatchID != 1001 || entries[1].MatchID != 1002 {
		t.Errorf("unexpected match ids: %+v", entries)
	}
	if entries[0].ForfeitHint {
		t.Error("expected first entry to have no forfeit hint")
	}
	if !entries[1].ForfeitHint {
		t.Error("expected second entry to carry the forfeit hint")
	}
	if entries[1].TimestampMs != 1700003600000 {
		t.Errorf("unexpected timestamp: %d", entries[1].TimestampMs)
	}
}

func TestParseResultsEmptyPage(t *testing.T) {
	entries, err := ParseResults(`<html><body><div class="results-all"></div></body></html>`)
	if err != nil {
		t.Fatalf("ParseResults: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}
