package stage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pable/hltv-harvester/internal/archive"
	"github.com/pable/hltv-harvester/internal/config"
	"github.com/pable/hltv-harvester/internal/model"
	"github.com/pable/hltv-harvester/internal/store"
	"github.com/pable/hltv-harvester/internal/xerrors"
)

// scriptedFetcher serves canned responses keyed by URL, or by call index
// when byCallIndex is set — used to simulate a challenge appearing partway
// through a batch.
type scriptedFetcher struct {
	byURL       map[string]string
	byCallIndex map[int]error
	calls       int
}

func (f *scriptedFetcher) Fetch(_ context.Context, url string) (string, error) {
	idx := f.calls
	f.calls++
	if err, ok := f.byCallIndex[idx]; ok {
		return "", err
	}
	html, ok := f.byURL[url]
	if !ok {
		return "", fmt.Errorf("scriptedFetcher: no response for %s", url)
	}
	return html, nil
}

func newTestDeps(t *testing.T, f Fetcher) Deps {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	log := zerolog.Nop()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	return Deps{
		Transport: f,
		Store:     st,
		Archive:   archive.New(t.TempDir()),
		Log:       &log,
		Now:       func() time.Time { return fixed },
	}
}

func resultsHTML(entries ...[2]string) string {
	var divs string
	for _, e := range entries {
		divs += fmt.Sprintf(`<div class="result-con" data-zonedgrouping-entry-unix="1700000000000">
			<a class="a-reset" href="/matches/%s/%s"></a></div>`, e[0], e[1])
	}
	return `<html><body><div class="results-all">` + divs + `</div></body></html>`
}

func TestRunDiscoveryResumesPastCompletedOffsets(t *testing.T) {
	f := &scriptedFetcher{byURL: map[string]string{
		resultsURL(200): resultsHTML([2]string{"9001", "a-vs-b"}),
	}}
	d := newTestDeps(t, f)

	for _, offset := range []int{0, 100} {
		if err := d.Store.UpsertDiscoveryEntries(nil, offset, d.Now()); err != nil {
			t.Fatalf("seed discovery_page %d: %v", offset, err)
		}
	}

	stats, err := RunDiscovery(context.Background(), d, config.PaginationConfig{MaxOffset: 200, ResultsPerPage: 100})
	if err != nil {
		t.Fatalf("RunDiscovery: %v", err)
	}
	if stats.Fetched != 1 || stats.Parsed != 1 {
		t.Errorf("expected exactly one fetched/parsed offset (200), got %+v", stats)
	}
	if f.calls != 1 {
		t.Errorf("expected a single fetch call (offsets 0 and 100 already processed), got %d", f.calls)
	}
}

func TestRunDiscoveryZeroEntriesAborts(t *testing.T) {
	f := &scriptedFetcher{byURL: map[string]string{
		resultsURL(0): `<html><body></body></html>`,
	}}
	d := newTestDeps(t, f)

	_, err := RunDiscovery(context.Background(), d, config.PaginationConfig{MaxOffset: 0, ResultsPerPage: 100})
	if err == nil {
		t.Fatal("expected zero-entries pagination to abort with an error")
	}
}

func TestRunDiscoveryTransportFailureDiscardsBatch(t *testing.T) {
	f := &scriptedFetcher{byCallIndex: map[int]error{
		0: &xerrors.TransportFailedError{URL: resultsURL(0), Cause: fmt.Errorf("boom")},
	}}
	d := newTestDeps(t, f)

	stats, err := RunDiscovery(context.Background(), d, config.PaginationConfig{MaxOffset: 200, ResultsPerPage: 100})
	if err != nil {
		t.Fatalf("a batch-fatal transport failure should not surface as an error: %v", err)
	}
	if stats.FetchErrors != 1 || stats.Parsed != 0 {
		t.Errorf("expected one fetch error and no progress, got %+v", stats)
	}
	processed, _ := d.Store.IsOffsetProcessed(0)
	if processed {
		t.Error("offset 0 must remain unprocessed after a discarded batch")
	}
}

func overviewHTML() string {
	return `<html><body></body></html>`
}

func TestRunOverviewQuarantinesUnparsableMatch(t *testing.T) {
	d := newTestDeps(t, &scriptedFetcher{})
	entries := []model.ResultsEntry{{MatchID: 42, URL: "https://www.hltv.org/matches/42/a-vs-b"}}
	if err := d.Store.UpsertDiscoveryEntries(entries, 0, d.Now()); err != nil {
		t.Fatalf("seed discovery_entry: %v", err)
	}

	f := &scriptedFetcher{byURL: map[string]string{
		"https://www.hltv.org/matches/42/a-vs-b": overviewHTML(),
	}}
	d.Transport = f

	stats, err := RunOverview(context.Background(), d, 10)
	if err != nil {
		t.Fatalf("RunOverview: %v", err)
	}
	if stats.Failed != 1 || stats.Parsed != 0 {
		t.Errorf("expected the unparsable overview to fail, got %+v", stats)
	}

	pending, err := d.Store.PendingOverview(10)
	if err != nil {
		t.Fatalf("PendingOverview: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("a failed overview must not remain pending, got %+v", pending)
	}

	q, err := d.Store.ListQuarantine("match_overview", 10)
	if err != nil {
		t.Fatalf("ListQuarantine: %v", err)
	}
	if len(q) != 1 || *q[0].MatchID != 42 {
		t.Errorf("expected one quarantined match_overview entry for match 42, got %+v", q)
	}
}

func TestRunOverviewPageMissingIsItemFatalNotBatchFatal(t *testing.T) {
	d := newTestDeps(t, &scriptedFetcher{})
	entries := []model.ResultsEntry{
		{MatchID: 1, URL: "https://www.hltv.org/matches/1/a-vs-b"},
		{MatchID: 2, URL: "https://www.hltv.org/matches/2/c-vs-d"},
	}
	if err := d.Store.UpsertDiscoveryEntries(entries, 0, d.Now()); err != nil {
		t.Fatalf("seed discovery_entry: %v", err)
	}

	f := &scriptedFetcher{
		byCallIndex: map[int]error{0: &xerrors.PageMissingError{URL: entries[0].URL, StatusHint: "http 404"}},
		byURL:       map[string]string{entries[1].URL: overviewHTML()},
	}
	d.Transport = f

	stats, err := RunOverview(context.Background(), d, 10)
	if err != nil {
		t.Fatalf("a page-missing fetch error must not abort the batch: %v", err)
	}
	if stats.FetchErrors != 1 {
		t.Errorf("expected exactly one fetch error, got %+v", stats)
	}
	if stats.Fetched != 1 {
		t.Errorf("expected the second entry to still be fetched after the first's page-missing error, got %+v", stats)
	}

	q, err := d.Store.ListQuarantine("match_overview", 10)
	if err != nil {
		t.Fatalf("ListQuarantine: %v", err)
	}
	if len(q) != 2 {
		t.Errorf("expected both entries quarantined (missing page, then unparsable), got %+v", q)
	}
}

func TestRunMapStatsChallengeMidBatchDiscardsWholeBatch(t *testing.T) {
	d := newTestDeps(t, &scriptedFetcher{})

	matchID := int64(7)
	var maps []model.Map
	for i := 1; i <= 10; i++ {
		id := int64(1000 + i)
		maps = append(maps, model.Map{MatchID: matchID, MapNumber: i, MapName: "Inferno", MapStatsID: &id})
	}
	ov := model.MatchOverview{
		Match: model.Match{MatchID: matchID, Team1: model.TeamRef{ID: 1}, Team2: model.TeamRef{ID: 2}, BestOf: model.BestOf3},
		Maps:  maps,
	}
	if err := d.Store.UpsertOverview(ov, d.Now()); err != nil {
		t.Fatalf("seed overview: %v", err)
	}

	f := &scriptedFetcher{byCallIndex: map[int]error{
		3: &xerrors.ChallengeServedError{URL: "challenged", Attempts: 2},
	}, byURL: map[string]string{}}
	for i := 1; i <= 10; i++ {
		f.byURL[mapStatsURL(int64(1000+i))] = `<html><body></body></html>`
	}
	d.Transport = f

	stats, err := RunMapStats(context.Background(), d, 10)
	if err != nil {
		t.Fatalf("a batch-fatal challenge should not surface as an error: %v", err)
	}
	if stats.Fetched != 3 || stats.FetchErrors != 1 || stats.Parsed != 0 {
		t.Errorf("expected fetched=3, fetch_errors=1, parsed=0, got %+v", stats)
	}

	pending, err := d.Store.PendingMapStats(20)
	if err != nil {
		t.Fatalf("PendingMapStats: %v", err)
	}
	if len(pending) != 10 {
		t.Errorf("expected all 10 maps to remain pending after a discarded batch, got %d", len(pending))
	}
}

func TestValidateMapStatsRejectsShortRoster(t *testing.T) {
	ms := model.MapStats{
		MatchID:     100,
		MapNumber:   1,
		PlayerStats: []model.PlayerStat{{MatchID: 100, MapNumber: 1, PlayerID: 1}},
	}
	if err := ValidateMapStats(ms); err == nil {
		t.Fatal("expected rejection for a map-stats page with fewer than 10 player rows")
	}
}

func TestRunAllStopsWhenNoStageMakesProgress(t *testing.T) {
	d := newTestDeps(t, &scriptedFetcher{})
	cfg := config.Default()
	cfg.Pagination.MaxOffset = 0
	if err := d.Store.UpsertDiscoveryEntries(nil, 0, d.Now()); err != nil {
		t.Fatalf("seed discovery_page 0: %v", err)
	}

	all, err := RunAll(context.Background(), d, cfg)
	if err != nil {
		t.Fatalf("RunAll on an empty store should not error: %v", err)
	}
	if all.Rounds != 1 {
		t.Errorf("expected exactly one round when nothing progresses, got %d", all.Rounds)
	}
}
