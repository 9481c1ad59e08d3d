package store

import (
	"testing"
	"time"

	"github.com/pable/hltv-harvester/internal/model"
)

func openMemStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDiscoveryRoundTrip(t *testing.T) {
	s := openMemStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := []model.ResultsEntry{
		{MatchID: 1, URL: "/matches/1/a-vs-b", ForfeitHint: false},
		{MatchID: 2, URL: "/matches/2/c-vs-d", ForfeitHint: true},
	}
	if err := s.UpsertDiscoveryEntries(entries, 0, now); err != nil {
		t.Fatalf("UpsertDiscoveryEntries: %v", err)
	}

	processed, err := s.IsOffsetProcessed(0)
	if err != nil || !processed {
		t.Fatalf("expected offset 0 processed, got %v err %v", processed, err)
	}

	pending, err := s.PendingOverview(10)
	if err != nil {
		t.Fatalf("PendingOverview: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(pending))
	}
	if pending[0].MatchID != 1 || pending[1].MatchID != 2 {
		t.Errorf("expected ascending match_id order, got %v", pending)
	}
	if !pending[1].ForfeitHint {
		t.Error("expected forfeit hint preserved for match 2")
	}

	if err := s.MarkDiscoveryStatus(1, model.DiscoveryScraped, now); err != nil {
		t.Fatalf("MarkDiscoveryStatus: %v", err)
	}
	pending, err = s.PendingOverview(10)
	if err != nil {
		t.Fatalf("PendingOverview after mark: %v", err)
	}
	if len(pending) != 1 || pending[0].MatchID != 2 {
		t.Fatalf("expected only match 2 pending, got %v", pending)
	}

	// Re-discovery must not clobber an already-scraped status.
	if err := s.UpsertDiscoveryEntries(entries, 1, now); err != nil {
		t.Fatalf("re-discovery: %v", err)
	}
	pending, _ = s.PendingOverview(10)
	if len(pending) != 1 {
		t.Fatalf("re-discovery should not resurrect scraped match 1, got %v", pending)
	}
}

func sampleOverview() model.MatchOverview {
	t1, t2 := "Team A", "Team B"
	mapStatsID := int64(555)
	score1, score2 := 2, 1
	return model.MatchOverview{
		Match: model.Match{
			MatchID:    100,
			Team1:      model.TeamRef{ID: 1, Name: "Team A"},
			Team2:      model.TeamRef{ID: 2, Name: "Team B"},
			Event:      model.EventRef{ID: 10, Name: "Major"},
			BestOf:     model.BestOf3,
			Team1Score: &score1,
			Team2Score: &score2,
			IsLAN:      true,
			Date:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			SourceURL:  "/matches/100/a-vs-b",
		},
		Maps: []model.Map{
			{MatchID: 100, MapNumber: 1, MapName: "Inferno", MapStatsID: &mapStatsID},
		},
		Vetoes: []model.VetoStep{
			{MatchID: 100, StepNumber: 1, Action: model.VetoPicked, TeamName: &t1, MapName: "Inferno"},
			{MatchID: 100, StepNumber: 2, Action: model.VetoLeftOver, MapName: "Nuke"},
		},
		Players: []model.MatchPlayer{
			{MatchID: 100, PlayerID: 1, PlayerName: "p1", TeamID: 1, TeamNumber: 1},
			{MatchID: 100, PlayerID: 2, PlayerName: "p2", TeamID: 2, TeamNumber: 2},
		},
	}
}

func TestUpsertOverviewMarksDiscoveryScraped(t *testing.T) {
	s := openMemStore(t)
	now := time.Now()
	if err := s.UpsertDiscoveryEntries([]model.ResultsEntry{{MatchID: 100, URL: "/matches/100/a-vs-b"}}, 0, now); err != nil {
		t.Fatalf("seed discovery: %v", err)
	}

	if err := s.UpsertOverview(sampleOverview(), now); err != nil {
		t.Fatalf("UpsertOverview: %v", err)
	}

	pending, err := s.PendingOverview(10)
	if err != nil {
		t.Fatalf("PendingOverview: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected overview stage to mark discovery scraped, still pending: %v", pending)
	}

	pendingMaps, err := s.PendingMapStats(10)
	if err != nil {
		t.Fatalf("PendingMapStats: %v", err)
	}
	if len(pendingMaps) != 1 || pendingMaps[0].MapNumber != 1 {
		t.Fatalf("expected map 1 pending map-stats, got %v", pendingMaps)
	}
}

func intp(v int) *int         { return &v }
func f64p(v float64) *float64 { return &v }

func TestMapStatsThenPerformanceReadMergeWrite(t *testing.T) {
	s := openMemStore(t)
	now := time.Now()
	if err := s.UpsertOverview(sampleOverview(), now); err != nil {
		t.Fatalf("seed overview: %v", err)
	}

	players := make([]model.PlayerStat, 10)
	players[0] = model.PlayerStat{MatchID: 100, MapNumber: 1, PlayerID: 1, Kills: intp(20), Deaths: intp(10), Rating: f64p(1.3)}
	players[1] = model.PlayerStat{MatchID: 100, MapNumber: 1, PlayerID: 2, Kills: intp(15), Deaths: intp(14), Rating: f64p(0.9)}
	for i := 2; i < 10; i++ {
		players[i] = model.PlayerStat{MatchID: 100, MapNumber: 1, PlayerID: int64(100 + i)}
	}

	ms := model.MapStats{
		MapStatsID:    555,
		MatchID:       100,
		MapNumber:     1,
		PlayerStats:   players,
		RoundOutcomes: []model.RoundOutcome{{MatchID: 100, MapNumber: 1, RoundNumber: 1, WinnerTeamID: 1, WinnerSide: model.SideCT, WinType: model.WinElimination}},
		Team1CTRounds: 10, Team1TRounds: 6, Team2CTRounds: 5, Team2TRounds: 11,
	}
	if err := s.UpsertMapStats(ms, now); err != nil {
		t.Fatalf("UpsertMapStats: %v", err)
	}

	pendingPerf, err := s.PendingPerfEconomy(10)
	if err != nil {
		t.Fatalf("PendingPerfEconomy: %v", err)
	}
	if len(pendingPerf) != 1 {
		t.Fatalf("expected map pending perf+economy, got %v", pendingPerf)
	}

	perf := model.PerformanceData{
		MapStatsID: 555,
		PlayerRates: map[int64]model.PlayerPerformanceRates{
			1: {KPR: 0.9, DPR: 0.5, MKRating: 1.4},
			2: {KPR: 0.7, DPR: 0.8, MKRating: 0.8},
		},
		KillMatrix: []model.KillMatrixEntry{
			{MatchID: 100, MapNumber: 1, MatrixType: model.MatrixAll, RowPlayerID: 1, ColPlayerID: 2, RowKills: 3, ColKills: 1},
		},
	}
	if err := s.UpsertPerformance(555, 100, 1, perf, now); err != nil {
		t.Fatalf("UpsertPerformance: %v", err)
	}

	pendingPerf, err = s.PendingPerfEconomy(10)
	if err != nil {
		t.Fatalf("PendingPerfEconomy after write: %v", err)
	}
	if len(pendingPerf) != 0 {
		t.Fatalf("expected no maps pending perf+economy after full write, got %v", pendingPerf)
	}
}

func TestUpsertEconomyDiscardsRowsWithoutRoundOutcome(t *testing.T) {
	s := openMemStore(t)
	now := time.Now()
	if err := s.UpsertOverview(sampleOverview(), now); err != nil {
		t.Fatalf("seed overview: %v", err)
	}
	ms := model.MapStats{
		MatchID: 100, MapNumber: 1,
		RoundOutcomes: []model.RoundOutcome{
			{MatchID: 100, MapNumber: 1, RoundNumber: 1, WinnerTeamID: 1, WinnerSide: model.SideCT, WinType: model.WinElimination},
		},
	}
	if err := s.UpsertMapStats(ms, now); err != nil {
		t.Fatalf("seed map stats: %v", err)
	}

	econ := model.EconomyData{
		Rounds: []model.RoundEconomy{
			{MatchID: 100, MapNumber: 1, RoundNumber: 1, TeamID: 1, EquipmentValue: 4500, BuyType: model.BuyFullBuy},
			{MatchID: 100, MapNumber: 1, RoundNumber: 2, TeamID: 1, EquipmentValue: 0, BuyType: model.BuyFullEco},
		},
	}
	discarded, err := s.UpsertEconomy(100, 1, econ, now)
	if err != nil {
		t.Fatalf("UpsertEconomy: %v", err)
	}
	if discarded != 1 {
		t.Errorf("expected 1 discarded row for round without round_outcome, got %d", discarded)
	}
}

func TestQuarantineRoundTrip(t *testing.T) {
	s := openMemStore(t)
	now := time.Now()
	matchID := int64(42)

	if err := s.InsertQuarantine(model.QuarantineEntry{
		EntityType:      "match_overview",
		MatchID:         &matchID,
		InputJSON:       `{"match_id":42}`,
		ValidationError: "missing team1_id",
	}, now); err != nil {
		t.Fatalf("InsertQuarantine: %v", err)
	}

	entries, err := s.ListQuarantine("", 10)
	if err != nil {
		t.Fatalf("ListQuarantine: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 quarantine entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected a generated UUID id")
	}
	if *entries[0].MatchID != matchID {
		t.Errorf("expected match_id %d, got %v", matchID, entries[0].MatchID)
	}

	filtered, err := s.ListQuarantine("nonexistent_type", 10)
	if err != nil {
		t.Fatalf("ListQuarantine filtered: %v", err)
	}
	if len(filtered) != 0 {
		t.Errorf("expected no entries for unmatched entity type, got %d", len(filtered))
	}
}
