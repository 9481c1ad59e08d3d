package validate

import (
	"testing"

	"github.com/pable/hltv-harvester/internal/model"
)

func intp(v int) *int { return &v }

func TestValidateMatchRejectsIdenticalTeams(t *testing.T) {
	m := model.Match{Team1: model.TeamRef{ID: 1}, Team2: model.TeamRef{ID: 1}, BestOf: model.BestOf3}
	if _, err := ValidateMatch(m); err == nil {
		t.Fatal("expected rejection for identical team ids")
	}
}

func TestValidateMatchRejectsScoreAboveMaxWins(t *testing.T) {
	score := 3
	m := model.Match{Team1: model.TeamRef{ID: 1}, Team2: model.TeamRef{ID: 2}, BestOf: model.BestOf3, Team1Score: &score}
	if _, err := ValidateMatch(m); err == nil {
		t.Fatal("expected rejection for team1_score exceeding max wins in a BO3")
	}
}

func TestValidateMatchForfeitWaivesScoreCheck(t *testing.T) {
	zero := 0
	m := model.Match{Team1: model.TeamRef{ID: 1}, Team2: model.TeamRef{ID: 2}, BestOf: model.BestOf3, IsForfeit: true, Team1Score: &zero, Team2Score: &zero}
	res, err := ValidateMatch(m)
	if err != nil {
		t.Fatalf("forfeit should not hard-reject on score: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected a soft warning for fewer wins than best_of requires, got %v", res.Warnings)
	}
}

func TestValidateMapForfeitRequiresSentinelName(t *testing.T) {
	m := model.Map{IsForfeit: true, MapName: "Inferno"}
	if _, err := ValidateMap(m); err == nil {
		t.Fatal("expected rejection for forfeit map without sentinel name")
	}
}

func TestValidateMapRejectsCTTOverflow(t *testing.T) {
	m := model.Map{Team1Rounds: 10, Team1CTRounds: 8, Team1TRounds: 5}
	if _, err := ValidateMap(m); err == nil {
		t.Fatal("expected rejection for CT+T exceeding total rounds")
	}
}

func TestValidatePlayerStatRejectsHSExceedsKills(t *testing.T) {
	p := model.PlayerStat{Kills: intp(5), Deaths: intp(3), Assists: intp(1), HSKills: intp(6)}
	if _, err := ValidatePlayerStat(p); err == nil {
		t.Fatal("expected rejection for hs_kills > kills")
	}
}

func TestValidatePlayerStatRejectsKDDiffMismatch(t *testing.T) {
	badDiff := 100
	p := model.PlayerStat{Kills: intp(10), Deaths: intp(5), Assists: intp(1), HSKills: intp(2), KDDiff: &badDiff}
	if _, err := ValidatePlayerStat(p); err == nil {
		t.Fatal("expected rejection for kd_diff mismatch")
	}
}

func TestValidatePlayerStatRejectsFKDiffMismatch(t *testing.T) {
	badDiff := 100
	p := model.PlayerStat{Kills: intp(10), Deaths: intp(5), Assists: intp(1), HSKills: intp(2),
		OpeningKills: intp(3), OpeningDeaths: intp(1), FKDiff: &badDiff}
	if _, err := ValidatePlayerStat(p); err == nil {
		t.Fatal("expected rejection for fk_diff mismatch")
	}
}

func TestValidatePlayerStatSoftWarnsUnusualRating(t *testing.T) {
	rating := 3.5
	p := model.PlayerStat{Kills: intp(10), Deaths: intp(5), Assists: intp(1), HSKills: intp(2), Rating: &rating}
	res, err := ValidatePlayerStat(p)
	if err != nil {
		t.Fatalf("unusual rating should warn, not reject: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", res.Warnings)
	}
}

func TestValidatePlayerStatSkipsMapStatsChecksWhenAbsent(t *testing.T) {
	kpr := 0.8
	p := model.PlayerStat{KPR: &kpr}
	if _, err := ValidatePlayerStat(p); err != nil {
		t.Fatalf("performance-only row should not trigger map-stats checks: %v", err)
	}
}

func TestValidateRoundOutcomeRejectsUnknownWinType(t *testing.T) {
	r := model.RoundOutcome{RoundNumber: 1, WinnerSide: model.SideCT, WinType: model.WinType("planted_bomb")}
	if _, err := ValidateRoundOutcome(r); err == nil {
		t.Fatal("expected rejection for unrecognized win_type")
	}
}

func TestValidateRoundOutcomeAcceptsKnownWinTypes(t *testing.T) {
	for _, wt := range []model.WinType{model.WinElimination, model.WinBombPlanted, model.WinDefuse, model.WinTime} {
		r := model.RoundOutcome{RoundNumber: 1, WinnerSide: model.SideT, WinType: wt}
		if _, err := ValidateRoundOutcome(r); err != nil {
			t.Errorf("win_type %q should be accepted: %v", wt, err)
		}
	}
}

func TestValidateMapStatsBatchWarnsOnWrongCount(t *testing.T) {
	if w := ValidateMapStatsBatch(9); len(w) != 1 {
		t.Errorf("expected one warning for 9 player rows, got %v", w)
	}
	if w := ValidateMapStatsBatch(10); len(w) != 0 {
		t.Errorf("expected no warning for 10 player rows, got %v", w)
	}
}

func TestValidateEconomyAgainstOutcomesFlagsOrphanRounds(t *testing.T) {
	rounds := []model.RoundEconomy{{RoundNumber: 1}, {RoundNumber: 31}}
	known := map[int]bool{1: true}
	warnings := ValidateEconomyAgainstOutcomes(rounds, known)
	if len(warnings) != 1 {
		t.Fatalf("expected one warning for orphan round 31, got %v", warnings)
	}
}

func TestBuildQuarantineEntry(t *testing.T) {
	matchID := int64(42)
	entry := BuildQuarantineEntry("match", &matchID, nil, map[string]int{"team1_id": 1}, errBoom)
	if entry.EntityType != "match" || *entry.MatchID != 42 {
		t.Errorf("unexpected quarantine entry: %+v", entry)
	}
	if entry.InputJSON == "" || entry.ValidationError == "" {
		t.Error("expected populated input json and validation error")
	}
}

var errBoom = fmtError("boom")

type fmtError string

func (e fmtError) Error() string { return string(e) }
