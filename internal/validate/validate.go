// Package validate implements the structural and cross-field validation
// gate every parsed record passes through before persistence: hard
// rejects quarantine the record and skip the write, soft warnings pass
// the record through with an audit note, and batch-level checks run after
// individual validation.
package validate

import (
	"fmt"

	"github.com/pable/hltv-harvester/internal/model"
	"github.com/pable/hltv-harvester/internal/xerrors"
)

// Result carries the soft warnings produced alongside a passing record.
// A non-nil error from a Validate* function is always a hard reject
// (*xerrors.ValidationError); Warnings is only meaningful when err is nil.
type Result struct {
	Warnings []string
}

// ValidateMatch hard-rejects structurally invalid matches. Forfeit matches
// use a lighter model (score-consistency rule is waived) but keep every
// structural check.
func ValidateMatch(m model.Match) (Result, error) {
	var res Result

	if m.Team1.ID == m.Team2.ID {
		return Result{}, reject("match", "team1 and team2 have the same id")
	}
	switch m.BestOf {
	case model.BestOf1, model.BestOf3, model.BestOf5:
	default:
		return Result{}, reject("match", fmt.Sprintf("best_of %d is not one of {1,3,5}", m.BestOf))
	}

	if !m.IsForfeit {
		maxWins := (int(m.BestOf) / 2) + 1
		if m.Team1Score != nil && *m.Team1Score > maxWins && m.BestOf != model.BestOf1 {
			return Result{}, reject("match", fmt.Sprintf("team1_score %d exceeds max wins %d for best_of %d", *m.Team1Score, maxWins, m.BestOf))
		}
		if m.Team2Score != nil && *m.Team2Score > maxWins && m.BestOf != model.BestOf1 {
			return Result{}, reject("match", fmt.Sprintf("team2_score %d exceeds max wins %d for best_of %d", *m.Team2Score, maxWins, m.BestOf))
		}
	} else if m.Team1Score != nil && m.Team2Score != nil && winnerHasFewerWins(m) {
		res.Warnings = append(res.Warnings, "forfeit winner has fewer recorded map wins than best_of would require")
	}

	return res, nil
}

func winnerHasFewerWins(m model.Match) bool {
	maxWins := (int(m.BestOf) / 2) + 1
	return *m.Team1Score < maxWins && *m.Team2Score < maxWins
}

// ValidateMap hard-rejects structurally invalid maps.
func ValidateMap(m model.Map) (Result, error) {
	var res Result

	if m.IsForfeit {
		if m.MapName != model.ForfeitMapName {
			return Result{}, reject("map", "is_forfeit set but map_name is not the forfeit sentinel")
		}
		if m.MapStatsID != nil {
			return Result{}, reject("map", "forfeit map must not carry a mapstatsid")
		}
		return res, nil
	}

	if m.Team1Rounds < 0 || m.Team2Rounds < 0 {
		return Result{}, reject("map", "negative round counts")
	}
	if m.Team1CTRounds+m.Team1TRounds > m.Team1Rounds {
		return Result{}, reject("map", "team1 CT+T rounds exceed team1_rounds")
	}
	if m.Team2CTRounds+m.Team2TRounds > m.Team2Rounds {
		return Result{}, reject("map", "team2 CT+T rounds exceed team2_rounds")
	}

	return res, nil
}

// ValidatePlayerStat hard-rejects impossible per-player stat combinations.
// Only the columns populated by the calling stage are checked — a row
// mid read-merge-write legitimately has nil columns for the other stage.
func ValidatePlayerStat(p model.PlayerStat) (Result, error) {
	var res Result

	if p.HasMapStatsColumns() {
		if *p.Kills < 0 || *p.Deaths < 0 || *p.Assists < 0 {
			return Result{}, reject("player_stat", "negative kills/deaths/assists")
		}
		if *p.HSKills > *p.Kills {
			return Result{}, reject("player_stat", "hs_kills exceeds kills")
		}
		if p.KDDiff != nil && *p.KDDiff != *p.Kills-*p.Deaths {
			return Result{}, reject("player_stat", "kd_diff does not equal kills - deaths")
		}
		if p.FKDiff != nil && p.OpeningKills != nil && p.OpeningDeaths != nil && *p.FKDiff != *p.OpeningKills-*p.OpeningDeaths {
			return Result{}, reject("player_stat", "fk_diff does not equal opening_kills - opening_deaths")
		}
		if p.Rating != nil && (*p.Rating < 0.1 || *p.Rating > 3.0) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("unusual rating %.2f", *p.Rating))
		}
		if p.ADR != nil && *p.ADR > 200 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("unusual adr %.1f", *p.ADR))
		}
	}

	return res, nil
}

// ValidateRoundOutcome hard-rejects a round with a winner side other than
// CT or T, a non-positive round number, or an unrecognized win type. The
// winner team id is not checked.
func ValidateRoundOutcome(r model.RoundOutcome) (Result, error) {
	if r.WinnerSide != model.SideCT && r.WinnerSide != model.SideT {
		return Result{}, reject("round_outcome", "winner_side is not CT or T")
	}
	if r.RoundNumber <= 0 {
		return Result{}, reject("round_outcome", "round_number must be positive")
	}
	switch r.WinType {
	case model.WinElimination, model.WinBombPlanted, model.WinDefuse, model.WinTime:
	default:
		return Result{}, reject("round_outcome", fmt.Sprintf("win_type %q is not a recognized value", r.WinType))
	}
	return Result{}, nil
}

// ValidateRoundEconomy hard-rejects a negative equipment value.
func ValidateRoundEconomy(r model.RoundEconomy) (Result, error) {
	if r.EquipmentValue < 0 {
		return Result{}, reject("round_economy", "negative equipment_value")
	}
	return Result{}, nil
}

// ValidateMapStatsBatch is the batch-level check for one map's player-stat
// rows: a played map must have exactly 10. The caller treats a non-empty
// result as a hard reject of the whole page rather than persisting a
// partial roster.
func ValidateMapStatsBatch(playerCount int) []string {
	if playerCount != 10 {
		return []string{fmt.Sprintf("expected 10 player_stat rows, got %d", playerCount)}
	}
	return nil
}

// ValidateEconomyAgainstOutcomes is the batch-level check pairing economy
// rows with the round_outcome rows already known for the map: every
// round_economy.round_number should appear in round_outcome. Rows that
// don't are warned about here and filtered at write time by the store.
func ValidateEconomyAgainstOutcomes(rounds []model.RoundEconomy, knownRoundNumbers map[int]bool) []string {
	var warnings []string
	for _, r := range rounds {
		if !knownRoundNumbers[r.RoundNumber] {
			warnings = append(warnings, fmt.Sprintf("round_economy round %d has no matching round_outcome, will be discarded", r.RoundNumber))
		}
	}
	return warnings
}

func reject(entityType, reason string) error {
	return &xerrors.ValidationError{EntityType: entityType, Reason: reason}
}
