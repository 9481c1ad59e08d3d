package stage

import (
	"context"

	"github.com/pable/hltv-harvester/internal/archive"
	"github.com/pable/hltv-harvester/internal/model"
	"github.com/pable/hltv-harvester/internal/parse"
	"github.com/pable/hltv-harvester/internal/validate"
	"github.com/pable/hltv-harvester/internal/xerrors"
)

type fetchedPerfEconomy struct {
	m           model.Map
	perfHTML    string
	economyHTML string
}

// RunPerfEconomy drains up to limit maps whose player_stat rows exist but
// whose rate columns (kpr) are still null. Both sub-pages are fetched and
// archived for a map before either is parsed, matching the fetch-then-
// parse split every stage uses. Economy rows are filtered against the
// existing round_outcome set at persist time (store.UpsertEconomy);
// ValidateEconomyAgainstOutcomes surfaces the same mismatch as a warning
// before that happens, so it is visible in logs rather than only in the
// discard count.
func RunPerfEconomy(ctx context.Context, d Deps, limit int) (Stats, error) {
	var stats Stats

	pending, err := d.Store.PendingPerfEconomy(limit)
	if err != nil {
		return stats, err
	}
	if len(pending) == 0 {
		return stats, nil
	}

	var fetched []fetchedPerfEconomy
	for _, m := range pending {
		mapStatsID := *m.MapStatsID
		matchID, mapNumber := m.MatchID, m.MapNumber
		failFetch := func(cause error) {
			stats.Failed++
			quarantineAndFail(d, "perf_economy", &matchID, &mapNumber, m, cause, func() error { return nil })
		}

		perfHTML, err := d.Transport.Fetch(ctx, performanceURL(mapStatsID))
		if err != nil {
			stats.FetchErrors++
			if isBatchFatal(err) {
				d.Log.Warn().Err(err).Int64("mapstatsid", mapStatsID).Msg("discarding perf-economy batch")
				return stats, nil
			}
			failFetch(err)
			continue
		}
		stats.Fetched++
		if err := d.Archive.Write(d.Archive.MatchPagePath(m.MatchID, archive.PagePerformance, mapStatsID), []byte(perfHTML)); err != nil {
			return stats, err
		}

		economyHTML, err := d.Transport.Fetch(ctx, economyURL(mapStatsID))
		if err != nil {
			stats.FetchErrors++
			if isBatchFatal(err) {
				d.Log.Warn().Err(err).Int64("mapstatsid", mapStatsID).Msg("discarding perf-economy batch")
				return stats, nil
			}
			failFetch(err)
			continue
		}
		stats.Fetched++
		if err := d.Archive.Write(d.Archive.MatchPagePath(m.MatchID, archive.PageEconomy, mapStatsID), []byte(economyHTML)); err != nil {
			return stats, err
		}

		fetched = append(fetched, fetchedPerfEconomy{m: m, perfHTML: perfHTML, economyHTML: economyHTML})
	}

	for _, f := range fetched {
		matchID, mapNumber, mapStatsID := f.m.MatchID, f.m.MapNumber, *f.m.MapStatsID
		fail := func(cause error) {
			stats.Failed++
			quarantineAndFail(d, "perf_economy", &matchID, &mapNumber, f.m, cause, func() error { return nil })
		}

		perf, err := parse.ParsePerformance(f.perfHTML, mapStatsID)
		if err != nil {
			fail(&xerrors.ParseError{Stage: "performance", Context: f.m.MapName, Cause: err})
			continue
		}
		econ, err := parse.ParseEconomy(f.economyHTML, mapStatsID, matchID, mapNumber)
		if err != nil {
			fail(&xerrors.ParseError{Stage: "economy", Context: f.m.MapName, Cause: err})
			continue
		}

		if rejectErr := ValidateEconomyRounds(econ); rejectErr != nil {
			fail(rejectErr)
			continue
		}

		if err := d.Store.UpsertPerformance(mapStatsID, matchID, mapNumber, perf, d.Now()); err != nil {
			fail(&xerrors.PersistError{Operation: "upsert performance", Cause: err})
			continue
		}

		knownOutcomes, err := d.Store.KnownRoundNumbers(matchID, mapNumber)
		if err != nil {
			fail(&xerrors.PersistError{Operation: "read round_outcome", Cause: err})
			continue
		}
		for _, w := range validate.ValidateEconomyAgainstOutcomes(econ.Rounds, knownOutcomes) {
			d.Log.Warn().Int64("match_id", matchID).Int("map_number", mapNumber).Msg(w)
		}

		discarded, err := d.Store.UpsertEconomy(matchID, mapNumber, econ, d.Now())
		if err != nil {
			fail(&xerrors.PersistError{Operation: "upsert economy", Cause: err})
			continue
		}
		if discarded > 0 {
			d.Log.Warn().Int64("match_id", matchID).Int("map_number", mapNumber).Int("discarded", discarded).
				Msg("economy rows discarded for missing round_outcome")
		}

		stats.Parsed++
	}

	return stats, nil
}

// ValidateEconomyRounds hard-rejects on the first structurally invalid
// round_economy row; exported for reuse by the host-local reprocessing
// path.
func ValidateEconomyRounds(econ model.EconomyData) error {
	for _, r := range econ.Rounds {
		if _, err := validate.ValidateRoundEconomy(r); err != nil {
			return err
		}
	}
	return nil
}
