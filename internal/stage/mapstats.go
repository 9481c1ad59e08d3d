package stage

import (
	"context"

	"github.com/pable/hltv-harvester/internal/archive"
	"github.com/pable/hltv-harvester/internal/model"
	"github.com/pable/hltv-harvester/internal/parse"
	"github.com/pable/hltv-harvester/internal/validate"
	"github.com/pable/hltv-harvester/internal/xerrors"
)

type fetchedMapStats struct {
	m    model.Map
	html string
}

// RunMapStats drains up to limit maps that have a mapstatsid but no
// player_stat rows yet. Unlike overview, there is no discovery_entry to
// flip on success or failure — done-ness is inferred purely from data
// presence, so a rejected map simply stays pending and is retried (and
// re-rejected, harmlessly) on the next invocation after quarantine.
func RunMapStats(ctx context.Context, d Deps, limit int) (Stats, error) {
	var stats Stats

	pending, err := d.Store.PendingMapStats(limit)
	if err != nil {
		return stats, err
	}
	if len(pending) == 0 {
		return stats, nil
	}

	var fetched []fetchedMapStats
	for _, m := range pending {
		url := mapStatsURL(*m.MapStatsID)
		html, err := d.Transport.Fetch(ctx, url)
		if err != nil {
			stats.FetchErrors++
			if isBatchFatal(err) {
				d.Log.Warn().Err(err).Int64("mapstatsid", *m.MapStatsID).Msg("discarding map-stats batch")
				return stats, nil
			}
			matchID, mapNumber := m.MatchID, m.MapNumber
			stats.Failed++
			quarantineAndFail(d, "map_stats", &matchID, &mapNumber, m, err, func() error { return nil })
			continue
		}
		stats.Fetched++

		path := d.Archive.MatchPagePath(m.MatchID, archive.PageMapStats, *m.MapStatsID)
		if err := d.Archive.Write(path, []byte(html)); err != nil {
			return stats, err
		}
		fetched = append(fetched, fetchedMapStats{m: m, html: html})
	}

	for _, f := range fetched {
		matchID, mapNumber := f.m.MatchID, f.m.MapNumber
		fail := func(cause error) {
			stats.Failed++
			quarantineAndFail(d, "map_stats", &matchID, &mapNumber, f.m, cause, func() error { return nil })
		}

		ms, err := parse.ParseMapStats(f.html, *f.m.MapStatsID, matchID, mapNumber)
		if err != nil {
			fail(&xerrors.ParseError{Stage: "map-stats", Context: f.m.MapName, Cause: err})
			continue
		}

		if rejectErr := ValidateMapStats(ms); rejectErr != nil {
			fail(rejectErr)
			continue
		}

		if err := d.Store.UpsertMapStats(ms, d.Now()); err != nil {
			fail(&xerrors.PersistError{Operation: "upsert map stats", Cause: err})
			continue
		}
		stats.Parsed++
	}

	return stats, nil
}

// ValidateMapStats runs the batch, per-player, and per-round checks that
// together gate one map-stats page; exported for reuse by the host-local
// reprocessing path. A page that didn't parse to exactly 10 player rows is
// rejected outright rather than persisted with a short roster.
func ValidateMapStats(ms model.MapStats) error {
	if warnings := validate.ValidateMapStatsBatch(len(ms.PlayerStats)); len(warnings) > 0 {
		return &xerrors.ValidationError{EntityType: "map_stats", Reason: warnings[0]}
	}
	for _, p := range ms.PlayerStats {
		if _, err := validate.ValidatePlayerStat(p); err != nil {
			return err
		}
	}
	for _, r := range ms.RoundOutcomes {
		if _, err := validate.ValidateRoundOutcome(r); err != nil {
			return err
		}
	}
	return nil
}
