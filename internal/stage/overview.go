package stage

import (
	"context"

	"github.com/pable/hltv-harvester/internal/archive"
	"github.com/pable/hltv-harvester/internal/model"
	"github.com/pable/hltv-harvester/internal/parse"
	"github.com/pable/hltv-harvester/internal/validate"
	"github.com/pable/hltv-harvester/internal/xerrors"
)

type fetchedOverview struct {
	entry model.DiscoveryEntry
	html  string
}

// RunOverview drains up to limit pending discovery_entry rows: fetches and
// archives each overview page, then parses, validates, and persists it.
// A successful persist flips discovery_entry.status to scraped as part of
// the same transaction (see store.UpsertOverview); a rejection flips it to
// failed here instead.
func RunOverview(ctx context.Context, d Deps, limit int) (Stats, error) {
	var stats Stats

	pending, err := d.Store.PendingOverview(limit)
	if err != nil {
		return stats, err
	}
	if len(pending) == 0 {
		return stats, nil
	}

	var fetched []fetchedOverview
	for _, entry := range pending {
		matchID := entry.MatchID
		html, err := d.Transport.Fetch(ctx, entry.URL)
		if err != nil {
			stats.FetchErrors++
			if isBatchFatal(err) {
				d.Log.Warn().Err(err).Int64("match_id", matchID).Msg("discarding overview batch")
				return stats, nil
			}
			stats.Failed++
			quarantineAndFail(d, "match_overview", &matchID, nil, entry, err, func() error {
				return d.Store.MarkDiscoveryStatus(matchID, model.DiscoveryFailed, d.Now())
			})
			continue
		}
		stats.Fetched++

		path := d.Archive.MatchPagePath(entry.MatchID, archive.PageOverview, 0)
		if err := d.Archive.Write(path, []byte(html)); err != nil {
			return stats, err
		}
		fetched = append(fetched, fetchedOverview{entry: entry, html: html})
	}

	for _, f := range fetched {
		matchID := f.entry.MatchID
		fail := func(cause error) {
			stats.Failed++
			quarantineAndFail(d, "match_overview", &matchID, nil, f.entry, cause, func() error {
				return d.Store.MarkDiscoveryStatus(matchID, model.DiscoveryFailed, d.Now())
			})
		}

		ov, err := parse.ParseMatchOverview(f.html, matchID)
		if err != nil {
			fail(&xerrors.ParseError{Stage: "overview", Context: f.entry.URL, Cause: err})
			continue
		}

		if rejectErr := ValidateOverview(ov); rejectErr != nil {
			fail(rejectErr)
			continue
		}

		if err := d.Store.UpsertOverview(ov, d.Now()); err != nil {
			fail(&xerrors.PersistError{Operation: "upsert overview", Cause: err})
			continue
		}
		stats.Parsed++
	}

	return stats, nil
}

// ValidateOverview runs the match and per-map checks that together gate
// one overview page; the first hard reject short-circuits the rest. It is
// exported so the host-local reprocessing path can apply the identical
// gate when re-validating an archived page from disk.
func ValidateOverview(ov model.MatchOverview) error {
	if _, err := validate.ValidateMatch(ov.Match); err != nil {
		return err
	}
	for _, m := range ov.Maps {
		if _, err := validate.ValidateMap(m); err != nil {
			return err
		}
	}
	return nil
}
