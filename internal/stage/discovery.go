package stage

import (
	"context"
	"fmt"

	"github.com/pable/hltv-harvester/internal/config"
	"github.com/pable/hltv-harvester/internal/parse"
	"github.com/pable/hltv-harvester/internal/xerrors"
)

// RunDiscovery paginates the results listing from offset 0 up to
// cfg.Pagination.MaxOffset in steps of cfg.Pagination.ResultsPerPage,
// skipping offsets already recorded in discovery_page. A listing page
// that parses to zero entries is treated as a probable interstitial and
// aborts the whole run — unlike the other three stages, a single bad page
// here cannot be scoped to one item, because the item list comes from
// the page itself.
func RunDiscovery(ctx context.Context, d Deps, cfg config.PaginationConfig) (Stats, error) {
	var stats Stats

	for offset := 0; offset <= cfg.MaxOffset; offset += cfg.ResultsPerPage {
		processed, err := d.Store.IsOffsetProcessed(offset)
		if err != nil {
			return stats, fmt.Errorf("check offset %d: %w", offset, err)
		}
		if processed {
			continue
		}

		url := resultsURL(offset)
		html, err := d.Transport.Fetch(ctx, url)
		if err != nil {
			stats.FetchErrors++
			if isBatchFatal(err) {
				d.Log.Warn().Err(err).Int("offset", offset).Msg("discarding pagination batch, offset remains unprocessed")
				return stats, nil
			}
			return stats, fmt.Errorf("fetch results offset %d: %w", offset, err)
		}
		stats.Fetched++

		path := d.Archive.ResultsPath(offset)
		if err := d.Archive.Write(path, []byte(html)); err != nil {
			return stats, fmt.Errorf("archive results offset %d: %w", offset, err)
		}

		entries, err := parse.ParseResults(html)
		if err != nil {
			return stats, &xerrors.ParseError{Stage: "discovery", Context: fmt.Sprintf("offset %d", offset), Cause: err}
		}
		if len(entries) == 0 {
			return stats, fmt.Errorf("offset %d parsed to zero entries, probable interstitial: aborting pagination", offset)
		}

		if err := d.Store.UpsertDiscoveryEntries(entries, offset, d.Now()); err != nil {
			return stats, &xerrors.PersistError{Operation: "upsert discovery_entry", Cause: err}
		}
		stats.Parsed += len(entries)
	}

	return stats, nil
}
