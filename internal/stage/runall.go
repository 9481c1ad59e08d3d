package stage

import (
	"context"

	"github.com/pable/hltv-harvester/internal/config"
)

// AllStats bundles the four orchestrators' counters from one RunAll pass.
type AllStats struct {
	Discovery   Stats
	Overview    Stats
	MapStats    Stats
	PerfEconomy Stats
	Rounds      int
}

// RunAll repeats the four stages in order — discovery, overview, map
// stats, performance+economy — until a full round makes no progress
// (every stage reports zero fetched and zero parsed), so one invocation
// walks a batch all the way from discovery to fully persisted data
// without the caller having to loop the four commands by hand.
func RunAll(ctx context.Context, d Deps, cfg *config.Config) (AllStats, error) {
	var total AllStats

	for {
		disc, err := RunDiscovery(ctx, d, cfg.Pagination)
		if err != nil {
			return total, err
		}
		ov, err := RunOverview(ctx, d, cfg.Batch.OverviewBatchSize)
		if err != nil {
			return total, err
		}
		ms, err := RunMapStats(ctx, d, cfg.Batch.MapStatsBatchSize)
		if err != nil {
			return total, err
		}
		pe, err := RunPerfEconomy(ctx, d, cfg.Batch.PerfEconomyBatchSize)
		if err != nil {
			return total, err
		}

		total.Discovery = addStats(total.Discovery, disc)
		total.Overview = addStats(total.Overview, ov)
		total.MapStats = addStats(total.MapStats, ms)
		total.PerfEconomy = addStats(total.PerfEconomy, pe)
		total.Rounds++

		if !madeProgress(disc) && !madeProgress(ov) && !madeProgress(ms) && !madeProgress(pe) {
			return total, nil
		}
	}
}

func madeProgress(s Stats) bool {
	return s.Fetched > 0 || s.Parsed > 0
}

func addStats(a, b Stats) Stats {
	return Stats{
		Fetched:     a.Fetched + b.Fetched,
		Parsed:      a.Parsed + b.Parsed,
		Failed:      a.Failed + b.Failed,
		FetchErrors: a.FetchErrors + b.FetchErrors,
	}
}
