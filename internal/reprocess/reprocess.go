// Package reprocess walks already-archived HTML back through parsing,
// validation, and persistence without touching transport at all. It exists
// for two situations a live run can't recover from on its own: a parser
// was fixed after a batch was already fetched, or a page was quarantined
// for a reason that's since been addressed (a schema backfill, a relaxed
// check). Work fans out over a small pool of goroutines the same way the
// teacher's Valve replay-server probe does — a buffered job channel plus
// a sync.WaitGroup, no third-party pool library — except bounded to a
// fixed worker count instead of one goroutine per unit of work, since here
// the unit of work is disk and SQLite I/O rather than a one-shot network
// probe racing to a single winner.
package reprocess

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pable/hltv-harvester/internal/archive"
	"github.com/pable/hltv-harvester/internal/parse"
	"github.com/pable/hltv-harvester/internal/stage"
	"github.com/pable/hltv-harvester/internal/store"
	"github.com/pable/hltv-harvester/internal/validate"
	"github.com/pable/hltv-harvester/internal/xerrors"
)

// Stage selects which archived page type to replay.
type Stage string

const (
	StageOverview    Stage = "overview"
	StageMapStats    Stage = "map-stats"
	StagePerfEconomy Stage = "perf-economy"
)

// Stats tallies one reprocessing run.
type Stats struct {
	Scanned     int
	Reprocessed int
	Failed      int
}

// job is one unit of replay work: a match id plus the archived file(s) it
// needs to re-derive one record from.
type job struct {
	matchID     int64
	mapStatsID  int64
	path        string // overview, map-stats
	perfPath    string // perf-economy only
	economyPath string // perf-economy only
}

// Run walks ar for pages matching target, re-parses and re-validates each
// one, and persists it through st exactly as the live stage would — except
// a rejection here only logs and counts a failure; there is no
// discovery_entry or quarantine table row to flip since the record was
// already quarantined (or already persisted) by the run that first fetched
// it. workers bounds how many files are read and parsed concurrently; a
// value below 1 is treated as 1.
func Run(ar *archive.Archive, st *store.Store, log *zerolog.Logger, target Stage, workers int, now func() time.Time) (Stats, error) {
	if workers < 1 {
		workers = 1
	}

	jobs, err := discoverJobs(ar, target)
	if err != nil {
		return Stats{}, fmt.Errorf("discover archived pages: %w", err)
	}

	var stats Stats
	stats.Scanned = len(jobs)
	if len(jobs) == 0 {
		return stats, nil
	}

	jobCh := make(chan job, len(jobs))
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				err := processJob(ar, st, log, now, target, j)
				mu.Lock()
				if err != nil {
					stats.Failed++
					log.Warn().Err(err).Int64("match_id", j.matchID).Str("stage", string(target)).Msg("reprocess failed")
				} else {
					stats.Reprocessed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return stats, nil
}

// discoverJobs walks the archive once (single-threaded — it's a directory
// listing, not the I/O this pool is meant to parallelize) and assembles
// the job list for target.
func discoverJobs(ar *archive.Archive, target Stage) ([]job, error) {
	switch target {
	case StageOverview:
		return discoverOverviewJobs(ar)
	case StageMapStats:
		return discoverMapStatsJobs(ar)
	case StagePerfEconomy:
		return discoverPerfEconomyJobs(ar)
	default:
		return nil, fmt.Errorf("unknown stage %q", target)
	}
}

func discoverOverviewJobs(ar *archive.Archive) ([]job, error) {
	var jobs []job
	err := ar.Walk(func(matchID int64, path string) error {
		if filepath.Base(path) == "overview.html.gz" {
			jobs = append(jobs, job{matchID: matchID, path: path})
		}
		return nil
	})
	return jobs, err
}

func discoverMapStatsJobs(ar *archive.Archive) ([]job, error) {
	var jobs []job
	err := ar.Walk(func(matchID int64, path string) error {
		base := filepath.Base(path)
		if !strings.HasSuffix(base, "-map-stats.html.gz") {
			return nil
		}
		mapStatsID, ok := parseMapStatsID(base)
		if !ok {
			return nil
		}
		jobs = append(jobs, job{matchID: matchID, mapStatsID: mapStatsID, path: path})
		return nil
	})
	return jobs, err
}

// discoverPerfEconomyJobs pairs up the performance and economy pages for
// each mapstatsid; a map with only one of the two on disk is skipped (its
// pair never finished archiving) rather than reprocessed half-complete.
func discoverPerfEconomyJobs(ar *archive.Archive) ([]job, error) {
	pairs := make(map[string]*job)
	err := ar.Walk(func(matchID int64, path string) error {
		base := filepath.Base(path)
		var isPerf bool
		switch {
		case strings.HasSuffix(base, "-performance.html.gz"):
			isPerf = true
		case strings.HasSuffix(base, "-economy.html.gz"):
			isPerf = false
		default:
			return nil
		}
		mapStatsID, ok := parseMapStatsID(base)
		if !ok {
			return nil
		}
		key := fmt.Sprintf("%d:%d", matchID, mapStatsID)
		j, exists := pairs[key]
		if !exists {
			j = &job{matchID: matchID, mapStatsID: mapStatsID}
			pairs[key] = j
		}
		if isPerf {
			j.perfPath = path
		} else {
			j.economyPath = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var jobs []job
	for _, j := range pairs {
		if j.perfPath != "" && j.economyPath != "" {
			jobs = append(jobs, *j)
		}
	}
	return jobs, nil
}

// parseMapStatsID extracts the numeric id out of a "map-{id}-{page}.html.gz"
// archive filename.
func parseMapStatsID(base string) (int64, bool) {
	var id int64
	var rest string
	if n, err := fmt.Sscanf(base, "map-%d-%s", &id, &rest); err != nil || n != 2 {
		return 0, false
	}
	return id, true
}

func processJob(ar *archive.Archive, st *store.Store, log *zerolog.Logger, now func() time.Time, target Stage, j job) error {
	switch target {
	case StageOverview:
		return reprocessOverview(ar, st, now, j)
	case StageMapStats:
		return reprocessMapStats(ar, st, now, j)
	case StagePerfEconomy:
		return reprocessPerfEconomy(ar, st, log, now, j)
	default:
		return fmt.Errorf("unknown stage %q", target)
	}
}

func reprocessOverview(ar *archive.Archive, st *store.Store, now func() time.Time, j job) error {
	raw, err := ar.Read(j.path)
	if err != nil {
		return err
	}

	ov, err := parse.ParseMatchOverview(string(raw), j.matchID)
	if err != nil {
		return &xerrors.ParseError{Stage: "overview", Context: j.path, Cause: err}
	}
	if err := stage.ValidateOverview(ov); err != nil {
		return err
	}
	return st.UpsertOverview(ov, now())
}

func reprocessMapStats(ar *archive.Archive, st *store.Store, now func() time.Time, j job) error {
	mapNumber, err := st.MapNumberForStatsID(j.matchID, j.mapStatsID)
	if err != nil {
		return fmt.Errorf("map number for mapstatsid %d: %w", j.mapStatsID, err)
	}

	raw, err := ar.Read(j.path)
	if err != nil {
		return err
	}

	ms, err := parse.ParseMapStats(string(raw), j.mapStatsID, j.matchID, mapNumber)
	if err != nil {
		return &xerrors.ParseError{Stage: "map-stats", Context: j.path, Cause: err}
	}
	if err := stage.ValidateMapStats(ms); err != nil {
		return err
	}
	return st.UpsertMapStats(ms, now())
}

func reprocessPerfEconomy(ar *archive.Archive, st *store.Store, log *zerolog.Logger, now func() time.Time, j job) error {
	mapNumber, err := st.MapNumberForStatsID(j.matchID, j.mapStatsID)
	if err != nil {
		return fmt.Errorf("map number for mapstatsid %d: %w", j.mapStatsID, err)
	}

	perfRaw, err := ar.Read(j.perfPath)
	if err != nil {
		return err
	}
	econRaw, err := ar.Read(j.economyPath)
	if err != nil {
		return err
	}

	perf, err := parse.ParsePerformance(string(perfRaw), j.mapStatsID)
	if err != nil {
		return &xerrors.ParseError{Stage: "performance", Context: j.perfPath, Cause: err}
	}
	econ, err := parse.ParseEconomy(string(econRaw), j.mapStatsID, j.matchID, mapNumber)
	if err != nil {
		return &xerrors.ParseError{Stage: "economy", Context: j.economyPath, Cause: err}
	}
	if err := stage.ValidateEconomyRounds(econ); err != nil {
		return err
	}

	if err := st.UpsertPerformance(j.mapStatsID, j.matchID, mapNumber, perf, now()); err != nil {
		return err
	}

	known, err := st.KnownRoundNumbers(j.matchID, mapNumber)
	if err != nil {
		return err
	}
	for _, w := range validate.ValidateEconomyAgainstOutcomes(econ.Rounds, known) {
		log.Warn().Int64("match_id", j.matchID).Int("map_number", mapNumber).Msg(w)
	}

	discarded, err := st.UpsertEconomy(j.matchID, mapNumber, econ, now())
	if err != nil {
		return err
	}
	if discarded > 0 {
		log.Warn().Int64("match_id", j.matchID).Int("map_number", mapNumber).Int("discarded", discarded).
			Msg("economy rows discarded for missing round_outcome")
	}
	return nil
}
