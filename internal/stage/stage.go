// Package stage implements the four orchestrators that drive one batch of
// work through fetch, archive, parse, validate, and persist: discovery,
// match overview, map stats, and performance+economy. Every orchestrator
// shares the same two-phase shape (fetch-and-archive, then parse-validate-
// persist) and the same failure split: a transport failure or a served
// challenge discards the whole in-flight batch and leaves it pending, while
// a missing page or a parse/validation/persist failure is scoped to the one
// item that produced it.
package stage

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pable/hltv-harvester/internal/archive"
	"github.com/pable/hltv-harvester/internal/store"
	"github.com/pable/hltv-harvester/internal/validate"
	"github.com/pable/hltv-harvester/internal/xerrors"
)

// Stats are the counters returned by every Run* orchestrator.
type Stats struct {
	Fetched     int
	Parsed      int
	Failed      int
	FetchErrors int
}

// Fetcher is the subset of *transport.Transport every orchestrator needs.
// Narrowing to an interface here lets orchestrator tests substitute a
// scripted fetcher instead of driving a real browser.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Deps bundles the collaborators every orchestrator needs. Now is injected
// so tests can pin timestamps instead of reading the wall clock.
type Deps struct {
	Transport Fetcher
	Store     *store.Store
	Archive   *archive.Archive
	Log       *zerolog.Logger
	Now       func() time.Time
}

// quarantineAndFail logs a record rejection, writes the quarantine entry
// (best effort — a quarantine write failure is logged, not escalated, so
// one bad audit write can't stall the pipeline), and marks the item
// failed via mark.
func quarantineAndFail(d Deps, entityType string, matchID *int64, mapNumber *int, input any, cause error, mark func() error) {
	d.Log.Warn().Err(cause).Str("entity", entityType).Msg("rejecting record")

	q := validate.BuildQuarantineEntry(entityType, matchID, mapNumber, input, cause)
	if err := d.Store.InsertQuarantine(q, d.Now()); err != nil {
		d.Log.Error().Err(err).Msg("failed to write quarantine entry")
	}
	if err := mark(); err != nil {
		d.Log.Error().Err(err).Msg("failed to mark item failed")
	}
}

// isBatchFatal reports whether err should discard the whole in-flight
// fetch batch rather than just the one item that produced it.
func isBatchFatal(err error) bool {
	return xerrors.IsTransportFailed(err) || xerrors.IsChallengeServed(err)
}
