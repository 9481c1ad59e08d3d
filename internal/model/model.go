// Package model defines the typed records produced by the parsers and
// persisted by the store: matches, maps, vetoes, rosters, per-map player
// stats, round outcomes and economy, kill matrices, and the discovery /
// quarantine bookkeeping tables.
package model

import "time"

// BestOf is the format of a series: 1, 3, or 5 maps.
type BestOf int

const (
	BestOf1 BestOf = 1
	BestOf3 BestOf = 3
	BestOf5 BestOf = 5
)

// Side is a CT/T round side.
type Side string

const (
	SideCT Side = "CT"
	SideT  Side = "T"
)

// VetoAction is a step in the map-veto sequence.
type VetoAction string

const (
	VetoRemoved  VetoAction = "removed"
	VetoPicked   VetoAction = "picked"
	VetoLeftOver VetoAction = "left_over"
)

// WinType is how a round ended.
type WinType string

const (
	WinElimination WinType = "elimination"
	WinBombPlanted WinType = "bomb_planted"
	WinDefuse      WinType = "defuse"
	WinTime        WinType = "time"
)

// BuyType is a team's economic commitment for a round.
type BuyType string

const (
	BuyFullEco BuyType = "full_eco"
	BuySemiEco BuyType = "semi_eco"
	BuySemiBuy BuyType = "semi_buy"
	BuyFullBuy BuyType = "full_buy"
)

// MatrixType distinguishes the three 5x5 kill-matrix scopes.
type MatrixType string

const (
	MatrixAll       MatrixType = "all"
	MatrixFirstKill MatrixType = "first_kill"
	MatrixAWP       MatrixType = "awp"
)

// DiscoveryStatus is the lifecycle state of a discovery_entry row.
type DiscoveryStatus string

const (
	DiscoveryPending DiscoveryStatus = "pending"
	DiscoveryScraped DiscoveryStatus = "scraped"
	DiscoveryFailed  DiscoveryStatus = "failed"
)

// ForfeitMapName is the sentinel map name HLTV uses on a forfeited map holder.
const ForfeitMapName = "Default"

// TeamRef names a team inline: its HLTV id and display name, stored inline
// at the point of use rather than normalized into a separate teams table —
// the entity graph is a forest rooted at match.
type TeamRef struct {
	ID   int64
	Name string
}

// EventRef names an event inline, mirroring TeamRef.
type EventRef struct {
	ID   int64
	Name string
}

// Match is the root entity for one series.
type Match struct {
	MatchID    int64
	Team1      TeamRef
	Team2      TeamRef
	Event      EventRef
	BestOf     BestOf
	Team1Score *int // raw: round score for BO1, maps won for BO3/5; nil on forfeits
	Team2Score *int
	IsLAN      bool
	Date       time.Time // derived from the overview page's millisecond timestamp
	IsForfeit  bool
	SourceURL  string
	ScrapedAt  time.Time
	UpdatedAt  time.Time
}

// Map is one map within a match.
type Map struct {
	MatchID       int64
	MapNumber     int
	MapName       string
	MapStatsID    *int64 // nil if forfeit/unplayed
	Team1Rounds   int
	Team2Rounds   int
	Team1CTRounds int
	Team1TRounds  int
	Team2CTRounds int
	Team2TRounds  int
	IsUnplayed    bool
	IsForfeit     bool
	ScrapedAt     time.Time
	UpdatedAt     time.Time
}

// VetoStep is one of the exactly-seven map-veto steps.
type VetoStep struct {
	MatchID    int64
	StepNumber int // 1..7
	Action     VetoAction
	TeamName   *string // nil iff Action == VetoLeftOver
	MapName    string
}

// MatchPlayer is a roster entry for one of the ten starters.
type MatchPlayer struct {
	MatchID    int64
	PlayerID   int64
	PlayerName string
	TeamID     int64
	TeamNumber int // 1 or 2
}

// PlayerStat holds both map-stats-stage traditional stats and
// performance-stage rate stats for one player on one map. The two stages
// populate disjoint columns of the same row; see store's read-merge-write.
type PlayerStat struct {
	MatchID   int64
	MapNumber int
	PlayerID  int64

	// Populated by the map-stats stage.
	Kills         *int
	Deaths        *int
	Assists       *int
	FlashAssists  *int
	HSKills       *int
	KDDiff        *int
	ADR           *float64
	KAST          *float64
	FKDiff        *int
	Rating        *float64
	OpeningKills  *int
	OpeningDeaths *int
	MultiKills    *int
	ClutchWins    *int
	TradedDeaths  *int
	RoundSwing    *float64 // null on the older "2.0" rating schema

	// Populated by the performance+economy stage.
	KPR      *float64
	DPR      *float64
	MKRating *float64

	ScrapedAt time.Time
	UpdatedAt time.Time
}

// HasMapStatsColumns reports whether the map-stats-stage columns are present.
func (p PlayerStat) HasMapStatsColumns() bool {
	return p.Kills != nil
}

// HasPerformanceColumns reports whether the performance-stage columns are present.
func (p PlayerStat) HasPerformanceColumns() bool {
	return p.KPR != nil
}

// RoundOutcome is the winner and win condition for one round of one map.
type RoundOutcome struct {
	MatchID      int64
	MapNumber    int
	RoundNumber  int
	WinnerTeamID int64
	WinnerSide   Side
	WinType      WinType
}

// RoundEconomy is one team's equipment spend and buy classification for
// one round; it must reference an existing RoundOutcome for the same
// (match, map, round).
type RoundEconomy struct {
	MatchID        int64
	MapNumber      int
	RoundNumber    int
	TeamID         int64
	EquipmentValue int
	BuyType        BuyType
}

// KillMatrixEntry is one cell of one of the three 5x5 head-to-head grids.
type KillMatrixEntry struct {
	MatchID     int64
	MapNumber   int
	MatrixType  MatrixType
	RowPlayerID int64
	ColPlayerID int64
	RowKills    int
	ColKills    int
}

// DiscoveryEntry is a match discovered on a results listing, awaiting or
// having completed the overview stage.
type DiscoveryEntry struct {
	MatchID      int64
	URL          string
	OffsetPage   int
	DiscoveredAt time.Time
	ForfeitHint  bool
	Status       DiscoveryStatus
	UpdatedAt    time.Time
}

// DiscoveryPage marks a results-listing offset as fully processed, the
// resume pivot for the discovery stage.
type DiscoveryPage struct {
	Offset      int
	CompletedAt time.Time
}

// QuarantineEntry is a validation-rejected record kept for audit.
// ID is a UUID string so offline/concurrent reprocessing runs can write
// quarantine rows without a shared autoincrement sequence.
type QuarantineEntry struct {
	ID              string
	EntityType      string
	MatchID         *int64
	MapNumber       *int
	InputJSON       string
	ValidationError string
	CreatedAt       time.Time
}

// MatchOverview is the parser's output for one overview page: the match
// itself plus its maps, vetoes, and roster, all produced in one pass so
// the store can commit them in one transaction.
type MatchOverview struct {
	Match     Match
	Maps      []Map
	Vetoes    []VetoStep
	Players   []MatchPlayer
	IsForfeit bool
}

// MapStats is the parser's output for one map-stats page.
type MapStats struct {
	MapStatsID    int64
	MatchID       int64
	MapNumber     int
	PlayerStats   []PlayerStat
	RoundOutcomes []RoundOutcome
	Team1CTRounds int
	Team1TRounds  int
	Team2CTRounds int
	Team2TRounds  int
}

// PerformanceData is the parser's output for one performance page.
type PerformanceData struct {
	MapStatsID  int64
	PlayerRates map[int64]PlayerPerformanceRates // keyed by PlayerID
	KillMatrix  []KillMatrixEntry                // 75 entries for a fully played map
}

// PlayerPerformanceRates holds the three rate metrics the performance page
// adds on top of the map-stats-stage columns.
type PlayerPerformanceRates struct {
	KPR      float64
	DPR      float64
	MKRating float64
}

// EconomyData is the parser's output for one economy page.
type EconomyData struct {
	MapStatsID int64
	Rounds     []RoundEconomy
}

// ResultsEntry is one row of a parsed results-listing page.
type ResultsEntry struct {
	MatchID     int64
	URL         string
	ForfeitHint bool
	TimestampMs int64
}
