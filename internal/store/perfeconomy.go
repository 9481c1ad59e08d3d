package store

import (
	"fmt"
	"time"

	"github.com/pable/hltv-harvester/internal/model"
)

// UpsertPerformance merges performance-stage rate columns into the
// already-written player_stat rows from the map-stats stage (read-merge-
// write: the UPSERT's SET clause only names KPR/DPR/mk_rating, so the
// map-stats columns on an existing row are left untouched) and writes the
// kill-matrix rows for the map.
func (s *Store) UpsertPerformance(mapStatsID int64, matchID int64, mapNumber int, perf model.PerformanceData, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := now.UTC().Format(time.RFC3339)

	rateStmt, err := tx.Prepare(`
		INSERT INTO player_stat(match_id, map_number, player_id, kpr, dpr, mk_rating, scraped_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id, map_number, player_id) DO UPDATE SET
			kpr = excluded.kpr, dpr = excluded.dpr, mk_rating = excluded.mk_rating,
			updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer rateStmt.Close()

	for playerID, rates := range perf.PlayerRates {
		if _, err := rateStmt.Exec(matchID, mapNumber, playerID, rates.KPR, rates.DPR, rates.MKRating, ts, ts); err != nil {
			return fmt.Errorf("upsert player_stat rates %d/%d/%d: %w", matchID, mapNumber, playerID, err)
		}
	}

	matrixStmt, err := tx.Prepare(`
		INSERT INTO kill_matrix_entry(match_id, map_number, matrix_type, row_player_id, col_player_id, row_kills, col_kills)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id, map_number, matrix_type, row_player_id, col_player_id) DO UPDATE SET
			row_kills = excluded.row_kills, col_kills = excluded.col_kills`)
	if err != nil {
		return err
	}
	defer matrixStmt.Close()

	for _, k := range perf.KillMatrix {
		if _, err := matrixStmt.Exec(matchID, mapNumber, string(k.MatrixType), k.RowPlayerID, k.ColPlayerID, k.RowKills, k.ColKills); err != nil {
			return fmt.Errorf("upsert kill_matrix_entry %d/%d: %w", matchID, mapNumber, err)
		}
	}

	return tx.Commit()
}

// KnownRoundNumbers returns the set of round_outcome round numbers already
// recorded for a map, used by the perf-economy stage to warn about economy
// rows it is about to discard before UpsertEconomy actually discards them.
func (s *Store) KnownRoundNumbers(matchID int64, mapNumber int) (map[int]bool, error) {
	rows, err := s.db.Query(`SELECT round_number FROM round_outcome WHERE match_id = ? AND map_number = ?`, matchID, mapNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[int]bool)
	for rows.Next() {
		var rn int
		if err := rows.Scan(&rn); err != nil {
			return nil, err
		}
		known[rn] = true
	}
	return known, rows.Err()
}

// UpsertEconomy writes round_economy rows, discarding any row whose
// (match_id, map_number, round_number) has no corresponding round_outcome —
// the referential-safety filter the performance+economy stage requires
// because economy pages are fetched and parsed independently of map-stats.
// It returns the number of rows discarded so the caller can log a warning.
func (s *Store) UpsertEconomy(matchID int64, mapNumber int, econ model.EconomyData, now time.Time) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	known := make(map[int]bool)
	rows, err := tx.Query(`SELECT round_number FROM round_outcome WHERE match_id = ? AND map_number = ?`, matchID, mapNumber)
	if err != nil {
		return 0, err
	}
	for rows.Next() {
		var rn int
		if err := rows.Scan(&rn); err != nil {
			rows.Close()
			return 0, err
		}
		known[rn] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	stmt, err := tx.Prepare(`
		INSERT INTO round_economy(match_id, map_number, round_number, team_id, equipment_value, buy_type)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id, map_number, round_number, team_id) DO UPDATE SET
			equipment_value = excluded.equipment_value, buy_type = excluded.buy_type`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	discarded := 0
	for _, r := range econ.Rounds {
		if !known[r.RoundNumber] {
			discarded++
			continue
		}
		if _, err := stmt.Exec(r.MatchID, r.MapNumber, r.RoundNumber, r.TeamID, r.EquipmentValue, string(r.BuyType)); err != nil {
			return 0, fmt.Errorf("upsert round_economy %d/%d/%d: %w", r.MatchID, r.MapNumber, r.RoundNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return discarded, nil
}

// PendingPerfEconomy returns maps whose map-stats player_stat rows exist
// but none of whose rows has its performance columns (kpr) populated yet.
func (s *Store) PendingPerfEconomy(limit int) ([]model.Map, error) {
	rows, err := s.db.Query(`
		SELECT m.match_id, m.map_number, m.map_name, m.mapstatsid, m.team1_rounds, m.team2_rounds,
			m.team1_ct_rounds, m.team1_t_rounds, m.team2_ct_rounds, m.team2_t_rounds,
			m.is_unplayed, m.is_forfeit, m.scraped_at, m.updated_at
		FROM map m
		WHERE m.mapstatsid IS NOT NULL
		  AND EXISTS (SELECT 1 FROM player_stat ps WHERE ps.match_id = m.match_id AND ps.map_number = m.map_number)
		  AND NOT EXISTS (
			SELECT 1 FROM player_stat ps
			WHERE ps.match_id = m.match_id AND ps.map_number = m.map_number AND ps.kpr IS NOT NULL
		  )
		ORDER BY m.match_id ASC, m.map_number ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Map
	for rows.Next() {
		var mp model.Map
		var scrapedAt, updatedAt string
		var isUnplayed, isForfeit int
		if err := rows.Scan(&mp.MatchID, &mp.MapNumber, &mp.MapName, &mp.MapStatsID, &mp.Team1Rounds, &mp.Team2Rounds,
			&mp.Team1CTRounds, &mp.Team1TRounds, &mp.Team2CTRounds, &mp.Team2TRounds,
			&isUnplayed, &isForfeit, &scrapedAt, &updatedAt); err != nil {
			return nil, err
		}
		mp.IsUnplayed = isUnplayed != 0
		mp.IsForfeit = isForfeit != 0
		mp.ScrapedAt, _ = time.Parse(time.RFC3339, scrapedAt)
		mp.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, mp)
	}
	return out, rows.Err()
}
