package store

import (
	"fmt"
	"time"

	"github.com/pable/hltv-harvester/internal/model"
)

// UpsertMapStats commits one map-stats page's output: the map's regulation
// round breakdown, 10 player_stat rows (map-stats columns only — the UPSERT
// leaves any already-populated performance columns untouched), and the
// round_outcome rows. One transaction per map.
func (s *Store) UpsertMapStats(ms model.MapStats, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := now.UTC().Format(time.RFC3339)

	if _, err := tx.Exec(`
		UPDATE map SET
			team1_ct_rounds = ?, team1_t_rounds = ?, team2_ct_rounds = ?, team2_t_rounds = ?,
			updated_at = ?
		WHERE match_id = ? AND map_number = ?`,
		ms.Team1CTRounds, ms.Team1TRounds, ms.Team2CTRounds, ms.Team2TRounds,
		ts, ms.MatchID, ms.MapNumber,
	); err != nil {
		return fmt.Errorf("update map rounds %d/%d: %w", ms.MatchID, ms.MapNumber, err)
	}

	statStmt, err := tx.Prepare(`
		INSERT INTO player_stat(match_id, map_number, player_id, kills, deaths, assists, flash_assists,
			hs_kills, kd_diff, adr, kast, fk_diff, rating, opening_kills, opening_deaths, multi_kills,
			clutch_wins, traded_deaths, round_swing, scraped_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id, map_number, player_id) DO UPDATE SET
			kills = excluded.kills, deaths = excluded.deaths, assists = excluded.assists,
			flash_assists = excluded.flash_assists, hs_kills = excluded.hs_kills, kd_diff = excluded.kd_diff,
			adr = excluded.adr, kast = excluded.kast, fk_diff = excluded.fk_diff, rating = excluded.rating,
			opening_kills = excluded.opening_kills, opening_deaths = excluded.opening_deaths,
			multi_kills = excluded.multi_kills, clutch_wins = excluded.clutch_wins,
			traded_deaths = excluded.traded_deaths, round_swing = excluded.round_swing,
			updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer statStmt.Close()

	for _, p := range ms.PlayerStats {
		if _, err := statStmt.Exec(
			p.MatchID, p.MapNumber, p.PlayerID, p.Kills, p.Deaths, p.Assists, p.FlashAssists, p.HSKills,
			p.KDDiff, p.ADR, p.KAST, p.FKDiff, p.Rating, p.OpeningKills, p.OpeningDeaths, p.MultiKills,
			p.ClutchWins, p.TradedDeaths, p.RoundSwing, ts, ts,
		); err != nil {
			return fmt.Errorf("upsert player_stat %d/%d/%d: %w", p.MatchID, p.MapNumber, p.PlayerID, err)
		}
	}

	roundStmt, err := tx.Prepare(`
		INSERT INTO round_outcome(match_id, map_number, round_number, winner_team_id, winner_side, win_type)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id, map_number, round_number) DO UPDATE SET
			winner_team_id = excluded.winner_team_id, winner_side = excluded.winner_side,
			win_type = excluded.win_type`)
	if err != nil {
		return err
	}
	defer roundStmt.Close()

	for _, r := range ms.RoundOutcomes {
		if _, err := roundStmt.Exec(r.MatchID, r.MapNumber, r.RoundNumber, r.WinnerTeamID, string(r.WinnerSide), string(r.WinType)); err != nil {
			return fmt.Errorf("upsert round_outcome %d/%d/%d: %w", r.MatchID, r.MapNumber, r.RoundNumber, err)
		}
	}

	return tx.Commit()
}

// MapNumberForStatsID looks up which map a mapstatsid belongs to, used by
// the host-local reprocessing path: an archived map-stats/performance/
// economy page's filename carries the match id (its parent directory) and
// the mapstatsid, but not the map_number the parse/persist functions need.
func (s *Store) MapNumberForStatsID(matchID int64, mapStatsID int64) (int, error) {
	var mapNumber int
	err := s.db.QueryRow(`SELECT map_number FROM map WHERE match_id = ? AND mapstatsid = ?`, matchID, mapStatsID).Scan(&mapNumber)
	return mapNumber, err
}

// PendingMapStats returns maps with a non-null mapstatsid and no player_stat
// rows yet, ordered by (match_id, map_number) for deterministic batches.
func (s *Store) PendingMapStats(limit int) ([]model.Map, error) {
	rows, err := s.db.Query(`
		SELECT m.match_id, m.map_number, m.map_name, m.mapstatsid, m.team1_rounds, m.team2_rounds,
			m.team1_ct_rounds, m.team1_t_rounds, m.team2_ct_rounds, m.team2_t_rounds,
			m.is_unplayed, m.is_forfeit, m.scraped_at, m.updated_at
		FROM map m
		WHERE m.mapstatsid IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM player_stat ps WHERE ps.match_id = m.match_id AND ps.map_number = m.map_number)
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
