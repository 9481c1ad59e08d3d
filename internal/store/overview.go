package store

import (
	"fmt"
	"time"

	"github.com/pable/hltv-harvester/internal/model"
)

// UpsertOverview commits an overview page's match, maps, vetoes, and roster
// in a single transaction, then flips the discovery_entry's status to
// scraped — all or nothing, so a crash mid-write can never leave a match
// row without its maps.
func (s *Store) UpsertOverview(ov model.MatchOverview, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := now.UTC().Format(time.RFC3339)
	m := ov.Match

	if _, err := tx.Exec(`
		INSERT INTO match(match_id, team1_id, team1_name, team2_id, team2_name, event_id, event_name,
			best_of, team1_score, team2_score, is_lan, match_date, is_forfeit, source_url, scraped_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			team1_id = excluded.team1_id, team1_name = excluded.team1_name,
			team2_id = excluded.team2_id, team2_name = excluded.team2_name,
			event_id = excluded.event_id, event_name = excluded.event_name,
			best_of = excluded.best_of,
			team1_score = excluded.team1_score, team2_score = excluded.team2_score,
			is_lan = excluded.is_lan, match_date = excluded.match_date,
			is_forfeit = excluded.is_forfeit, source_url = excluded.source_url,
			updated_at = excluded.updated_at`,
		m.MatchID, m.Team1.ID, m.Team1.Name, m.Team2.ID, m.Team2.Name, m.Event.ID, m.Event.Name,
		int(m.BestOf), m.Team1Score, m.Team2Score, boolInt(m.IsLAN), m.Date.UTC().Format(time.RFC3339),
		boolInt(m.IsForfeit), m.SourceURL, ts, ts,
	); err != nil {
		return fmt.Errorf("upsert match %d: %w", m.MatchID, err)
	}

	mapStmt, err := tx.Prepare(`
		INSERT INTO map(match_id, map_number, map_name, mapstatsid, team1_rounds, team2_rounds,
			team1_ct_rounds, team1_t_rounds, team2_ct_rounds, team2_t_rounds, is_unplayed, is_forfeit,
			scraped_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id, map_number) DO UPDATE SET
			map_name = excluded.map_name, mapstatsid = excluded.mapstatsid,
			is_unplayed = excluded.is_unplayed, is_forfeit = excluded.is_forfeit,
			updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer mapStmt.Close()

	for _, mp := range ov.Maps {
		if _, err := mapStmt.Exec(
			mp.MatchID, mp.MapNumber, mp.MapName, mp.MapStatsID, mp.Team1Rounds, mp.Team2Rounds,
			mp.Team1CTRounds, mp.Team1TRounds, mp.Team2CTRounds, mp.Team2TRounds,
			boolInt(mp.IsUnplayed), boolInt(mp.IsForfeit), ts, ts,
		); err != nil {
			return fmt.Errorf("upsert map %d/%d: %w", mp.MatchID, mp.MapNumber, err)
		}
	}

	vetoStmt, err := tx.Prepare(`
		INSERT INTO veto_step(match_id, step_number, action, team_name, map_name)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(match_id, step_number) DO UPDATE SET
			action = excluded.action, team_name = excluded.team_name, map_name = excluded.map_name`)
	if err != nil {
		return err
	}
	defer vetoStmt.Close()

	for _, v := range ov.Vetoes {
		if _, err := vetoStmt.Exec(v.MatchID, v.StepNumber, string(v.Action), v.TeamName, v.MapName); err != nil {
			return fmt.Errorf("upsert veto_step %d/%d: %w", v.MatchID, v.StepNumber, err)
		}
	}

	playerStmt, err := tx.Prepare(`
		INSERT INTO match_player(match_id, player_id, player_name, team_id, team_number)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(match_id, player_id) DO UPDATE SET
			player_name = excluded.player_name, team_id = excluded.team_id, team_number = excluded.team_number`)
	if err != nil {
		return err
	}
	defer playerStmt.Close()

	for _, p := range ov.Players {
		if _, err := playerStmt.Exec(p.MatchID, p.PlayerID, p.PlayerName, p.TeamID, p.TeamNumber); err != nil {
			return fmt.Errorf("upsert match_player %d/%d: %w", p.MatchID, p.PlayerID, err)
		}
	}

	if _, err := tx.Exec(
		`UPDATE discovery_entry SET status = 'scraped', updated_at = ? WHERE match_id = ?`,
		ts, m.MatchID,
	); err != nil {
		return fmt.Errorf("mark discovery_entry scraped %d: %w", m.MatchID, err)
	}

	return tx.Commit()
}
