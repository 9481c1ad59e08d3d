package store

import (
	"fmt"
	"time"

	"github.com/pable/hltv-harvester/internal/model"
)

// UpsertDiscoveryEntries inserts discovery_entry rows and the completion
// marker for the given offset in one transaction. The UPSERT's update set
// never touches status — re-discovery of an already-scraped or
// already-failed match must not clobber its status.
func (s *Store) UpsertDiscoveryEntries(entries []model.ResultsEntry, offset int, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO discovery_entry(match_id, url, offset_page, discovered_at, forfeit_hint, status, updated_at)
		VALUES (?, ?, ?, ?, ?, 'pending', ?)
		ON CONFLICT(match_id) DO UPDATE SET
			url = excluded.url,
			offset_page = excluded.offset_page,
			updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := now.UTC().Format(time.RFC3339)
	for _, e := range entries {
		if _, err := stmt.Exec(e.MatchID, e.URL, offset, ts, boolInt(e.ForfeitHint), ts); err != nil {
			return fmt.Errorf("upsert discovery_entry %d: %w", e.MatchID, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO discovery_page(offset, completed_at) VALUES (?, ?)
		 ON CONFLICT(offset) DO UPDATE SET completed_at = excluded.completed_at`,
		offset, ts,
	); err != nil {
		return fmt.Errorf("mark discovery_page %d: %w", offset, err)
	}

	return tx.Commit()
}

// IsOffsetProcessed reports whether a results-listing offset has already
// been recorded in discovery_page — the resume pivot for discovery.
func (s *Store) IsOffsetProcessed(offset int) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM discovery_page WHERE offset = ?`, offset).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkDiscoveryStatus sets a discovery_entry's status (scraped or failed).
func (s *Store) MarkDiscoveryStatus(matchID int64, status model.DiscoveryStatus, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE discovery_entry SET status = ?, updated_at = ? WHERE match_id = ?`,
		string(status), now.UTC().Format(time.RFC3339), matchID,
	)
	return err
}

// PendingOverview returns discovery_entry rows with status = pending,
// ordered by ascending match_id, limited to limit rows.
func (s *Store) PendingOverview(limit int) ([]model.DiscoveryEntry, error) {
	rows, err := s.db.Query(`
		SELECT match_id, url, offset_page, discovered_at, forfeit_hint, status, updated_at
		FROM discovery_entry
		WHERE status = 'pending'
		ORDER BY match_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DiscoveryEntry
	for rows.Next() {
		var e model.DiscoveryEntry
		var discoveredAt, updatedAt string
		var forfeitHint int
		var status string
		if err := rows.Scan(&e.MatchID, &e.URL, &e.OffsetPage, &discoveredAt, &forfeitHint, &status, &updatedAt); err != nil {
			return nil, err
		}
		e.DiscoveredAt, _ = time.Parse(time.RFC3339, discoveredAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		e.ForfeitHint = forfeitHint != 0
		e.Status = model.DiscoveryStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}
