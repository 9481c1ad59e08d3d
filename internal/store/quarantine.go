package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/pable/hltv-harvester/internal/model"
)

// InsertQuarantine writes a best-effort quarantine entry. A UUID primary
// key lets concurrent or offline reprocessing runs write quarantine rows
// without needing a shared autoincrement sequence.
func (s *Store) InsertQuarantine(q model.QuarantineEntry, now time.Time) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO quarantine_entry(id, entity_type, match_id, map_number, input_json, validation_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.EntityType, q.MatchID, q.MapNumber, q.InputJSON, q.ValidationError, now.UTC().Format(time.RFC3339),
	)
	return err
}

// ListQuarantine returns quarantine entries, most recent first, optionally
// filtered by entity type (empty string means no filter).
func (s *Store) ListQuarantine(entityType string, limit int) ([]model.QuarantineEntry, error) {
	query := `SELECT id, entity_type, match_id, map_number, input_json, validation_error, created_at
		FROM quarantine_entry`
	args := []any{}
	if entityType != "" {
		query += ` WHERE entity_type = ?`
		args = append(args, entityType)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.QuarantineEntry
	for rows.Next() {
		var q model.QuarantineEntry
		var createdAt string
		if err := rows.Scan(&q.ID, &q.EntityType, &q.MatchID, &q.MapNumber, &q.InputJSON, &q.ValidationError, &createdAt); err != nil {
			return nil, err
		}
		q.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, q)
	}
	return out, rows.Err()
}
