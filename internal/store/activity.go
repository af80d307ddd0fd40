package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SaveActivity persists a computed activity series as JSON, replacing any
// prior series for the same (root, days) pair.
func (s *Store) SaveActivity(root string, days, total int, seriesJSON []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO activity_cache (root, days, series, total, computed_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(root, days) DO UPDATE SET
			series = excluded.series,
			total = excluded.total,
			computed_at = CURRENT_TIMESTAMP`,
		root, days, seriesJSON, total,
	)
	if err != nil {
		return fmt.Errorf("failed to save activity series: %w", err)
	}
	return nil
}

// GetActivity returns the persisted series for (root, days), its total, and
// when it was computed. A missing entry yields nil with a zero time.
func (s *Store) GetActivity(root string, days int) ([]byte, int, time.Time, error) {
	var seriesJSON []byte
	var total int
	var computed string
	err := s.db.QueryRow(
		"SELECT series, total, computed_at FROM activity_cache WHERE root = ? AND days = ?",
		root, days,
	).Scan(&seriesJSON, &total, &computed)
	if err == sql.ErrNoRows {
		return nil, 0, time.Time{}, nil
	}
	if err != nil {
		return nil, 0, time.Time{}, fmt.Errorf("failed to read activity series: %w", err)
	}
	return seriesJSON, total, parseTimestamp(computed), nil
}
