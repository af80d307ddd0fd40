package store

import (
	"fmt"
	"time"
)

// RepoEntry is one known repository and the summary it last reported.
type RepoEntry struct {
	Root           string
	Branch         string
	ConflictCount  int
	StagedCount    int
	UnstagedCount  int
	UntrackedCount int
	LastOpened     time.Time
}

// TouchRepo records a repository as opened and stores its latest summary.
func (s *Store) TouchRepo(entry *RepoEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO repos (root, branch, conflict_count, staged_count, unstaged_count, untracked_count, last_opened)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(root) DO UPDATE SET
			branch = excluded.branch,
			conflict_count = excluded.conflict_count,
			staged_count = excluded.staged_count,
			unstaged_count = excluded.unstaged_count,
			untracked_count = excluded.untracked_count,
			last_opened = CURRENT_TIMESTAMP`,
		entry.Root, entry.Branch, entry.ConflictCount, entry.StagedCount,
		entry.UnstagedCount, entry.UntrackedCount,
	)
	if err != nil {
		return fmt.Errorf("failed to record repository: %w", err)
	}
	return nil
}

// ListRepos returns known repositories, most recently opened first.
func (s *Store) ListRepos() ([]*RepoEntry, error) {
	rows, err := s.db.Query(`
		SELECT root, branch, conflict_count, staged_count, unstaged_count, untracked_count, last_opened
		FROM repos ORDER BY last_opened DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	defer rows.Close()

	var entries []*RepoEntry
	for rows.Next() {
		var e RepoEntry
		var opened string
		if err := rows.Scan(&e.Root, &e.Branch, &e.ConflictCount, &e.StagedCount,
			&e.UnstagedCount, &e.UntrackedCount, &opened); err != nil {
			return nil, fmt.Errorf("failed to scan repository row: %w", err)
		}
		e.LastOpened = parseTimestamp(opened)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// ForgetRepo removes a repository and its cached activity.
func (s *Store) ForgetRepo(root string) error {
	if _, err := s.db.Exec("DELETE FROM activity_cache WHERE root = ?", root); err != nil {
		return fmt.Errorf("failed to drop activity cache: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM repos WHERE root = ?", root); err != nil {
		return fmt.Errorf("failed to forget repository: %w", err)
	}
	return nil
}
