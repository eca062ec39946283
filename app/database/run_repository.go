package database

import (
	"database/sql"
	"errors"
	"fmt"
)

var _ RunRepository = (*SQLRunRepository)(nil)

// SQLRunRepository stores one row per batch run.
type SQLRunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *SQLRunRepository {
	return &SQLRunRepository{db: db}
}

func (r *SQLRunRepository) RecordRun(run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	_, err := r.db.Exec(`
		INSERT INTO runs (id, started_at, finished_at, feeds_total, feeds_failed, posts_added, posts_total, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.FeedsTotal, run.FeedsFailed,
		run.PostsAdded, run.PostsTotal, run.Error)

	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// GetLastRun returns the most recently started run, or nil when none exist.
func (r *SQLRunRepository) GetLastRun() (*Run, error) {
	var run Run
	err := r.db.QueryRow(`
		SELECT id, started_at, finished_at, feeds_total, feeds_failed, posts_added, posts_total, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt, &run.FeedsTotal, &run.FeedsFailed,
		&run.PostsAdded, &run.PostsTotal, &run.Error,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	return &run, nil
}

func (r *SQLRunRepository) GetRunCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get run count: %w", err)
	}
	return count, nil
}
