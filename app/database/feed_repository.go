package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ FeedRepository = (*SQLFeedRepository)(nil)

// SQLFeedRepository keeps the per-feed fetch history.
type SQLFeedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) *SQLFeedRepository {
	return &SQLFeedRepository{db: db}
}

const feedColumns = `name, feed_url, title, last_status, last_error, items_found, items_added,
	total_added, last_fetched_at, last_success_at, created_at, updated_at`

// RecordFetch upserts the outcome of one fetch. The title and the success
// timestamp are only replaced when the fetch did not fail.
func (r *SQLFeedRepository) RecordFetch(record FetchRecord) error {
	fetchedAt := record.FetchedAt.UTC()
	if record.FetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	var lastSuccess *time.Time
	if record.Status != FetchStatusFailed {
		lastSuccess = &fetchedAt
	}

	_, err := r.db.Exec(`
		INSERT INTO feeds (
			name, feed_url, title, last_status, last_error, items_found, items_added,
			total_added, last_fetched_at, last_success_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			feed_url = excluded.feed_url,
			title = CASE WHEN excluded.title != '' THEN excluded.title ELSE feeds.title END,
			last_status = excluded.last_status,
			last_error = excluded.last_error,
			items_found = excluded.items_found,
			items_added = excluded.items_added,
			total_added = feeds.total_added + excluded.items_added,
			last_fetched_at = excluded.last_fetched_at,
			last_success_at = COALESCE(excluded.last_success_at, feeds.last_success_at),
			updated_at = excluded.updated_at
	`, record.Name, record.FeedURL, record.Title, string(record.Status), record.Error,
		record.ItemsFound, record.ItemsAdded, record.ItemsAdded,
		fetchedAt, lastSuccess, fetchedAt, fetchedAt)

	if err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}

	return nil
}

func (r *SQLFeedRepository) GetFeed(feedName string) (*Feed, error) {
	row := r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE name = ?`, feedName)

	feed, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return feed, nil
}

// GetFeeds returns every known feed ordered by name.
func (r *SQLFeedRepository) GetFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`SELECT ` + feedColumns + ` FROM feeds ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *SQLFeedRepository) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFeed(s scanner) (*Feed, error) {
	var feed Feed
	var status string

	err := s.Scan(
		&feed.Name, &feed.FeedURL, &feed.Title, &status, &feed.LastError,
		&feed.ItemsFound, &feed.ItemsAdded, &feed.TotalAdded,
		&feed.LastFetchedAt, &feed.LastSuccessAt, &feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	feed.LastStatus = FetchStatus(status)
	return &feed, nil
}
