package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "history", "rss-posts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestNewConnectionRunsMigrations(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"feeds", "runs"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(2), version)
}

func TestNewConnectionInvalidPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewConnection(filepath.Join(blocker, "db.sqlite"))
	require.Error(t, err)
}

func TestFeedRepositoryRecordFetch(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	first := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordFetch(FetchRecord{
		Name: "example", FeedURL: "https://example.com/feed.xml", Title: "Example",
		Status: FetchStatusOK, ItemsFound: 5, ItemsAdded: 3, FetchedAt: first,
	}))

	second := first.Add(time.Hour)
	require.NoError(t, repo.RecordFetch(FetchRecord{
		Name: "example", FeedURL: "https://example.com/feed.xml",
		Status: FetchStatusFailed, Error: "timeout", FetchedAt: second,
	}))

	feed, err := repo.GetFeed("example")
	require.NoError(t, err)
	require.NotNil(t, feed)

	require.Equal(t, "Example", feed.Title)
	require.Equal(t, FetchStatusFailed, feed.LastStatus)
	require.Equal(t, "timeout", feed.LastError)
	require.Equal(t, 0, feed.ItemsAdded)
	require.Equal(t, 3, feed.TotalAdded)
	require.NotNil(t, feed.LastFetchedAt)
	require.True(t, feed.LastFetchedAt.Equal(second))
	require.NotNil(t, feed.LastSuccessAt)
	require.True(t, feed.LastSuccessAt.Equal(first))
	require.True(t, feed.CreatedAt.Equal(first))

	count, err := repo.GetFeedCount()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestFeedRepositoryGetFeeds(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	missing, err := repo.GetFeed("nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	for _, name := range []string{"zeta", "alpha"} {
		require.NoError(t, repo.RecordFetch(FetchRecord{Name: name, FeedURL: "https://example.com/" + name, Status: FetchStatusEmpty}))
	}

	feeds, err := repo.GetFeeds()
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	require.Equal(t, "alpha", feeds[0].Name)
	require.Equal(t, "zeta", feeds[1].Name)
	require.Equal(t, FetchStatusEmpty, feeds[0].LastStatus)
	require.NotNil(t, feeds[0].LastSuccessAt)
}

func TestRunRepository(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))

	last, err := repo.GetLastRun()
	require.NoError(t, err)
	require.Nil(t, last)

	require.Error(t, repo.RecordRun(Run{}))

	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordRun(Run{ID: "run-1", StartedAt: start, FinishedAt: start.Add(time.Second), PostsAdded: 1}))
	require.NoError(t, repo.RecordRun(Run{
		ID: "run-2", StartedAt: start.Add(time.Hour), FinishedAt: start.Add(time.Hour + time.Second),
		FeedsTotal: 2, FeedsFailed: 1, PostsAdded: 4, PostsTotal: 5,
	}))

	last, err = repo.GetLastRun()
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, "run-2", last.ID)
	require.Equal(t, 1, last.FeedsFailed)
	require.Equal(t, 5, last.PostsTotal)

	count, err := repo.GetRunCount()
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
