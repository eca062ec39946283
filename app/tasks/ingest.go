package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/rss-posts/app/cfg"
	"github.com/lysyi3m/rss-posts/app/database"
	"github.com/lysyi3m/rss-posts/app/feed"
	"github.com/lysyi3m/rss-posts/app/manifest"
	"github.com/lysyi3m/rss-posts/app/metrics"
)

// ErrStorage marks failures that abort a run: the posts directory, a post
// file or the manifest could not be written.
var ErrStorage = errors.New("storage failure")

type FeedResult struct {
	Name   string
	URL    string
	Title  string
	Status database.FetchStatus
	Found  int // entries left after the cap and filters
	Added  int
	Err    error
}

type Report struct {
	RunID string
	Added int
	Total int
	Feeds []FeedResult
}

func (r *Report) FailedFeeds() int {
	failed := 0
	for _, f := range r.Feeds {
		if f.Status == database.FetchStatusFailed {
			failed++
		}
	}
	return failed
}

// Ingester runs one pass: fetch every feed, render unseen entries to post
// files and record them in the manifest.
type Ingester struct {
	config           *cfg.Cfg
	configCache      *feed.ConfigCache
	fetcher          FeedFetcher
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
	renderer         *feed.Renderer
	store            *manifest.Store
	metrics          *metrics.Metrics

	feedRepo database.FeedRepository
	runRepo  database.RunRepository

	now func() time.Time
}

func NewIngester(config *cfg.Cfg, configCache *feed.ConfigCache, fetcher FeedFetcher, filterer *feed.Filterer,
	contentExtractor *feed.ContentExtractor, renderer *feed.Renderer, store *manifest.Store, m *metrics.Metrics) *Ingester {
	return &Ingester{
		config:           config,
		configCache:      configCache,
		fetcher:          fetcher,
		filterer:         filterer,
		contentExtractor: contentExtractor,
		renderer:         renderer,
		store:            store,
		metrics:          m,
		now:              time.Now,
	}
}

// WithHistory enables the fetch history. Either repository may be nil.
func (i *Ingester) WithHistory(feedRepo database.FeedRepository, runRepo database.RunRepository) *Ingester {
	i.feedRepo = feedRepo
	i.runRepo = runRepo
	return i
}

func (i *Ingester) Run(ctx context.Context) (*Report, error) {
	startedAt := i.now()
	report := &Report{RunID: uuid.NewString()}

	if err := os.MkdirAll(i.config.PostsDir, 0o755); err != nil {
		return report, fmt.Errorf("%w: failed to create posts directory: %w", ErrStorage, err)
	}

	m := i.store.Load()
	known := manifest.KnownIdentities(m)
	report.Total = len(m.Posts)

	feedConfigs := i.resolveFeeds()
	if len(feedConfigs) == 0 {
		slog.Info("No feeds configured, nothing to do")
		return report, nil
	}

	fetchTasks := make([]*FetchFeedTask, len(feedConfigs))
	poolTasks := make([]TaskInterface, len(feedConfigs))
	for n, feedConfig := range feedConfigs {
		fetchTasks[n] = NewFetchFeedTask(feedConfig, i.fetcher, i.filterer, i.contentExtractor, known)
		poolTasks[n] = fetchTasks[n]
	}

	slog.Info("Fetching feeds", "count", len(fetchTasks), "workers", i.config.WorkerCount)
	fetchErrs := NewPool(i.config.WorkerCount).Run(ctx, poolTasks)

	writer := newPostWriter(i.config.PostsDir, i.config.FilenameCollision)

	var writeErr error
	for n, task := range fetchTasks {
		result := FeedResult{
			Name:  task.FeedConfig.Name,
			URL:   task.FeedConfig.URL,
			Title: task.Title,
			Found: len(task.Entries),
			Err:   fetchErrs[n],
		}

		switch {
		case result.Err != nil:
			result.Status = database.FetchStatusFailed
		case len(task.Entries) == 0:
			result.Status = database.FetchStatusEmpty
			slog.Warn("No entries found", "feed", result.Name)
		default:
			result.Status = database.FetchStatusOK
			result.Added, writeErr = i.appendEntries(m, known, writer, task.Entries)
			report.Added += result.Added
		}

		i.recordFetch(result, task.GetDuration())
		report.Feeds = append(report.Feeds, result)

		if writeErr != nil {
			break
		}
	}

	report.Total = len(m.Posts)

	// The manifest is saved even after a write failure so it matches the
	// post files already on disk.
	if err := i.store.Save(m); err != nil {
		writeErr = errors.Join(writeErr, fmt.Errorf("%w: %w", ErrStorage, err))
	}

	i.finish(report, startedAt, writeErr)

	return report, writeErr
}

// resolveFeeds prefers explicit URLs, then the feeds directory, then the
// built-in list.
func (i *Ingester) resolveFeeds() []*feed.Config {
	defaults := feed.ConfigSettings{
		Enabled:  true,
		MaxItems: i.config.ItemsPerFeed,
		Timeout:  i.config.Timeout,
	}

	urls := i.config.Feeds
	if len(urls) == 0 && i.configCache != nil && i.configCache.GetConfigCount() > 0 {
		return i.configCache.GetEnabledConfigs()
	}
	if len(urls) == 0 {
		urls = cfg.FallbackFeeds
	}

	feedConfigs := make([]*feed.Config, 0, len(urls))
	for _, url := range urls {
		feedConfigs = append(feedConfigs, feed.NewURLConfig(url, defaults))
	}
	return feedConfigs
}

func (i *Ingester) appendEntries(m *manifest.Manifest, known map[string]struct{}, writer *postWriter, entries []feed.Entry) (int, error) {
	added := 0

	for _, entry := range entries {
		id := feed.Identity(entry)
		if _, ok := known[id]; ok {
			continue
		}

		title := feed.Title(entry)
		publishedAt := feed.PublishTime(entry, i.now())
		dateISO := feed.FormatISO(publishedAt)
		content := feed.SelectContent(entry)

		page := i.renderer.Run(feed.Document{
			Title:   title,
			DateISO: dateISO,
			Content: content,
			Source:  entry.Link,
		})

		filename, err := writer.write(publishedAt, title, page)
		if err != nil {
			return added, fmt.Errorf("%w: %w", ErrStorage, err)
		}

		m.Append(manifest.Post{
			ID:      id,
			Title:   title,
			Slug:    filename,
			Path:    writer.relativePath(filename),
			DateISO: dateISO,
			Source:  entry.Link,
			Summary: feed.Summarize(content, i.config.SummaryLength),
		})
		known[id] = struct{}{}
		added++

		slog.Debug("Post written", "file", filename, "id", id)
	}

	return added, nil
}

func (i *Ingester) recordFetch(result FeedResult, duration time.Duration) {
	if i.metrics != nil {
		i.metrics.ObserveFetch(result.Name, string(result.Status), duration, result.Found)
	}

	if i.feedRepo == nil {
		return
	}

	record := database.FetchRecord{
		Name:       result.Name,
		FeedURL:    result.URL,
		Title:      result.Title,
		Status:     result.Status,
		ItemsFound: result.Found,
		ItemsAdded: result.Added,
		FetchedAt:  i.now(),
	}
	if result.Err != nil {
		record.Error = result.Err.Error()
	}

	if err := i.feedRepo.RecordFetch(record); err != nil {
		slog.Warn("Failed to record feed fetch", "feed", result.Name, "error", err)
	}
}

func (i *Ingester) finish(report *Report, startedAt time.Time, runErr error) {
	finishedAt := i.now()

	if i.metrics != nil {
		i.metrics.ObserveRun(report.Added, report.Total, finishedAt.Sub(startedAt))
		if i.config.MetricsFile != "" {
			if err := i.metrics.WriteTextfile(i.config.MetricsFile); err != nil {
				slog.Warn("Failed to export metrics", "path", i.config.MetricsFile, "error", err)
			}
		}
	}

	if i.runRepo != nil {
		run := database.Run{
			ID:          report.RunID,
			StartedAt:   startedAt,
			FinishedAt:  finishedAt,
			FeedsTotal:  len(report.Feeds),
			FeedsFailed: report.FailedFeeds(),
			PostsAdded:  report.Added,
			PostsTotal:  report.Total,
		}
		if runErr != nil {
			run.Error = runErr.Error()
		}

		if err := i.runRepo.RecordRun(run); err != nil {
			slog.Warn("Failed to record run", "id", report.RunID, "error", err)
		}
	}

	slog.Info("Run completed",
		"id", report.RunID,
		"feeds", len(report.Feeds),
		"failed", report.FailedFeeds(),
		"added", report.Added,
		"total", report.Total,
		"duration", finishedAt.Sub(startedAt))
}

// postWriter writes rendered posts into the posts directory and applies the
// filename collision policy.
type postWriter struct {
	dir     string
	policy  string
	written map[string]struct{}
}

func newPostWriter(dir, policy string) *postWriter {
	return &postWriter{
		dir:     dir,
		policy:  policy,
		written: make(map[string]struct{}),
	}
}

func (w *postWriter) write(publishedAt time.Time, title, page string) (string, error) {
	filename := w.filename(publishedAt, feed.Slugify(title))

	if err := os.WriteFile(filepath.Join(w.dir, filename), []byte(page), 0o644); err != nil {
		return "", fmt.Errorf("failed to write post %s: %w", filename, err)
	}

	w.written[filename] = struct{}{}
	return filename, nil
}

func (w *postWriter) filename(publishedAt time.Time, slug string) string {
	filename := feed.FilenameWithSlug(publishedAt, slug)
	if w.policy != cfg.CollisionSuffix {
		return filename
	}

	for n := 2; w.taken(filename); n++ {
		filename = feed.FilenameWithSlug(publishedAt, slug+"-"+strconv.Itoa(n))
	}
	return filename
}

func (w *postWriter) taken(filename string) bool {
	if _, ok := w.written[filename]; ok {
		return true
	}
	_, err := os.Stat(filepath.Join(w.dir, filename))
	return err == nil
}

// relativePath is the site-relative location recorded in the manifest,
// e.g. posts/2024-01-02-hello-world.html.
func (w *postWriter) relativePath(filename string) string {
	return path.Join(filepath.Base(filepath.Clean(w.dir)), filename)
}
