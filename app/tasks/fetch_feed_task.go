package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-posts/app/feed"
)

// FetchFeedTask downloads one feed and prepares its entries for the append
// phase. It never touches the manifest; known is only read.
type FetchFeedTask struct {
	Task
	FeedConfig       *feed.Config
	fetcher          FeedFetcher
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
	known            map[string]struct{}

	Title   string
	Entries []feed.Entry
}

func NewFetchFeedTask(feedConfig *feed.Config, fetcher FeedFetcher, filterer *feed.Filterer, contentExtractor *feed.ContentExtractor, known map[string]struct{}) *FetchFeedTask {
	return &FetchFeedTask{
		Task:             NewTask(TaskTypeFetchFeed, feedConfig.Name),
		FeedConfig:       feedConfig,
		fetcher:          fetcher,
		filterer:         filterer,
		contentExtractor: contentExtractor,
		known:            known,
	}
}

func (t *FetchFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.fetcher.Run(ctx, t.FeedConfig.URL, t.FeedConfig.Settings.GetTimeout())
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	if result.Warning != nil {
		slog.Warn("Feed had parsing issues, using recovered entries", "feed", t.FeedName, "error", result.Warning)
	}

	entries := result.Entries
	total := len(entries)
	if len(entries) > t.FeedConfig.Settings.MaxItems {
		entries = entries[:t.FeedConfig.Settings.MaxItems]
	}

	if t.filterer != nil {
		entries = t.filterer.Run(entries, t.FeedConfig)
	}

	extracted := 0
	if t.FeedConfig.Settings.ExtractContent && t.contentExtractor != nil {
		extracted = t.extractMissingContent(ctx, entries)
	}

	t.Title = result.Title
	t.Entries = entries

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"total", total,
		"kept", len(entries),
		"extracted", extracted)

	return nil
}

// extractMissingContent fills Content for unknown entries that carry neither
// content nor summary. Failures leave the entry unchanged.
func (t *FetchFeedTask) extractMissingContent(ctx context.Context, entries []feed.Entry) int {
	extracted := 0

	for i := range entries {
		entry := &entries[i]

		if feed.SelectContent(*entry) != "" || entry.Link == "" {
			continue
		}
		if _, ok := t.known[feed.Identity(*entry)]; ok {
			continue
		}

		select {
		case <-ctx.Done():
			return extracted
		default:
		}

		content, err := t.extractContent(ctx, entry.Link)
		if err != nil {
			slog.Warn("Failed to extract content for entry", "feed", t.FeedName, "url", entry.Link, "error", err)
			continue
		}

		entry.Content = []string{content}
		extracted++
	}

	return extracted
}

func (t *FetchFeedTask) extractContent(ctx context.Context, url string) (string, error) {
	data, err := t.fetcher.FetchArticle(ctx, url, t.FeedConfig.Settings.GetTimeout())
	if err != nil {
		return "", fmt.Errorf("failed to fetch article content: %w", err)
	}

	content, err := t.contentExtractor.Run(data, url)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	return content, nil
}
