package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-posts/app/feed"
)

// FeedFetcher downloads feeds and article pages. *feed.Fetcher implements it.
type FeedFetcher interface {
	Run(ctx context.Context, url string, timeout time.Duration) (*feed.FetchResult, error)
	FetchArticle(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}
