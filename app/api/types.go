package api

import (
	"github.com/lysyi3m/rss-posts/app/database"
	"github.com/lysyi3m/rss-posts/app/feed"
	"github.com/lysyi3m/rss-posts/app/manifest"
	"github.com/lysyi3m/rss-posts/app/metrics"
)

type GeneratorInterface interface {
	Run(channel feed.Channel, posts []manifest.Post) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type ManifestLoader interface {
	Load() *manifest.Manifest
}

var _ ManifestLoader = (*manifest.Store)(nil)

type Handler struct {
	postsDir    string
	store       ManifestLoader
	generator   GeneratorInterface
	configCache *feed.ConfigCache
	metrics     *metrics.Metrics
	version     string

	// Optional, nil when the history database is disabled
	feedRepo database.FeedRepository
	runRepo  database.RunRepository
}
