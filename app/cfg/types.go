package cfg

import (
	"path/filepath"
	"time"
)

const (
	CollisionOverwrite = "overwrite"
	CollisionSuffix    = "suffix"
)

// FallbackFeeds is used when neither RSS_FEEDS nor a feeds directory
// yields any feed.
var FallbackFeeds = []string{
	"https://hnrss.org/frontpage",
	"https://rss.nytimes.com/services/xml/rss/nyt/Technology.xml",
}

type Cfg struct {
	// Feed sources
	Feeds        []string
	FeedsDir     string
	ItemsPerFeed int

	// Output
	PostsDir          string
	ManifestPath      string
	AdsSnippet        string
	StylesHref        string
	ScriptSrc         string
	SummaryLength     int
	FilenameCollision string

	// Fetching
	Timeout     int
	WorkerCount int
	UserAgent   string

	// Optional state
	DBPath      string
	MetricsFile string

	// Preview server
	Serve bool
	Port  string

	Debug   bool
	Version string
}

func (c *Cfg) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetManifestPath falls back to manifest.json inside the posts directory.
func (c *Cfg) GetManifestPath() string {
	if c.ManifestPath != "" {
		return c.ManifestPath
	}
	return filepath.Join(c.PostsDir, "manifest.json")
}
