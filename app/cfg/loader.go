package cfg

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Feed sources
	Feeds        []string `long:"feed" env:"RSS_FEEDS" env-delim:"," description:"Feed URL to ingest (repeatable, or comma-separated in RSS_FEEDS)"`
	FeedsDir     string   `long:"feeds-dir" env:"FEEDS_DIR" description:"Directory containing per-feed YAML configuration files"`
	ItemsPerFeed int      `long:"items-per-feed" env:"ITEMS_PER_FEED" default:"20" description:"Maximum number of entries processed per feed on each run"`

	// Output
	PostsDir          string `long:"posts-dir" env:"POSTS_DIR" default:"./posts" description:"Directory rendered posts are written to"`
	ManifestPath      string `long:"manifest" env:"MANIFEST_PATH" description:"Manifest file path (default: <posts-dir>/manifest.json)"`
	AdsSnippet        string `long:"ads-snippet" env:"ADS_SNIPPET" default:"./assets/ads.html" description:"Optional HTML snippet embedded into every post"`
	StylesHref        string `long:"styles-href" env:"STYLES_HREF" default:"/styles.css" description:"Stylesheet referenced by rendered posts"`
	ScriptSrc         string `long:"script-src" env:"SCRIPT_SRC" default:"/site.js" description:"Script referenced by rendered posts"`
	SummaryLength     int    `long:"summary-length" env:"SUMMARY_LENGTH" default:"280" description:"Maximum summary length in characters"`
	FilenameCollision string `long:"filename-collision" env:"FILENAME_COLLISION" default:"overwrite" choice:"overwrite" choice:"suffix" description:"What to do when two new posts map to the same file name"`

	// Fetching
	Timeout     int    `long:"timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-feed fetch timeout in seconds"`
	WorkerCount int    `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of feeds fetched concurrently"`
	UserAgent   string `long:"user-agent" env:"USER_AGENT" default:"RSS Posts/1.0" description:"User agent string for HTTP requests"`

	// Optional state
	DBPath      string `long:"db-path" env:"DB_PATH" description:"SQLite database for fetch history (disabled when empty)"`
	MetricsFile string `long:"metrics-file" env:"METRICS_FILE" description:"Write Prometheus metrics to this textfile after the run"`

	// Preview server
	Serve bool   `long:"serve" env:"SERVE" description:"Serve the posts directory instead of running ingestion"`
	Port  string `long:"port" env:"PORT" default:"8080" description:"HTTP port for --serve"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses command-line arguments and environment variables. It returns
// nil, nil when help was requested.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Feeds:             cleanFeeds(raw.Feeds),
		FeedsDir:          raw.FeedsDir,
		ItemsPerFeed:      raw.ItemsPerFeed,
		PostsDir:          raw.PostsDir,
		ManifestPath:      raw.ManifestPath,
		AdsSnippet:        raw.AdsSnippet,
		StylesHref:        raw.StylesHref,
		ScriptSrc:         raw.ScriptSrc,
		SummaryLength:     raw.SummaryLength,
		FilenameCollision: raw.FilenameCollision,
		Timeout:           raw.Timeout,
		WorkerCount:       raw.WorkerCount,
		UserAgent:         raw.UserAgent,
		DBPath:            raw.DBPath,
		MetricsFile:       raw.MetricsFile,
		Serve:             raw.Serve,
		Port:              raw.Port,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	nonNegativeFields := map[string]int{
		"items per feed": c.ItemsPerFeed,
		"summary length": c.SummaryLength,
		"timeout":        c.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.PostsDir == "" {
		return fmt.Errorf("posts directory is required")
	}

	return nil
}

// cleanFeeds trims every URL and drops blanks, so RSS_FEEDS="a, ,b," works.
func cleanFeeds(feeds []string) []string {
	cleaned := make([]string, 0, len(feeds))
	for _, feed := range feeds {
		if feed = strings.TrimSpace(feed); feed != "" {
			cleaned = append(cleaned, feed)
		}
	}
	return cleaned
}
