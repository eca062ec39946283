package feed

import (
	"time"
)

// Feed processing types

type Entry struct {
	ID          string
	Title       string
	Link        string
	Summary     string
	Content     []string // content parts in document order, possibly HTML
	PublishedAt *time.Time
	UpdatedAt   *time.Time
	Authors     []string // "email (name)" or "name"
	Categories  []string
}

type FetchResult struct {
	Title   string
	Entries []Entry

	// Warning is set when the document was malformed and its entries were
	// recovered by the repair pass.
	Warning error
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension), or the URL
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled        bool `yaml:"enabled"`
	MaxItems       int  `yaml:"max_items"`
	Timeout        int  `yaml:"timeout"`         // seconds
	ExtractContent bool `yaml:"extract_content"` // fetch the article when the entry carries no content
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

func (s *ConfigSettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}
