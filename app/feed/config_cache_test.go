package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testDefaults = ConfigSettings{MaxItems: 20, Timeout: 30}

func writeFeedConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	writeFeedConfig(t, tempDir, "test.yml", `
url: "https://example.com/feed.xml"

settings:
  enabled: true
  max_items: 25
  timeout: 15
  extract_content: true

filters:
  - field: "title"
    includes:
      - "technology"
    excludes:
      - "spam"
`)

	configCache := NewConfigCache(tempDir, testDefaults)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 feedConfig, got %d", configCache.GetConfigCount())
	}

	feedConfig, err := configCache.GetConfig("test")
	if err != nil {
		t.Fatal(err)
	}

	if feedConfig.Name != "test" {
		t.Errorf("Expected name 'test', got '%s'", feedConfig.Name)
	}
	if feedConfig.URL != "https://example.com/feed.xml" {
		t.Errorf("Expected URL 'https://example.com/feed.xml', got '%s'", feedConfig.URL)
	}
	if feedConfig.Settings.MaxItems != 25 {
		t.Errorf("Expected max items 25, got %d", feedConfig.Settings.MaxItems)
	}
	if feedConfig.Settings.GetTimeout() != 15*time.Second {
		t.Errorf("Expected timeout 15s, got %v", feedConfig.Settings.GetTimeout())
	}
	if !feedConfig.Settings.ExtractContent {
		t.Error("Expected extract_content to be true")
	}
	if len(feedConfig.Filters) != 1 {
		t.Errorf("Expected 1 filter, got %d", len(feedConfig.Filters))
	}
}

func TestConfigCacheLoadConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()

	writeFeedConfig(t, tempDir, "minimal.yml", `
url: "https://example.com/feed.xml"
settings:
  enabled: true
`)

	configCache := NewConfigCache(tempDir, testDefaults)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	feedConfig, err := configCache.GetConfig("minimal")
	if err != nil {
		t.Fatal(err)
	}

	if feedConfig.Settings.MaxItems != 20 {
		t.Errorf("Expected default max items 20, got %d", feedConfig.Settings.MaxItems)
	}
	if feedConfig.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", feedConfig.Settings.Timeout)
	}
	if feedConfig.Settings.ExtractContent {
		t.Error("Expected extract_content to default to false")
	}
}

func TestConfigCacheInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"missing url":      "settings:\n  enabled: true\n",
		"negative items":   "url: https://example.com/feed.xml\nsettings:\n  max_items: -1\n",
		"negative timeout": "url: https://example.com/feed.xml\nsettings:\n  timeout: -5\n",
		"bad field":        "url: https://example.com/feed.xml\nfilters:\n  - field: body\n    includes: [x]\n",
		"empty filter":     "url: https://example.com/feed.xml\nfilters:\n  - field: title\n",
		"broken yaml":      "url: [unterminated\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeFeedConfig(t, tempDir, "invalid.yml", content)

			configCache := NewConfigCache(tempDir, testDefaults)
			if err := configCache.Run(); err == nil {
				t.Error("Expected error for invalid config")
			}
		})
	}
}

func TestConfigCacheEmptyDirectory(t *testing.T) {
	for _, dir := range []string{"", t.TempDir(), filepath.Join(t.TempDir(), "missing")} {
		configCache := NewConfigCache(dir, testDefaults)
		if err := configCache.Run(); err != nil {
			t.Errorf("Expected no error for %q, got: %v", dir, err)
		}
		if configCache.GetConfigCount() != 0 {
			t.Errorf("Expected 0 configs for %q, got %d", dir, configCache.GetConfigCount())
		}
	}
}

func TestConfigCacheGetConfigs(t *testing.T) {
	tempDir := t.TempDir()

	writeFeedConfig(t, tempDir, "zeta.yml", "url: https://example.com/z.xml\nsettings:\n  enabled: true\n")
	writeFeedConfig(t, tempDir, "alpha.yml", "url: https://example.com/a.xml\nsettings:\n  enabled: true\n")
	writeFeedConfig(t, tempDir, "muted.yml", "url: https://example.com/m.xml\nsettings:\n  enabled: false\n")
	writeFeedConfig(t, tempDir, "notes.txt", "not a feed config")

	configCache := NewConfigCache(tempDir, testDefaults)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	all := configCache.GetConfigs()
	var names []string
	for _, c := range all {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "alpha,muted,zeta" {
		t.Errorf("Expected configs ordered by name, got %v", names)
	}

	enabled := configCache.GetEnabledConfigs()
	if len(enabled) != 2 || enabled[0].Name != "alpha" || enabled[1].Name != "zeta" {
		t.Errorf("Unexpected enabled configs: %v", enabled)
	}
}

func TestConfigCacheGetConfigNotFound(t *testing.T) {
	configCache := NewConfigCache(t.TempDir(), testDefaults)
	if _, err := configCache.GetConfig("nope"); err == nil {
		t.Error("Expected error for unknown feed")
	}
}

func TestNewURLConfig(t *testing.T) {
	feedConfig := NewURLConfig("https://example.com/rss", testDefaults)

	if feedConfig.Name != "https://example.com/rss" || feedConfig.URL != "https://example.com/rss" {
		t.Errorf("Unexpected config: %+v", feedConfig)
	}
	if !feedConfig.Settings.Enabled {
		t.Error("Expected URL config to be enabled")
	}
	if feedConfig.Settings.MaxItems != 20 || len(feedConfig.Filters) != 0 {
		t.Errorf("Unexpected settings: %+v", feedConfig.Settings)
	}
}
