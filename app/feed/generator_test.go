package feed

import (
	"strings"
	"testing"

	"github.com/lysyi3m/rss-posts/app/manifest"
)

func TestGenerateRSS(t *testing.T) {
	generator := NewGenerator()

	channel := Channel{
		Title:       "Posts",
		Link:        "http://localhost:8080/",
		Description: "Rendered posts",
		SelfURL:     "http://localhost:8080/feed.xml",
		Version:     "1.2.3",
	}

	posts := []manifest.Post{
		{
			ID:      "https://example.com/item1",
			Title:   "Fish & Chips",
			Slug:    "2024-01-03-fish-chips.html",
			Path:    "posts/2024-01-03-fish-chips.html",
			DateISO: "2024-01-03T10:00:00+00:00",
			Source:  "https://example.com/item1?a=1&b=2",
			Summary: "Summary <one>",
		},
		{
			ID:      "item-2",
			Title:   "Second",
			Slug:    "2024-01-02-second.html",
			Path:    "posts/2024-01-02-second.html",
			DateISO: "2024-01-02T00:00:00.123456+00:00",
		},
	}

	rss, err := generator.Run(channel, posts)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`,
		"<title>Posts</title>",
		"<link>http://localhost:8080/</link>",
		"<description>Rendered posts</description>",
		`<atom:link href="http://localhost:8080/feed.xml" rel="self" type="application/rss+xml" />`,
		"<lastBuildDate>Wed, 03 Jan 2024 10:00:00 +0000</lastBuildDate>",
		"<generator>RSS-Posts/1.2.3</generator>",
		`<guid isPermaLink="true">https://example.com/item1</guid>`,
		"<title>Fish &amp; Chips</title>",
		"<link>http://localhost:8080/posts/2024-01-03-fish-chips.html</link>",
		"<description>Summary &lt;one&gt;</description>",
		"<pubDate>Wed, 03 Jan 2024 10:00:00 +0000</pubDate>",
		`<source url="https://example.com/item1?a=1&amp;b=2">https://example.com/item1?a=1&amp;b=2</source>`,
		`<guid isPermaLink="false">item-2</guid>`,
		"<pubDate>Tue, 02 Jan 2024 00:00:00 +0000</pubDate>",
		"</channel>\n</rss>",
	}

	for _, want := range expected {
		if !strings.Contains(rss, want) {
			t.Errorf("RSS should contain %q\n%s", want, rss)
		}
	}

	if strings.Index(rss, "Fish &amp; Chips") > strings.Index(rss, "<title>Second</title>") {
		t.Error("Items should keep manifest order")
	}
}

func TestGenerateWithMinimalData(t *testing.T) {
	generator := NewGenerator()

	rss, err := generator.Run(Channel{Title: "Empty"}, []manifest.Post{{Title: "No metadata"}})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if strings.Contains(rss, "<guid") {
		t.Error("RSS should not contain guid for a post without id")
	}
	if strings.Contains(rss, "<link>") {
		t.Error("RSS should not contain empty links")
	}
	if strings.Contains(rss, "<pubDate>") {
		t.Error("RSS should not contain pubDate for an undated post")
	}
	if strings.Contains(rss, "atom:link") {
		t.Error("RSS should not contain self link when none is configured")
	}
	if !strings.Contains(rss, "<lastBuildDate>") {
		t.Error("RSS should always contain lastBuildDate")
	}
}

func TestGenerateEmptyManifest(t *testing.T) {
	rss, err := NewGenerator().Run(Channel{Title: "Empty"}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if strings.Contains(rss, "<item>") {
		t.Error("RSS should not contain items")
	}
}
