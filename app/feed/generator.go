package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/rss-posts/app/manifest"
)

const isoLayout = "2006-01-02T15:04:05.999999-07:00"

// Channel describes the RSS channel built from the manifest.
type Channel struct {
	Title       string
	Link        string // site root, post links are resolved against it
	Description string
	SelfURL     string
	Version     string
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders the manifest posts as an RSS 2.0 feed, in manifest order.
func (g *Generator) Run(channel Channel, posts []manifest.Post) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	g.writeElement(&buf, "description", channel.Description, 4)

	if channel.SelfURL != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfURL)))
	}

	lastBuildDate := time.Now().UTC()
	if len(posts) > 0 {
		if published, err := time.Parse(isoLayout, posts[0].DateISO); err == nil {
			lastBuildDate = published
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("RSS-Posts/%s", channel.Version), 4)

	for _, post := range posts {
		if err := g.writeItem(&buf, channel, post); err != nil {
			return "", err
		}
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, channel Channel, post manifest.Post) error {
	buf.WriteString("    <item>\n")

	if post.ID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(post.ID)))
		if err := xml.EscapeText(buf, []byte(post.ID)); err != nil {
			return fmt.Errorf("failed to escape guid: %w", err)
		}
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", post.Title, 6)
	g.writeElement(buf, "link", g.postLink(channel.Link, post), 6)
	g.writeElement(buf, "description", post.Summary, 6)

	if published, err := time.Parse(isoLayout, post.DateISO); err == nil {
		g.writeElement(buf, "pubDate", published.Format(time.RFC1123Z), 6)
	}

	if post.Source != "" {
		buf.WriteString(fmt.Sprintf("      <source url=\"%s\">", html.EscapeString(post.Source)))
		xml.EscapeText(buf, []byte(post.Source))
		buf.WriteString("</source>\n")
	}

	buf.WriteString("    </item>\n")
	return nil
}

func (g *Generator) postLink(root string, post manifest.Post) string {
	if post.Path == "" {
		return ""
	}
	return strings.TrimSuffix(root, "/") + "/" + strings.TrimPrefix(post.Path, "/")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
