package feed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS/Atom document. A document that only parses after
// repair is returned with FetchResult.Warning set to the original error.
func (p *Parser) Run(data []byte) (*FetchResult, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err == nil {
		return p.toResult(parsed), nil
	}

	repaired := repairXML(data)
	if bytes.Equal(repaired, data) {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	recovered, retryErr := p.gofeedParser.Parse(bytes.NewReader(repaired))
	if retryErr != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	result := p.toResult(recovered)
	result.Warning = err
	return result, nil
}

func (p *Parser) toResult(parsed *gofeed.Feed) *FetchResult {
	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, p.normalizeItem(item))
	}

	return &FetchResult{
		Title:   parsed.Title,
		Entries: entries,
	}
}

func (p *Parser) normalizeItem(item *gofeed.Item) Entry {
	entry := Entry{
		ID:          item.GUID,
		Title:       item.Title,
		Link:        item.Link,
		Summary:     item.Description,
		PublishedAt: item.PublishedParsed,
		UpdatedAt:   item.UpdatedParsed,
		Categories:  item.Categories,
	}

	if item.Content != "" {
		entry.Content = []string{item.Content}
	}

	entry.Authors = p.extractAuthors(item)

	return entry
}

func (p *Parser) extractAuthors(item *gofeed.Item) []string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author != nil {
				if authorStr := p.formatAuthor(author.Name, author.Email); authorStr != "" {
					authors = append(authors, authorStr)
				}
			}
		}
	} else if item.Author != nil {
		if authorStr := p.formatAuthor(item.Author.Name, item.Author.Email); authorStr != "" {
			authors = append(authors, authorStr)
		}
	}

	return authors
}

func (p *Parser) formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s (%s)", email, name)
	case name != "":
		return name
	default:
		return email
	}
}

// repairXML drops characters that are not allowed in XML 1.0 documents.
// Invalid UTF-8 sequences become U+FFFD.
func repairXML(data []byte) []byte {
	return bytes.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, data)
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
