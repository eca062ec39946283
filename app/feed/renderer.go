package feed

import (
	"bytes"
	"errors"
	"html"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// Document is everything the renderer needs to produce a post page.
type Document struct {
	Title   string
	DateISO string
	Content string // embedded verbatim
	Source  string // optional
}

type Renderer struct {
	stylesHref string
	scriptSrc  string
	adsPath    string

	adsOnce sync.Once
	adsHTML string
}

func NewRenderer(stylesHref, scriptSrc, adsPath string) *Renderer {
	return &Renderer{
		stylesHref: stylesHref,
		scriptSrc:  scriptSrc,
		adsPath:    adsPath,
	}
}

func (r *Renderer) Run(doc Document) string {
	var buf bytes.Buffer

	title := html.EscapeString(doc.Title)

	buf.WriteString("<!doctype html>\n")
	buf.WriteString("<html lang=\"en\">\n<head>\n")
	buf.WriteString("  <meta charset=\"utf-8\">\n")
	buf.WriteString("  <meta name=\"viewport\" content=\"width=device-width,initial-scale=1\">\n")
	buf.WriteString("  <title>" + title + "</title>\n")
	buf.WriteString("  <link rel=\"stylesheet\" href=\"" + html.EscapeString(r.stylesHref) + "\">\n")
	buf.WriteString("</head>\n<body>\n")

	buf.WriteString("  <header>\n")
	buf.WriteString("    <h1>" + title + "</h1>\n")
	buf.WriteString("    <p><small>Published: " + html.EscapeString(doc.DateISO) + "</small></p>\n")
	buf.WriteString("  </header>\n\n")

	buf.WriteString("  <main>\n")
	buf.WriteString("    " + doc.Content + "\n")
	if doc.Source != "" {
		buf.WriteString("    <p><a href=\"" + html.EscapeString(doc.Source) + "\" rel=\"noopener noreferrer\">Source</a></p>\n")
	}
	buf.WriteString("  </main>\n\n")

	buf.WriteString("  <aside>\n")
	buf.WriteString("    " + r.ads() + "\n")
	buf.WriteString("  </aside>\n\n")

	buf.WriteString("  <script src=\"" + html.EscapeString(r.scriptSrc) + "\"></script>\n")
	buf.WriteString("</body>\n</html>\n")

	return buf.String()
}

// ads loads the shared snippet once. A missing or unreadable file leaves
// the slot empty.
func (r *Renderer) ads() string {
	r.adsOnce.Do(func() {
		if r.adsPath == "" {
			return
		}

		data, err := os.ReadFile(r.adsPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("Ads snippet not found, leaving slot empty", "path", r.adsPath)
		case err != nil:
			slog.Warn("Failed to read ads snippet, leaving slot empty", "path", r.adsPath, "error", err)
		default:
			r.adsHTML = string(data)
		}
	})

	return r.adsHTML
}
