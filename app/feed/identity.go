package feed

import (
	"cmp"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/samber/mo"
)

const (
	DefaultTitle = "Untitled"

	identityHashLimit = 512 // characters of "title|summary" fed to the hash
)

// Identity returns the dedup key of an entry: its native id, then its link,
// then a SHA-1 of the title and summary.
func Identity(entry Entry) string {
	return cmp.Or(entry.ID, entry.Link, contentHash(entry))
}

func contentHash(entry Entry) string {
	base := []rune(entry.Title + "|" + entry.Summary)
	if len(base) > identityHashLimit {
		base = base[:identityHashLimit]
	}

	hash := sha1.Sum([]byte(string(base)))
	return hex.EncodeToString(hash[:])
}

// Title returns the trimmed entry title or DefaultTitle when it is blank.
func Title(entry Entry) string {
	return cmp.Or(strings.TrimSpace(entry.Title), DefaultTitle)
}

// PublishTime prefers the published timestamp, then the updated one, then
// now. The result is always UTC.
func PublishTime(entry Entry, now time.Time) time.Time {
	return mo.PointerToOption(entry.PublishedAt).
		OrElse(mo.PointerToOption(entry.UpdatedAt).OrElse(now)).
		UTC()
}

// FormatISO renders t in UTC as ISO 8601 with an explicit +00:00 offset.
// Microseconds are included only when non-zero.
func FormatISO(t time.Time) string {
	t = t.UTC().Truncate(time.Microsecond)
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05-07:00")
	}
	return t.Format("2006-01-02T15:04:05.000000-07:00")
}
