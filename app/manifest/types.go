package manifest

import "errors"

var (
	// ErrCorrupt marks a manifest file that exists but cannot be used.
	ErrCorrupt = errors.New("manifest is corrupt")

	// ErrSave wraps every failure to persist the manifest.
	ErrSave = errors.New("failed to save manifest")
)

// Post is one rendered document as recorded in the manifest.
type Post struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"` // file name, e.g. 2024-01-02-hello-world.html
	Path    string `json:"path"`
	DateISO string `json:"date_iso"`
	Source  string `json:"source"`
	Summary string `json:"summary"`
}

type Manifest struct {
	Posts []Post `json:"posts"`
}

func New() *Manifest {
	return &Manifest{Posts: []Post{}}
}

// Append adds a post. Callers check KnownIdentities first.
func (m *Manifest) Append(post Post) {
	m.Posts = append(m.Posts, post)
}

// KnownIdentities returns the set of all non-empty post ids.
func KnownIdentities(m *Manifest) map[string]struct{} {
	known := make(map[string]struct{}, len(m.Posts))
	for _, post := range m.Posts {
		if post.ID != "" {
			known[post.ID] = struct{}{}
		}
	}
	return known
}
