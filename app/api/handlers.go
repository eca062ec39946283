package api

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-posts/app/database"
	"github.com/lysyi3m/rss-posts/app/feed"
	"github.com/lysyi3m/rss-posts/app/metrics"
)

func NewHandler(postsDir string, store ManifestLoader, configCache *feed.ConfigCache,
	m *metrics.Metrics, version string) *Handler {
	return &Handler{
		postsDir:    postsDir,
		store:       store,
		generator:   feed.NewGenerator(),
		configCache: configCache,
		metrics:     m,
		version:     version,
	}
}

// WithHistory enables the /stats endpoint.
func (h *Handler) WithHistory(feedRepo database.FeedRepository, runRepo database.RunRepository) *Handler {
	h.feedRepo = feedRepo
	h.runRepo = runRepo
	return h
}

// PostsMount is the URL prefix posts are served under. It matches the
// directory component of manifest paths so links resolve as written.
func (h *Handler) PostsMount() string {
	return "/" + filepath.Base(h.postsDir)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"posts":     len(h.store.Load().Posts),
		"history":   h.feedRepo != nil,
	}

	if h.configCache != nil {
		health["loaded_configurations"] = h.configCache.GetConfigCount()
	}

	if h.feedRepo != nil {
		if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
			health["feeds"] = feedCount
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetManifest(c *gin.Context) {
	m := h.store.Load()

	c.Header("X-Posts-Total", strconv.Itoa(len(m.Posts)))
	c.JSON(http.StatusOK, m)
}

func (h *Handler) GetPost(c *gin.Context) {
	name := c.Param("file")
	if !isPostFilename(name) {
		c.Status(http.StatusNotFound)
		return
	}

	path := filepath.Join(h.postsDir, name)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to stat post", "file", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.File(path)
}

func (h *Handler) GetRSS(c *gin.Context) {
	m := h.store.Load()

	root := baseURL(c)
	channel := feed.Channel{
		Title:       "RSS Posts",
		Link:        root + "/",
		Description: "Posts rendered from subscribed feeds",
		SelfURL:     root + "/feed.xml",
		Version:     h.version,
	}

	rss, err := h.generator.Run(channel, m.Posts)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(m.Posts)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetStats(c *gin.Context) {
	if h.feedRepo == nil || h.runRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History database disabled"})
		return
	}

	feeds, err := h.feedRepo.GetFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "get_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	feedStats := make([]map[string]interface{}, 0, len(feeds))
	failing := 0
	for _, f := range feeds {
		if f.LastStatus == database.FetchStatusFailed {
			failing++
		}
		feedStats = append(feedStats, map[string]interface{}{
			"name":            f.Name,
			"url":             f.FeedURL,
			"title":           f.Title,
			"last_status":     f.LastStatus,
			"last_error":      f.LastError,
			"items_found":     f.ItemsFound,
			"items_added":     f.ItemsAdded,
			"total_added":     f.TotalAdded,
			"last_fetched_at": f.LastFetchedAt,
			"last_success_at": f.LastSuccessAt,
		})
	}

	stats := map[string]interface{}{
		"feeds":         feedStats,
		"feeds_total":   len(feeds),
		"feeds_failing": failing,
		"posts_total":   len(h.store.Load().Posts),
	}

	if runCount, err := h.runRepo.GetRunCount(); err == nil {
		stats["runs"] = runCount
	}

	lastRun, err := h.runRepo.GetLastRun()
	if err != nil {
		slog.Error("Database error", "operation", "get_last_run", "error", err)
	} else if lastRun != nil {
		stats["last_run"] = map[string]interface{}{
			"id":           lastRun.ID,
			"started_at":   lastRun.StartedAt,
			"finished_at":  lastRun.FinishedAt,
			"feeds_total":  lastRun.FeedsTotal,
			"feeds_failed": lastRun.FeedsFailed,
			"posts_added":  lastRun.PostsAdded,
			"posts_total":  lastRun.PostsTotal,
			"error":        lastRun.Error,
		}
	}

	c.JSON(http.StatusOK, stats)
}

// isPostFilename accepts bare .html names only, never a path.
func isPostFilename(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return false
	}
	return strings.HasSuffix(name, ".html")
}

func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host
}
