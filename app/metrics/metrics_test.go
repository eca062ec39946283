package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	m := New()

	m.ObserveFetch("example", "ok", 250*time.Millisecond, 12)
	m.ObserveFetch("example", "ok", time.Second, 10)
	m.ObserveFetch("example", "failed", time.Second, 0)

	require.Equal(t, 2.0, testutil.ToFloat64(m.feedStatus.WithLabelValues("example", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.feedStatus.WithLabelValues("example", "failed")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.feedEntries.WithLabelValues("example")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveFetch("example", "ok", time.Second, 3)
	m.ObserveRun(3, 10, 2*time.Second)

	path := filepath.Join(t.TempDir(), "rss_posts.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	require.Contains(t, content, "rss_posts_added 3")
	require.Contains(t, content, "rss_posts_total 10")
	require.Contains(t, content, `rss_posts_feed_status{name="example",status="ok"} 1`)
	require.Contains(t, content, "rss_posts_fetch_duration_seconds_bucket")
}

func TestWriteTextfileFailure(t *testing.T) {
	m := New()
	require.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRun(1, 1, time.Second)

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, strings.Contains(recorder.Body.String(), "rss_posts_added 1"))
}
