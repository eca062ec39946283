package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	runTime     prometheus.Gauge
	runDuration prometheus.Gauge
	postsAdded  prometheus.Gauge
	postsTotal  prometheus.Gauge

	feedStatus    *prometheus.CounterVec
	feedEntries   *prometheus.GaugeVec
	fetchDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		runTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rss_posts_last_run_time",
			Help: "Completion time of the last run",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rss_posts_last_run_duration_seconds",
			Help: "Duration of the last run",
		}),
		postsAdded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rss_posts_added",
			Help: "Posts added by the last run",
		}),
		postsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rss_posts_total",
			Help: "Posts recorded in the manifest",
		}),

		feedStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rss_posts_feed_status",
			Help: "Feed fetch status",
		}, []string{"name", "status"}),

		feedEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rss_posts_feed_entries",
			Help: "Entries returned by the last fetch of a feed",
		}, []string{"name"}),

		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rss_posts_fetch_duration_seconds",
			Help:    "Feed fetch duration",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"name"}),
	}

	m.registry.MustRegister(
		m.runTime, m.runDuration, m.postsAdded, m.postsTotal,
		m.feedStatus, m.feedEntries, m.fetchDuration,
	)

	return m
}

// ObserveFetch records the outcome of one feed fetch.
func (m *Metrics) ObserveFetch(name, status string, duration time.Duration, entries int) {
	m.feedStatus.WithLabelValues(name, status).Inc()
	m.feedEntries.WithLabelValues(name).Set(float64(entries))
	m.fetchDuration.WithLabelValues(name).Observe(duration.Seconds())
}

func (m *Metrics) ObserveRun(added, total int, duration time.Duration) {
	m.runTime.SetToCurrentTime()
	m.runDuration.Set(duration.Seconds())
	m.postsAdded.Set(float64(added))
	m.postsTotal.Set(float64(total))
}

// WriteTextfile exports all metrics to path in the node_exporter textfile
// format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
