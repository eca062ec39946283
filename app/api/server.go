package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the preview server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// Read-only surface, so a permissive CORS policy is enough
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	mount := handler.PostsMount()

	r.GET(mount+"/:file", handler.GetPost)
	r.GET("/manifest.json", handler.GetManifest)
	r.GET("/feed.xml", handler.GetRSS)

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	if handler.metrics != nil {
		r.GET("/metrics", gin.WrapH(handler.metrics.Handler()))
	}

	slog.Debug("Routes configured", "posts", mount, "history", handler.feedRepo != nil)

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"posts":    mount + "/<file>",
			"manifest": "/manifest.json",
			"feed":     "/feed.xml",
			"health":   "/health",
			"stats":    "/stats",
		}
		if handler.metrics != nil {
			endpoints["metrics"] = "/metrics"
		}

		c.JSON(200, gin.H{
			"service":       "RSS Posts",
			"version":       handler.version,
			"description":   "Static HTML posts rendered from RSS/Atom feeds",
			"endpoints":     endpoints,
			"documentation": "https://github.com/lysyi3m/rss-posts",
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
