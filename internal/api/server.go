package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerConfig holds HTTP server options
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig allows long write timeouts since a triggered run
// answers only after publishing.
func DefaultServerConfig(port string) *ServerConfig {
	if port == "" {
		port = "8080"
	}
	return &ServerConfig{
		Port:         port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
}

// NewRouter creates the gin engine with all routes configured
func NewRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(requestLogger())
	r.Use(gin.Recovery())

	setupRoutes(r, handler)
	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/scrape", handler.Scrape)
		api.GET("/cron", handler.Cron)
		api.POST("/cron", handler.Cron)
	}
}

// NewHTTPServer wraps the router in an http.Server using cfg's timeouts.
func NewHTTPServer(cfg *ServerConfig, router http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		// Query strings carry secrets; log the path only.
		slog.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP())
	}
}
