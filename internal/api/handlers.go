package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/mainewire/internal/app"
	"github.com/deusflow/mainewire/internal/metrics"
	"github.com/deusflow/mainewire/internal/storage"
)

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context, opts app.RunOptions) (*app.Summary, error)
}

// Secrets configures who may trigger a run. An empty value accepts nobody.
type Secrets struct {
	ScrapeKey  string
	CronSecret string
	CronKey    string
}

type Handler struct {
	runner  Runner
	secrets Secrets
}

func NewHandler(runner Runner, secrets Secrets) *Handler {
	return &Handler{runner: runner, secrets: secrets}
}

// Scrape handles GET /api/scrape?key=&save=&national=
func (h *Handler) Scrape(c *gin.Context) {
	if !secretMatches(h.secrets.ScrapeKey, c.Query("key")) {
		unauthorized(c)
		return
	}

	opts := app.RunOptions{
		Save:            queryBool(c, "save", false),
		IncludeNational: queryBool(c, "national", true),
	}
	h.run(c, opts)
}

// Cron handles GET|POST /api/cron. It always saves and includes national news.
func (h *Handler) Cron(c *gin.Context) {
	bearer, hasBearer := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	authorized := (hasBearer && secretMatches(h.secrets.CronSecret, bearer)) ||
		secretMatches(h.secrets.CronKey, c.Query("key"))
	if !authorized {
		unauthorized(c)
		return
	}

	h.run(c, app.RunOptions{Save: true, IncludeNational: true})
}

func (h *Handler) run(c *gin.Context, opts app.RunOptions) {
	summary, err := h.runner.Run(c.Request.Context(), opts)
	if err != nil {
		var stepErr *storage.StepError
		if errors.As(err, &stepErr) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": err.Error(),
				"step":  stepErr.Name,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Health reports the outcome of the last run.
func (h *Handler) Health(c *gin.Context) {
	stats := metrics.Global.GetStats()

	status, code := "ok", http.StatusOK
	if healthy, _ := stats["is_healthy"].(bool); !healthy {
		status, code = "error", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
		"stats":  stats,
	})
}

func secretMatches(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func unauthorized(c *gin.Context) {
	slog.Warn("Rejected unauthorized trigger", "path", c.Request.URL.Path, "client_ip", c.ClientIP())
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func queryBool(c *gin.Context, name string, def bool) bool {
	v, ok := c.GetQuery(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
