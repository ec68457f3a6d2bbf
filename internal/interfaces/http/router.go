// Package http wires the gin route tree and the HTTP server for the
// dealflow API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/prometheus"
	"github.com/vperelman/dealflow/internal/interfaces/http/handlers"
	"github.com/vperelman/dealflow/internal/interfaces/http/middleware"
)

// RouterConfig aggregates everything the route tree needs.  Nil handlers
// leave their routes unregistered, which keeps partial wiring (tests, the
// CLI's read-only mode) possible.
type RouterConfig struct {
	Deals     *handlers.DealHandler
	Reminders *handlers.ReminderHandler
	Clients   *handlers.ClientHandler
	Agenda    *handlers.AgendaHandler
	Insights  *handlers.InsightsHandler
	Advisor   *handlers.AdvisorHandler
	Health    *handlers.HealthHandler

	Mode    string
	Logger  logging.Logger
	Metrics *prometheus.Metrics
}

// NewRouter builds the complete gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(""))
	if cfg.Logger != nil {
		r.Use(middleware.Logging(cfg.Logger, cfg.Metrics))
	}

	if cfg.Health != nil {
		r.GET("/healthz", cfg.Health.Liveness)
		r.GET("/readyz", cfg.Health.Readiness)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api/v1")

	if h := cfg.Deals; h != nil {
		deals := api.Group("/deals")
		deals.POST("", h.Create)
		deals.GET("", h.List)
		deals.GET("/:dealID", h.Get)
		deals.PATCH("/:dealID", h.Update)
		deals.DELETE("/:dealID", h.Delete)
		deals.POST("/:dealID/status", h.ChangeStatus)
		deals.POST("/:dealID/followups", h.LogFollowUp)
		deals.GET("/:dealID/followups/:followUpID/audio", h.AudioURL)
	}

	if h := cfg.Reminders; h != nil {
		reminders := api.Group("/reminders")
		reminders.POST("", h.Create)
		reminders.GET("", h.List)
		reminders.GET("/:reminderID", h.Get)
		reminders.POST("/:reminderID/complete", h.Complete)
		reminders.POST("/:reminderID/dismiss", h.Dismiss)
		reminders.POST("/:reminderID/reschedule", h.Reschedule)
		reminders.DELETE("/:reminderID", h.Delete)
	}

	if h := cfg.Clients; h != nil {
		clients := api.Group("/clients")
		clients.POST("", h.Create)
		clients.GET("", h.List)
		clients.GET("/:clientID", h.Get)
		clients.PATCH("/:clientID", h.Rename)
		clients.POST("/:clientID/contacts", h.AddContact)
		clients.DELETE("/:clientID", h.Delete)
	}

	if h := cfg.Agenda; h != nil {
		api.GET("/agenda", h.Get)
		api.GET("/agenda/notifications", h.Notifications)
	}

	if h := cfg.Insights; h != nil {
		api.GET("/insights/dashboard", h.Dashboard)
		api.GET("/insights/leaderboard", h.Leaderboard)
	}

	if h := cfg.Advisor; h != nil {
		api.GET("/assistant/briefing", h.Briefing)
		api.GET("/assistant/goal", h.SuggestGoal)
		api.POST("/assistant/clients/:clientID/reengagement", h.Reengagement)
		api.POST("/assistant/deals/:dealID/email", h.EmailDraft)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}
