package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meeting-intelligence-team/meeting-intelligence/pkg/config"
)

// Pinger reports whether a backing dependency is reachable
type Pinger func(ctx context.Context) error

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	meetingHandler *Meeting
	searchHandler  *Search
	adminHandler   *Admin
	pingers        map[string]Pinger
}

// NewRouter creates a new router with all handlers. Pingers are checked by
// the health endpoint, keyed by dependency name.
func NewRouter(cfg *config.Config, meetingHandler *Meeting, searchHandler *Search, adminHandler *Admin, pingers map[string]Pinger) *Router {
	return &Router{
		cfg:            cfg,
		meetingHandler: meetingHandler,
		searchHandler:  searchHandler,
		adminHandler:   adminHandler,
		pingers:        pingers,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupMeetingRoutes(v1)
	rt.setupSearchRoutes(v1)
	rt.setupAdminRoutes(v1)
}

func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetings := g.Group("/meetings")
	meetings.POST("/upload", rt.meetingHandler.Upload)
	meetings.GET("", rt.meetingHandler.List)
	meetings.GET("/:id", rt.meetingHandler.Get)
	meetings.GET("/:id/status", rt.meetingHandler.Status)
	meetings.POST("/:id/reprocess", rt.meetingHandler.Reprocess)
}

func (rt *Router) setupSearchRoutes(g *echo.Group) {
	searchGroup := g.Group("/search")
	searchGroup.POST("", rt.searchHandler.Query)
	searchGroup.GET("/meetings/:id", rt.searchHandler.QueryMeeting)
}

func (rt *Router) setupAdminRoutes(g *echo.Group) {
	admin := g.Group("/admin")
	admin.GET("/dead-letters", rt.adminHandler.DeadLetters)
}

// healthCheck returns health status including backing dependency pings
func (rt *Router) healthCheck(c echo.Context) error {
	ctx := c.Request().Context()

	deps := make(map[string]string, len(rt.pingers))
	healthy := true
	for name, ping := range rt.pingers {
		if err := ping(ctx); err != nil {
			deps[name] = err.Error()
			healthy = false
		} else {
			deps[name] = "ok"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status":       status,
		"environment":  rt.cfg.Server.Environment,
		"dependencies": deps,
	})
}
