package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/termhub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/termhub/internal/providers/terminal"
	"github.com/GriffinCanCode/termhub/internal/service"
	"github.com/GriffinCanCode/termhub/internal/shared/id"
	"github.com/GriffinCanCode/termhub/internal/shared/types"
	"github.com/GriffinCanCode/termhub/internal/shared/utils"
)

const (
	maxIntentLength      = 256
	defaultDiscoverLimit = 5
	maxDiscoverLimit     = 50
)

// Version is reported by the root and health endpoints.
var Version = "dev"

// Sessions is the part of the session manager the REST handlers use.
type Sessions interface {
	Init(id, cwd string) bool
	Write(id string, data []byte)
	Resize(id string, cols, rows int)
	Kill(id string) bool
	Get(id string) (terminal.SessionInfo, bool)
	List() []terminal.SessionInfo
	Len() int
}

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions  Sessions
	registry  *service.Registry
	metrics   *monitoring.Metrics
	startedAt time.Time
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(sessions Sessions, registry *service.Registry, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		sessions:  sessions,
		registry:  registry,
		metrics:   metrics,
		startedAt: time.Now(),
	}
}

// Register mounts every route on router.
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	sessions := router.Group("/terminal/sessions")
	sessions.GET("", h.ListSessions)
	sessions.POST("", h.CreateSession)
	sessions.GET("/:id", h.GetSession)
	sessions.POST("/:id/init", h.InitSession)
	sessions.POST("/:id/write", h.WriteSession)
	sessions.POST("/:id/resize", h.ResizeSession)
	sessions.DELETE("/:id", h.KillSession)

	router.GET("/services", h.ListServices)
	router.GET("/services/discover", h.DiscoverServices)
	router.POST("/services/execute", h.ExecuteService)

	router.GET("/metrics/json", h.MetricsJSON)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "termhub",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"version":        Version,
		"sessions":       h.sessions.Len(),
		"services":       h.registry.Stats(),
		"uptime_seconds": time.Since(h.startedAt).Seconds(),
	})
}

// ListSessions lists live terminal sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession describes one session
func (h *Handlers) GetSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	info, found := h.sessions.Get(sessionID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// CreateSession starts a session under a freshly generated id
func (h *Handlers) CreateSession(c *gin.Context) {
	var req types.InitRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.startSession(c, id.NewSessionID().String(), req.Cwd, http.StatusCreated)
}

// InitSession starts the session for :id unless it is already running
func (h *Handlers) InitSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req types.InitRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.startSession(c, sessionID, req.Cwd, http.StatusOK)
}

func (h *Handlers) startSession(c *gin.Context, sessionID, cwd string, status int) {
	if err := utils.ValidateWorkingDir(cwd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.sessions.Init(sessionID, cwd) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"id":    sessionID,
			"ok":    false,
			"error": "failed to start shell",
		})
		return
	}
	c.JSON(status, gin.H{"id": sessionID, "ok": true})
}

// WriteSession sends input to a session
func (h *Handlers) WriteSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req types.WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateWrite(req.Data); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	h.sessions.Write(sessionID, []byte(req.Data))
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// ResizeSession changes a session's geometry
func (h *Handlers) ResizeSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req types.ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateGeometry(req.Cols, req.Rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.sessions.Resize(sessionID, req.Cols, req.Rows)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// KillSession terminates a session and everything it started
func (h *Handlers) KillSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": sessionID, "ok": h.sessions.Kill(sessionID)})
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	categoryStr := c.Query("category")

	if categoryStr != "" {
		if err := utils.ValidateCategory(categoryStr, false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var category *types.Category
	if categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// DiscoverServices ranks services against ?intent= and returns the best
// ?limit= of them (default 5)
func (h *Handlers) DiscoverServices(c *gin.Context) {
	intent := c.Query("intent")
	if err := utils.ValidateString(intent, "intent", 1, maxIntentLength, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := defaultDiscoverLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxDiscoverLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("limit must be between 1 and %d", maxDiscoverLimit),
			})
			return
		}
		limit = n
	}

	services := h.registry.Discover(intent, limit)
	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"count":    len(services),
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Params == nil {
		req.Params = map[string]interface{}{}
	}

	remoteIP := c.ClientIP()
	userAgent := c.Request.UserAgent()
	appCtx := &types.Context{RemoteIP: &remoteIP, UserAgent: &userAgent}

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// MetricsJSON returns a snapshot of the server metrics
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func sessionParam(c *gin.Context) (string, bool) {
	sessionID := c.Param("id")
	if err := utils.ValidateSessionID(sessionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return sessionID, true
}

// bindOptionalJSON binds the body into v when there is one.
func bindOptionalJSON(c *gin.Context, v interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
