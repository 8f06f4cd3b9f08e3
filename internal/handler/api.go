package handler

import (
	"context"
	"net/http"
	"time"

	"workzone-monitor/internal/guard"
	"workzone-monitor/internal/models"
	"workzone-monitor/internal/progress"
	"workzone-monitor/internal/repository"
	"workzone-monitor/internal/scheduler"
	"workzone-monitor/internal/v2x"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests
type Handler struct {
	scheduler       *scheduler.Scheduler
	repo            *repository.DetectionRepository
	guard           *guard.Guard
	registrar       *v2x.Registrar
	hub             *progress.Hub
	defaultInterval int // minutes, from config
	logger          *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(sched *scheduler.Scheduler, repo *repository.DetectionRepository, g *guard.Guard, registrar *v2x.Registrar, hub *progress.Hub, defaultIntervalMinutes int, logger *zap.Logger) *Handler {
	return &Handler{
		scheduler:       sched,
		repo:            repo,
		guard:           g,
		registrar:       registrar,
		hub:             hub,
		defaultInterval: defaultIntervalMinutes,
		logger:          logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Collection control
		api.POST("/collection/start", h.StartCollection)
		api.POST("/collection/stop", h.StopCollection)
		api.POST("/collection/run", h.RunCollection)
		api.GET("/collection/status", h.CollectionStatus)

		// Detection history
		api.GET("/detections", h.GetDetections)
		api.DELETE("/detections", h.ClearDetections)
		api.GET("/detections/stats", h.GetDetectionStats)

		// Usage accounting
		api.GET("/usage", h.GetUsage)

		// V2X broadcasts
		api.GET("/broadcasts", h.GetBroadcasts)
		api.POST("/receivers/check", h.CheckReceiver)
	}

	// Health check
	r.GET("/health", h.HealthCheck)

	// Live pass progress
	r.GET("/ws/progress", func(c *gin.Context) {
		h.hub.ServeWS(c.Writer, c.Request)
	})
}

// StartCollectionRequest overrides the configured collection interval.
type StartCollectionRequest struct {
	IntervalMinutes int `json:"interval_minutes"`
}

// StartCollection begins periodic collection
func (h *Handler) StartCollection(c *gin.Context) {
	var req StartCollectionRequest
	// Body is optional: an empty body means "use the configured interval".
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	interval := h.defaultInterval
	if req.IntervalMinutes != 0 {
		interval = req.IntervalMinutes
	}

	if err := h.scheduler.Start(time.Duration(interval) * time.Minute); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "started",
		"interval_minutes": interval,
	})
}

// StopCollection halts periodic collection
func (h *Handler) StopCollection(c *gin.Context) {
	h.scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// RunCollection triggers a single pass in the background
func (h *Handler) RunCollection(c *gin.Context) {
	if h.scheduler.Status().Collecting {
		c.JSON(http.StatusConflict, gin.H{"error": "collection pass already in progress"})
		return
	}

	// The pass outlives the request, so it gets its own context.
	go h.scheduler.RunOnce(context.Background())

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "running",
		"message": "Collection pass started. Check /api/v1/collection/status for results",
	})
}

// CollectionStatus returns scheduler state and the last pass summary
func (h *Handler) CollectionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}

// GetDetections returns all recorded detections
func (h *Handler) GetDetections(c *gin.Context) {
	detections, err := h.repo.ListAll()
	if err != nil {
		h.logger.Error("Failed to list detections", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get detections"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detections": detections,
		"total":      len(detections),
	})
}

// ClearDetections wipes the detection history
func (h *Handler) ClearDetections(c *gin.Context) {
	if err := h.repo.Clear(); err != nil {
		h.logger.Error("Failed to clear detections", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear detections"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// GetDetectionStats returns aggregate history statistics
func (h *Handler) GetDetectionStats(c *gin.Context) {
	stats, err := h.repo.Stats()
	if err != nil {
		h.logger.Error("Failed to get detection stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetUsage returns oracle usage counters and budget state
func (h *Handler) GetUsage(c *gin.Context) {
	c.JSON(http.StatusOK, h.guard.Stats())
}

// GetBroadcasts returns currently active V2X alerts
func (h *Handler) GetBroadcasts(c *gin.Context) {
	alerts := h.registrar.Active()
	c.JSON(http.StatusOK, gin.H{
		"broadcasts": alerts,
		"total":      len(alerts),
	})
}

// CheckReceiverRequest is a simulated vehicle position.
type CheckReceiverRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// CheckReceiver returns the alerts a vehicle at the given position
// would receive
func (h *Handler) CheckReceiver(c *gin.Context) {
	var req CheckReceiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deliveries := h.registrar.CheckReceiverAll(*req.Latitude, *req.Longitude)
	if deliveries == nil {
		deliveries = []models.AlertDelivery{}
	}

	c.JSON(http.StatusOK, gin.H{
		"deliveries": deliveries,
		"total":      len(deliveries),
	})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "workzone-monitor",
		"version": "1.0.0",
	})
}
