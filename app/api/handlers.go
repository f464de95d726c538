package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chemlab/dealwatch/app/database"
	"github.com/chemlab/dealwatch/app/site"
	"github.com/chemlab/dealwatch/app/tasks"
)

func NewHandler(registry *site.Registry, stateRepo database.StateRepository,
	scheduler tasks.SchedulerInterface, version string) *Handler {
	return &Handler{
		registry:  registry,
		stateRepo: stateRepo,
		scheduler: scheduler,
		version:   version,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	count, err := h.stateRepo.Count()
	if err != nil {
		slog.Error("Database error", "operation", "count_states", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   h.version,
		"running":   h.scheduler.Running(),
		"states":    count,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type siteStatus struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	Parser    string     `json:"parser"`
	Enabled   bool       `json:"enabled"`
	LastTitle string     `json:"last_title,omitempty"`
	LastPrice string     `json:"last_price,omitempty"`
	Notified  *time.Time `json:"notified_at,omitempty"`
}

func (h *Handler) ListSites(c *gin.Context) {
	sites := h.registry.All()

	statuses := make([]siteStatus, 0, len(sites))
	for _, s := range sites {
		status := siteStatus{
			ID:      s.ID,
			Name:    s.Name,
			URL:     s.URL,
			Parser:  s.Parser,
			Enabled: s.Enabled,
		}

		state, err := h.stateRepo.Get(s.ID)
		if err != nil {
			slog.Error("Database error", "operation", "get_state", "site", s.ID, "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		if state != nil {
			status.LastTitle = state.Title
			status.LastPrice = state.SalePrice
			status.Notified = &state.NotifiedAt
		}

		statuses = append(statuses, status)
	}

	c.JSON(http.StatusOK, gin.H{"sites": statuses})
}

func (h *Handler) StartChecker(c *gin.Context) {
	h.scheduler.Start()
	c.JSON(http.StatusOK, gin.H{"running": true})
}

func (h *Handler) StopChecker(c *gin.Context) {
	h.scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{"running": false})
}

func (h *Handler) RestartChecker(c *gin.Context) {
	h.scheduler.Restart()
	c.JSON(http.StatusOK, gin.H{"running": true})
}

func (h *Handler) UpdateNow(c *gin.Context) {
	h.scheduler.CheckNow()
	c.JSON(http.StatusAccepted, gin.H{"update": "dispatched"})
}

func (h *Handler) EnableSite(c *gin.Context) {
	id := c.Param("id")
	if err := h.scheduler.EnableSite(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"site": id, "enabled": true})
}

func (h *Handler) DisableSite(c *gin.Context) {
	id := c.Param("id")
	if err := h.scheduler.DisableSite(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"site": id, "enabled": false})
}
