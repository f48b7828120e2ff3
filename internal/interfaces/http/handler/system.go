package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler serves liveness and readiness probes. These routes are
// registered outside the authenticated API group.
type SystemHandler struct {
	db      Pinger
	name    string
	version string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, name, version string) *SystemHandler {
	return &SystemHandler{db: db, name: name, version: version}
}

// RegisterRoutes registers probe routes on the engine root
func (h *SystemHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}

// Health reports process liveness
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.name,
		"version": h.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports whether the service can take traffic
func (h *SystemHandler) Ready(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"reason": "database unreachable",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
