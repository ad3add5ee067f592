// internal/interfaces/http/handlers/status.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/nanostore-kiosk/internal/config"
	"github.com/your-org/nanostore-kiosk/internal/domain/session"
)

// StatusHandler reports what the kiosk is currently doing
type StatusHandler struct {
	config   *config.Config
	registry *session.Registry
	started  time.Time
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(cfg *config.Config, registry *session.Registry, started time.Time) *StatusHandler {
	return &StatusHandler{
		config:   cfg,
		registry: registry,
		started:  started,
	}
}

// GetStatus handles GET /status
func (h *StatusHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":            h.config.App.Name,
		"version":         h.config.App.Version,
		"environment":     h.config.App.Environment,
		"shop":            h.config.App.ShopName,
		"active_sessions": h.registry.Len(),
		"idle_timeout":    h.config.Kiosk.IdleTimeout.String(),
		"invoice_mode":    h.config.Kiosk.InvoiceMode,
		"uptime":          time.Since(h.started).Round(time.Second).String(),
	})
}
