// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/nanostore-kiosk/internal/interfaces/http/handlers"
)

// Handlers groups the REST handlers mounted under the API prefix
type Handlers struct {
	Status   *handlers.StatusHandler
	Receipts *handlers.ReceiptHandler
}

// SetupRoutes sets up the read-only kiosk API
func SetupRoutes(rg *gin.RouterGroup, h Handlers) {
	rg.GET("/status", h.Status.GetStatus)

	receipts := rg.Group("/receipts")
	{
		receipts.GET("/:order", h.Receipts.GetReceipt)
	}
}
