// internal/interfaces/http/handlers/receipt.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/nanostore-kiosk/internal/pkg/pdf"
)

// ReceiptHandler serves locally rendered PDF receipts
type ReceiptHandler struct {
	receipts *pdf.Service
}

// NewReceiptHandler creates a new receipt handler. receipts may be nil when
// receipts are not rendered locally.
func NewReceiptHandler(receipts *pdf.Service) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// GetReceipt handles GET /receipts/:order
func (h *ReceiptHandler) GetReceipt(c *gin.Context) {
	if h.receipts == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Receipts are not rendered by this kiosk",
		})
		return
	}

	orderNumber := c.Param("order")
	path, err := h.receipts.Open(orderNumber)
	switch {
	case errors.Is(err, pdf.ErrInvalidOrderNumber):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order number",
		})
		return
	case errors.Is(err, pdf.ErrReceiptNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Receipt not found",
		})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to open receipt",
		})
		return
	}

	c.FileAttachment(path, fmt.Sprintf("receipt-%s.pdf", orderNumber))
}
