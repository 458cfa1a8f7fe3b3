package handlers

import (
	"errors"
	"net/http"

	"github.com/tainyuhu/pin-server/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError writes a flow error as structured JSON. Anything that is not
// a typed flow error becomes a generic 500.
func respondError(c *gin.Context, err error) {
	var fe *services.FlowError
	if !errors.As(err, &fe) {
		fe = services.ErrUnexpected
	}
	c.JSON(fe.Status, gin.H{
		"success": false,
		"error":   fe.Code,
		"message": fe.Message,
	})
}

// respondValidation reports a missing or malformed request field.
func respondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "validation",
		"message": message,
	})
}
