package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success sends a 200 JSON response
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Error sends a JSON error body with the given status
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
