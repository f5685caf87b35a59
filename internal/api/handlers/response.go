package handlers

import (
	"github.com/gin-gonic/gin"
)

// MessageResponse is the standard error/status body with a stable message field
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationResponse carries the per-field validation failures
type ValidationResponse struct {
	Errors []string `json:"errors"`
}

// RespondError sends a JSON error response with a stable message field
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, MessageResponse{Message: message})
}

// RespondValidationErrors sends the list of validation failures
func RespondValidationErrors(c *gin.Context, statusCode int, errs []string) {
	c.JSON(statusCode, ValidationResponse{Errors: errs})
}

// GetClientIP gets the real client IP address
func GetClientIP(c *gin.Context) string {
	// Try X-Forwarded-For header first (for proxied requests)
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}

	// Try X-Real-IP header
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}

	// Fall back to RemoteAddr
	return c.ClientIP()
}
