package handler

import (
	"github.com/gin-gonic/gin"
)

// CorsHandler sets cross-origin headers. The allowed origin comes from
// configuration; an empty value falls back to the permissive wildcard.
type CorsHandler struct {
	allowedOrigin string
}

func NewCorsHandler(allowedOrigin string) *CorsHandler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &CorsHandler{allowedOrigin: allowedOrigin}
}

func (h *CorsHandler) CorsMiddleware(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", h.allowedOrigin)
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(200)
		return
	}
	c.Next()
}
