package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
)

// abortWithError stops the chain with an error envelope
func abortWithError(c *gin.Context, status int, code, message string) {
	requestID := logger.GetRequestID(c.Request.Context())
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, requestID))
}
