package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
)

// RequireTenant rejects tokens that do not name an organization.
// It must run after the JWT middleware.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetJWTTenantID(c) == uuid.Nil {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Token is not scoped to an organization")
			return
		}
		c.Next()
	}
}

// GetActor returns the caller of the request. ok is false when the request carries no
// organization-scoped token.
func GetActor(c *gin.Context) (appinv.Actor, bool) {
	tenantID := GetJWTTenantID(c)
	if tenantID == uuid.Nil {
		return appinv.Actor{}, false
	}
	return appinv.Actor{TenantID: tenantID, UserID: GetJWTUserID(c)}, true
}
