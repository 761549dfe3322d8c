package middleware

import (
	"net/http"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

func labelsRouter(mw ...gin.HandlerFunc) (*gin.Engine, *map[string]string) {
	seen := map[string]string{}
	router := gin.New()
	router.Use(mw...)
	capture := func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
			seen[key] = value
			return true
		})
		c.Status(http.StatusOK)
	}
	router.GET("/api/v1/invoices/:id", capture)
	router.GET("/health", capture)
	return router, &seen
}

func TestProfiling_AddsRouteLabels(t *testing.T) {
	router, seen := labelsRouter(Profiling())

	performRequest(router, http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), "")

	assert.Equal(t, "/api/v1/invoices/:id", (*seen)[telemetry.ProfilingLabelRoute])
	assert.Equal(t, http.MethodGet, (*seen)[telemetry.ProfilingLabelMethod])
	assert.NotContains(t, *seen, telemetry.ProfilingLabelTenantID)
}

func TestProfiling_TenantLabelAfterAuth(t *testing.T) {
	router, seen := labelsRouter(JWTAuthMiddleware(auth.NewVerifier(testJWTConfig)), Profiling())
	userID, tenantID := uuid.New(), uuid.New()

	w := performRequest(router, http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), issueToken(t, userID, tenantID))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, tenantID.String(), (*seen)[telemetry.ProfilingLabelTenantID])
	assert.NotContains(t, *seen, "user_id", "user ids are too high-cardinality for labels")
}

func TestProfiling_SkipsAndDisabled(t *testing.T) {
	router, seen := labelsRouter(Profiling())
	performRequest(router, http.MethodGet, "/health", "")
	assert.Empty(t, *seen)

	router, seen = labelsRouter(ProfilingWithConfig(ProfilingConfig{Enabled: false}))
	performRequest(router, http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), "")
	assert.Empty(t, *seen)
}
