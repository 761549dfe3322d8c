package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/config"
)

var testJWTConfig = config.JWTConfig{
	Secret: "test-secret-key-at-least-32-chars",
	Issuer: "invoicer",
	Leeway: 30 * time.Second,
}

func init() {
	gin.SetMode(gin.TestMode)
}

func issueToken(t *testing.T, userID, tenantID uuid.UUID) string {
	t.Helper()
	token, err := auth.NewIssuer(testJWTConfig, 15*time.Minute).Issue(userID.String(), tenantID, time.Now())
	require.NoError(t, err)
	return token
}

func performRequest(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
