package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/logger"
)

// setupTestTracer installs a recording tracer provider; otelgin picks it up when built.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return sr
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func newTracedRouter() *gin.Engine {
	router := gin.New()
	router.Use(
		Tracing(),
		logger.GinMiddleware(zap.NewNop()),
		TracingAttributeInjector(),
		SpanErrorMarker(),
	)
	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(auth.NewVerifier(testJWTConfig)), TracingAttributeInjector())
	api.GET("/invoices/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	api.GET("/quotes/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	api.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return router
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, performRequest(router, http.MethodGet, "/test", "").Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_EnrichesSpanWithRequestAndCaller(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracedRouter()
	userID, tenantID := uuid.New(), uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+issueToken(t, userID, tenantID))
	req.Header.Set(logger.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "req-123", attrs["request_id"].AsString())
	assert.Equal(t, tenantID.String(), attrs["tenant_id"].AsString())
	assert.Equal(t, userID.String(), attrs["user_id"].AsString())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestSpanErrorMarker(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracedRouter()
	token := issueToken(t, uuid.New(), uuid.New())

	performRequest(router, http.MethodGet, "/api/v1/quotes/"+uuid.NewString(), token)
	performRequest(router, http.MethodGet, "/api/v1/boom", token)
	performRequest(router, http.MethodGet, "/api/v1/invoices/x", "")

	spans := sr.Ended()
	require.Len(t, spans, 3)
	for _, span := range spans {
		assert.Equal(t, codes.Error, span.Status().Code)
	}
	assert.Equal(t, "Not Found", spans[0].Status().Description)
	assert.Equal(t, "Unauthorized", spans[2].Status().Description)
	_, hasUser := spanAttrs(spans[2])["user_id"]
	assert.False(t, hasUser, "rejected callers are not attributed")
}

func TestSpanErrorMessage(t *testing.T) {
	assert.Equal(t, "Invalid State", spanErrorMessage(http.StatusUnprocessableEntity))
	assert.Equal(t, "Client Error", spanErrorMessage(http.StatusConflict))
	assert.Equal(t, "Internal Server Error", spanErrorMessage(http.StatusBadGateway))
}
