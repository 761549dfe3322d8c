package router

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

// newBillingEngine wires handlers without services; requests in these tests never reach them.
// auth decides what the authenticate guard does.
func newBillingEngine(auth gin.HandlerFunc, db handler.Pinger) *gin.Engine {
	engine := gin.New()
	Setup(engine, Handlers{
		Directory: handler.NewDirectoryHandler(nil),
		Invoices:  handler.NewInvoiceHandler(nil, nil, nil, nil),
		Quotes:    handler.NewQuoteHandler(nil),
		Disputes:  handler.NewDisputeHandler(nil),
		Artifacts: handler.NewArtifactHandler(nil),
		Public:    handler.NewPublicHandler(nil, nil),
		Health:    handler.NewHealthHandler(db),
	}, Guards{
		Authenticate:  auth,
		RequireTenant: middleware.RequireTenant(),
		Scoped: []gin.HandlerFunc{func(c *gin.Context) {
			c.Header("X-Scoped", "1")
			c.Next()
		}},
	})
	return engine
}

func rejectAll(c *gin.Context) {
	c.AbortWithStatus(http.StatusUnauthorized)
}

func TestSetup_RegistersBillingRoutes(t *testing.T) {
	engine := newBillingEngine(rejectAll, stubPinger{})

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/organizations",
		"GET /api/v1/organization",
		"PUT /api/v1/organization",
		"POST /api/v1/customers",
		"GET /api/v1/customers/:id",
		"POST /api/v1/products",
		"GET /api/v1/products/:id",
		"POST /api/v1/invoices",
		"GET /api/v1/invoices",
		"GET /api/v1/invoices/:id",
		"PUT /api/v1/invoices/:id",
		"POST /api/v1/invoices/:id/send",
		"POST /api/v1/invoices/:id/void",
		"POST /api/v1/invoices/:id/duplicate",
		"POST /api/v1/invoices/:id/mark-overdue",
		"GET /api/v1/invoices/:id/compliance-snapshot",
		"POST /api/v1/invoices/:id/payments",
		"POST /api/v1/invoices/:id/credit-notes",
		"POST /api/v1/invoices/:id/disputes",
		"GET /api/v1/invoices/:id/disputes",
		"GET /api/v1/invoices/:id/receipt",
		"POST /api/v1/invoices/batch/void",
		"POST /api/v1/invoices/batch/reminders",
		"POST /api/v1/invoices/overdue-sweep",
		"POST /api/v1/quotes",
		"GET /api/v1/quotes",
		"GET /api/v1/quotes/:id",
		"PUT /api/v1/quotes/:id",
		"DELETE /api/v1/quotes/:id",
		"POST /api/v1/quotes/:id/send",
		"POST /api/v1/quotes/:id/accept",
		"POST /api/v1/quotes/:id/void",
		"POST /api/v1/quotes/:id/convert",
		"POST /api/v1/quotes/expire-sweep",
		"GET /api/v1/disputes/:id",
		"POST /api/v1/disputes/:id/approve",
		"POST /api/v1/disputes/:id/reject",
		"GET /api/v1/artifacts/:id/download",
		"GET /api/v1/public/invoices/:token",
		"POST /api/v1/public/invoices/:token/disputes",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, engine.Routes(), len(expected))
}

func TestSetup_AuthenticatedGroupsRequireToken(t *testing.T) {
	engine := newBillingEngine(rejectAll, stubPinger{})

	for _, probe := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/organizations"},
		{http.MethodGet, "/api/v1/invoices"},
		{http.MethodPost, "/api/v1/invoices/batch/void"},
		{http.MethodDelete, "/api/v1/quotes/" + uuid.NewString()},
		{http.MethodPost, "/api/v1/disputes/" + uuid.NewString() + "/approve"},
		{http.MethodGet, "/api/v1/artifacts/" + uuid.NewString() + "/download"},
	} {
		w := serve(engine, probe.method, probe.path)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", probe.method, probe.path)
		assert.Empty(t, w.Header().Get("X-Scoped"))
	}
}

func TestSetup_TenantlessTokenOnlyOnboards(t *testing.T) {
	engine := newBillingEngine(func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, uuid.New())
		c.Next()
	}, stubPinger{})

	w := serve(engine, http.MethodGet, "/api/v1/invoices")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Onboarding passes the guards and reaches the handler, which rejects the empty body.
	w = serve(engine, http.MethodPost, "/api/v1/organizations")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Scoped"))
}

func TestSetup_PublicRoutesSkipAuthentication(t *testing.T) {
	engine := newBillingEngine(rejectAll, stubPinger{})

	w := serve(engine, http.MethodGet, "/api/v1/public/invoices/"+strings.Repeat("x", 200))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get("X-Scoped"))
}

func TestSetup_Probes(t *testing.T) {
	engine := newBillingEngine(rejectAll, stubPinger{})
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/ready").Code)

	engine = newBillingEngine(rejectAll, stubPinger{err: errors.New("down")})
	require.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(engine, http.MethodGet, "/ready").Code)
}
