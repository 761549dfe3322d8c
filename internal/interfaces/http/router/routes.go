package router

import (
	"github.com/gin-gonic/gin"

	"github.com/invoicer/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers of the billing API
type Handlers struct {
	Directory *handler.DirectoryHandler
	Invoices  *handler.InvoiceHandler
	Quotes    *handler.QuoteHandler
	Disputes  *handler.DisputeHandler
	Artifacts *handler.ArtifactHandler
	Public    *handler.PublicHandler
	Health    *handler.HealthHandler
}

// Guards are the middleware of the authenticated groups.
// Scoped runs after authentication, once the caller is known.
type Guards struct {
	Authenticate  gin.HandlerFunc
	RequireTenant gin.HandlerFunc
	Scoped        []gin.HandlerFunc
}

func (g Guards) authenticated() []gin.HandlerFunc {
	return append([]gin.HandlerFunc{g.Authenticate}, g.Scoped...)
}

func (g Guards) tenantScoped() []gin.HandlerFunc {
	return append([]gin.HandlerFunc{g.Authenticate, g.RequireTenant}, g.Scoped...)
}

// Setup registers the probes at the root and the API under /api/v1
func Setup(engine *gin.Engine, h Handlers, g Guards) *Router {
	engine.GET("/health", h.Health.Health)
	engine.GET("/ready", h.Health.Ready)

	r := NewRouter(engine)
	r.Register(
		publicGroup(h),
		onboardingGroup(h, g),
		organizationGroup(h, g),
		customerGroup(h, g),
		productGroup(h, g),
		invoiceGroup(h, g),
		quoteGroup(h, g),
		disputeGroup(h, g),
		artifactGroup(h, g),
	)
	r.Setup()
	return r
}

// publicGroup serves the hosted invoice page; the token in the path is the only credential
func publicGroup(h Handlers) *DomainGroup {
	return NewDomainGroup("public", "/public/invoices").
		GET("/:token", h.Public.ViewInvoice).
		POST("/:token/disputes", h.Public.OpenDispute)
}

// onboardingGroup accepts tokens without an organization
func onboardingGroup(h Handlers, g Guards) *DomainGroup {
	return NewDomainGroup("onboarding", "/organizations").
		Use(g.authenticated()...).
		POST("", h.Directory.CreateOrganization)
}

func organizationGroup(h Handlers, g Guards) *DomainGroup {
	return NewDomainGroup("organization", "/organization").
		Use(g.tenantScoped()...).
		GET("", h.Directory.GetOrganization).
		PUT("", h.Directory.UpdateOrganization)
}

func customerGroup(h Handlers, g Guards) *DomainGroup {
	return NewDomainGroup("customers", "/customers").
		Use(g.tenantScoped()...).
		POST("", h.Directory.CreateCustomer).
		GET("/:id", h.Directory.GetCustomer)
}

func productGroup(h Handlers, g Guards) *DomainGroup {
	return NewDomainGroup("products", "/products").
		Use(g.tenantScoped()...).
		POST("", h.Directory.CreateProduct).
		GET("/:id", h.Directory.GetProduct)
}

func invoiceGroup(h Handlers, g Guards) *DomainGroup {
	inv := h.Invoices
	group := NewDomainGroup("invoices", "/invoices").
		Use(g.tenantScoped()...).
		POST("", inv.Create).
		GET("", inv.List).
		POST("/overdue-sweep", inv.OverdueSweep).
		GET("/:id", inv.Get).
		PUT("/:id", inv.Update).
		POST("/:id/send", inv.Send).
		POST("/:id/void", inv.Void).
		POST("/:id/duplicate", inv.Duplicate).
		POST("/:id/mark-overdue", inv.MarkOverdue).
		GET("/:id/compliance-snapshot", inv.ComplianceSnapshot).
		POST("/:id/payments", inv.RecordPayment).
		POST("/:id/credit-notes", inv.IssueCreditNote).
		POST("/:id/disputes", inv.OpenDispute).
		GET("/:id/disputes", inv.ListDisputes).
		GET("/:id/receipt", inv.Receipt)

	group.Group("invoice-batch", "/batch").
		POST("/void", inv.BatchVoid).
		POST("/reminders", inv.BatchReminders)
	return group
}

func quoteGroup(h Handlers, g Guards) *DomainGroup {
	q := h.Quotes
	return NewDomainGroup("quotes", "/quotes").
		Use(g.tenantScoped()...).
		POST("", q.Create).
		GET("", q.List).
		POST("/expire-sweep", q.ExpireSweep).
		GET("/:id", q.Get).
		PUT("/:id", q.Update).
		DELETE("/:id", q.Delete).
		POST("/:id/send", q.Send).
		POST("/:id/accept", q.Accept).
		POST("/:id/void", q.Void).
		POST("/:id/convert", q.Convert)
}

func disputeGroup(h Handlers, g Guards) *DomainGroup {
	return NewDomainGroup("disputes", "/disputes").
		Use(g.tenantScoped()...).
		GET("/:id", h.Disputes.Get).
		POST("/:id/approve", h.Disputes.Approve).
		POST("/:id/reject", h.Disputes.Reject)
}

func artifactGroup(h Handlers, g Guards) *DomainGroup {
	return NewDomainGroup("artifacts", "/artifacts").
		Use(g.tenantScoped()...).
		GET("/:id/download", h.Artifacts.Download)
}
