package handler

import (
	"github.com/gin-gonic/gin"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
)

// DirectoryHandler handles organizations, customers and products
type DirectoryHandler struct {
	BaseHandler
	directory DirectoryService
}

// NewDirectoryHandler creates a new DirectoryHandler
func NewDirectoryHandler(directory DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// CreateOrganization onboards a new organization. The caller's token does not need a tenant yet;
// the new organization id is the tenant id for every later token.
func (h *DirectoryHandler) CreateOrganization(c *gin.Context) {
	userID := middleware.GetJWTUserID(c)

	var req appinv.OrganizationInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	org, err := h.directory.CreateOrganization(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toOrganizationResponse(org))
}

// GetOrganization returns the caller's organization
func (h *DirectoryHandler) GetOrganization(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	org, err := h.directory.GetOrganization(c.Request.Context(), actor.TenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrganizationResponse(org))
}

// UpdateOrganization replaces the caller's organization settings
func (h *DirectoryHandler) UpdateOrganization(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req appinv.OrganizationInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	org, err := h.directory.UpdateOrganization(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrganizationResponse(org))
}

// CreateCustomer adds a customer
func (h *DirectoryHandler) CreateCustomer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req appinv.CustomerInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	customer, err := h.directory.CreateCustomer(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCustomerResponse(customer))
}

// GetCustomer returns one customer
func (h *DirectoryHandler) GetCustomer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "customer")
	if !ok {
		return
	}

	customer, err := h.directory.GetCustomer(c.Request.Context(), actor.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCustomerResponse(customer))
}

// CreateProduct adds a catalog product
func (h *DirectoryHandler) CreateProduct(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req appinv.ProductInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	product, err := h.directory.CreateProduct(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toProductResponse(product))
}

// GetProduct returns one product
func (h *DirectoryHandler) GetProduct(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.directory.GetProduct(c.Request.Context(), actor.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponse(product))
}
