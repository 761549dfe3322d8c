package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ArtifactHandler serves stored documents
type ArtifactHandler struct {
	BaseHandler
	documents DocumentService
}

// NewArtifactHandler creates a new ArtifactHandler
func NewArtifactHandler(documents DocumentService) *ArtifactHandler {
	return &ArtifactHandler{documents: documents}
}

// Download redirects to a presigned link when the store issues one and streams the bytes otherwise
func (h *ArtifactHandler) Download(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "artifact")
	if !ok {
		return
	}

	download, err := h.documents.Download(c.Request.Context(), actor.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if download.URL != "" {
		c.Redirect(http.StatusFound, download.URL)
		return
	}

	filename := download.Artifact.ID.String()
	if download.Artifact.MimeType == "application/pdf" {
		filename += ".pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Cache-Control", "private, no-store")
	c.Header("Content-Length", strconv.Itoa(len(download.Data)))
	c.Data(http.StatusOK, download.Artifact.MimeType, download.Data)
}
