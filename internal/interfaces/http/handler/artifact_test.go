package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
)

func TestArtifactHandler_Download(t *testing.T) {
	documents := new(MockDocumentService)
	h := NewArtifactHandler(documents)
	actor := appinv.Actor{TenantID: uuid.New(), UserID: uuid.New()}
	r, _ := newTestRouter(actor.TenantID, actor.UserID)
	r.GET("/artifacts/:id/download", h.Download)

	pdf := []byte("%PDF-1.4 receipt")
	artifact := invoicing.NewArtifact(actor.TenantID, uuid.New(), invoicing.ArtifactKindReceiptPDF, "receipts/a.pdf", "application/pdf", int64(len(pdf)))
	path := "/artifacts/" + artifact.ID.String() + "/download"

	t.Run("presigned redirect", func(t *testing.T) {
		documents.On("Download", mock.Anything, actor.TenantID, artifact.ID).
			Return(&appinv.ArtifactDownload{Artifact: artifact, URL: "https://s3.example.com/a.pdf?sig=1"}, nil).Once()

		w := doRequest(r, http.MethodGet, path, nil)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://s3.example.com/a.pdf?sig=1", w.Header().Get("Location"))
	})

	t.Run("streamed bytes", func(t *testing.T) {
		documents.On("Download", mock.Anything, actor.TenantID, artifact.ID).
			Return(&appinv.ArtifactDownload{Artifact: artifact, Data: pdf}, nil).Once()

		w := doRequest(r, http.MethodGet, path, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="`+artifact.ID.String()+`.pdf"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, pdf, w.Body.Bytes())
	})

	t.Run("other tenant", func(t *testing.T) {
		documents.On("Download", mock.Anything, actor.TenantID, artifact.ID).
			Return(nil, shared.NotFoundError("artifact", artifact.ID)).Once()

		w := doRequest(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	documents.AssertExpectations(t)
}
